package models

// GeoPoint represents a geographical point defined by its latitude and longitude.
type GeoPoint struct {
	Latitude  float64 `json:"lat"` // Latitude of the geographical point, degrees in [-90, 90].
	Longitude float64 `json:"lng"` // Longitude of the geographical point, degrees in [-180, 180].
}
