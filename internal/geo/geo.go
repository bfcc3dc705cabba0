package geo

import (
	"math"

	"github.com/LocalLens/gridrank/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by the spherical-earth formulas.
const EarthRadiusKm = 6371.0

// Haversine calculates the great-circle distance between two points in
// kilometers using the haversine formula. The result is symmetric and zero
// only when both points are equal.
func Haversine(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// InitialBearing calculates the initial great-circle bearing from a toward b,
// in radians from north, normalized to [0, 2π).
func InitialBearing(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	bearing := math.Atan2(y, x)
	if bearing < 0 {
		bearing += 2 * math.Pi
	}

	return bearing
}

// Destination projects a point along a great circle from the origin, given an
// initial bearing in radians and a distance in kilometers. The resulting
// longitude is wrapped into [-180, 180]. Latitude is not clamped; callers must
// keep origins away from the poles (see GenerateGrid).
func Destination(origin models.GeoPoint, bearingRad, distanceKm float64) models.GeoPoint {
	lat1 := origin.Latitude * math.Pi / 180
	lng1 := origin.Longitude * math.Pi / 180
	angular := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(bearingRad))
	lng2 := lng1 + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	return models.GeoPoint{
		Latitude:  lat2 * 180 / math.Pi,
		Longitude: wrapLongitude(lng2 * 180 / math.Pi),
	}
}

// wrapLongitude normalizes a longitude in degrees into [-180, 180].
func wrapLongitude(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}

	return lng
}
