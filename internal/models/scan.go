package models

// ScanTask represents a pending grid scan queued by the dashboard.
type ScanTask struct {
	ID           int       // ID is the unique identifier for the scan.
	Keyword      string    // Keyword is the search phrase to rank for.
	BusinessName string    // BusinessName is the target business name.
	Center       GeoPoint  // Center is the business location.
	GridSize     int       // GridSize is the requested lattice dimension.
	RadiusKm     float64   // RadiusKm is the requested sampling radius.
	Shape        GridShape // Shape is the requested grid footprint.
}
