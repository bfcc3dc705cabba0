package models

// RankNotFound is the sentinel rank for a business absent from search results.
// Any other valid rank is a positive integer.
const RankNotFound = 0

// GridShape controls the footprint of a generated grid.
type GridShape string

const (
	// ShapeCircular discards lattice points farther than the radius from the center.
	ShapeCircular GridShape = "circular"
	// ShapeSquare keeps every lattice point, including corners beyond the radius.
	ShapeSquare GridShape = "square"
)

// GridRequest describes one ranking-estimation run around a business location.
type GridRequest struct {
	Keyword      string    // Keyword is the search phrase to rank for.
	BusinessName string    // BusinessName is the target business to find in results.
	Center       GeoPoint  // Center is the business location the grid is built around.
	GridSize     int       // GridSize is the lattice dimension N (NxN points).
	RadiusKm     float64   // RadiusKm is the sampling radius around the center.
	Shape        GridShape // Shape selects a circular or square footprint.
}

// GridPoint is one sampled coordinate of a completed grid with its estimated rank.
// Points are immutable snapshots; re-running the estimator produces a new set.
type GridPoint struct {
	GeoPoint

	SequenceID   int      `json:"sequence_id"`   // SequenceID is the 1-based row-major position in the grid.
	Rank         int      `json:"rank"`          // Rank is a positive rank or RankNotFound.
	SearchVolume int      `json:"search_volume"` // SearchVolume is an illustrative monthly volume, >= 0.
	RankChange   int      `json:"rank_change"`   // RankChange is an illustrative signed delta vs. the previous scan.
	Competitors  []string `json:"competitors"`   // Competitors holds nearby ranking business names, may be empty.
}

// GridSummary aggregates a completed grid. It is derived from the points on
// demand and never stored independently of them.
type GridSummary struct {
	AverageFirstPageRank float64 `json:"average_first_page_rank"` // Mean of valid ranks <= 10, 0 if none.
	TotalGridRankMean    float64 `json:"total_grid_rank_mean"`    // Mean of all valid ranks, 0 if none.
	TopSpotShare         float64 `json:"top_spot_share"`          // Percentage of valid ranks <= 3, in [0, 100].
}

// GridStatus reports how a grid estimation concluded.
type GridStatus string

const (
	// GridStatusOK means the center lookup produced a rank and the grid was scored.
	GridStatusOK GridStatus = "ok"
	// GridStatusNotFound means the business is confirmed absent at the center;
	// this is valid data, not an error.
	GridStatusNotFound GridStatus = "not_found"
	// GridStatusUnavailable means the lookup failed and no estimation was possible.
	GridStatusUnavailable GridStatus = "unavailable"
)

// GridResult is the outcome of one estimator invocation.
type GridResult struct {
	Points  []GridPoint `json:"points"`
	Summary GridSummary `json:"summary"`
	Status  GridStatus  `json:"status"`
}
