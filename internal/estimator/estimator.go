// Package estimator derives a geo-grid ranking surface from a single
// authoritative measurement. One ranking lookup is performed at the grid
// center; every other point's rank is synthesized from its distance to the
// center with bounded random jitter, modelling how local rankings degrade
// with distance from the business.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/LocalLens/gridrank/internal/geo"
	"github.com/LocalLens/gridrank/internal/models"
	"github.com/LocalLens/gridrank/internal/serp"
)

const (
	// maxRankVariation is the worst-case rank degradation at the grid edge.
	maxRankVariation = 10
	// firstPageRank is the last position counted as first-page.
	firstPageRank = 10
	// topSpotRank is the last position counted toward the top-spot share.
	topSpotRank = 3

	defaultGridSize = 5
	defaultRadiusKm = 5
)

// Validation errors for grid requests. Geometry errors are re-used from the
// geo package.
var (
	ErrEmptyKeyword      = errors.New("keyword must not be empty")
	ErrEmptyBusinessName = errors.New("business name must not be empty")
)

// Estimator produces scored ranking grids. Each invocation builds a fresh
// grid; no state is shared across requests beyond the injected collaborators.
type Estimator struct {
	log      *slog.Logger  // Logger for logging estimation activities
	provider serp.Provider // Ranking provider for the single center lookup
	rnd      *rand.Rand    // Random source for jitter and illustrative fields
	jitter   func() int    // Jitter source, uniform over {-1, 0, 1}
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithRand injects a seedable random source so tests can assert exact
// outputs. Production code keeps the default time-seeded source.
func WithRand(rnd *rand.Rand) Option {
	return func(e *Estimator) {
		e.rnd = rnd
		e.jitter = func() int { return rnd.IntN(3) - 1 }
	}
}

// WithJitter overrides the per-point jitter source. Tests use a constant
// zero jitter to assert the pure distance-decay model.
func WithJitter(jitter func() int) Option {
	return func(e *Estimator) {
		e.jitter = jitter
	}
}

// NewEstimator creates a new Estimator using the given logger and ranking
// provider.
func NewEstimator(log *slog.Logger, provider serp.Provider, opts ...Option) *Estimator {
	est := &Estimator{
		log:      log,
		provider: provider,
	}
	est.rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	est.jitter = func() int { return est.rnd.IntN(3) - 1 }

	for _, opt := range opts {
		opt(est)
	}

	return est
}

// Estimate resolves the center's true rank via the injected provider, then
// scores every grid point with the distance-decay model and aggregates the
// grid into summary metrics.
//
// A malformed request is rejected with a validation error before any work
// begins. A confirmed "business not found" at the center marks every point
// not-found, since the estimator must not fabricate rankings for a business
// absent from the baseline. A failed lookup (network, timeout, cancellation)
// degrades to an unavailable result instead of surfacing a raw error; the
// provider's own bounded retry policy has already run at that point.
func (e *Estimator) Estimate(ctx context.Context, req models.GridRequest) (*models.GridResult, error) {
	applyDefaults(&req)

	if req.Keyword == "" {
		return nil, ErrEmptyKeyword
	}
	if req.BusinessName == "" {
		return nil, ErrEmptyBusinessName
	}

	coords, err := geo.GenerateGrid(req.Center, req.RadiusKm, req.GridSize, req.Shape)
	if err != nil {
		return nil, fmt.Errorf("failed to generate grid: %w", err)
	}

	locationContext := fmt.Sprintf("%.6f,%.6f", req.Center.Latitude, req.Center.Longitude)

	centerRank, err := e.provider.FindRanking(ctx, req.Keyword, req.BusinessName, locationContext)
	switch {
	case err == nil:
		// continue
	case errors.Is(err, serp.ErrBusinessNotFound):
		e.log.InfoContext(ctx, "Business not found at grid center",
			"keyword", req.Keyword, "business", req.BusinessName)
		return emptyResult(coords, models.GridStatusNotFound), nil
	default:
		e.log.ErrorContext(ctx, "Ranking lookup failed, estimation unavailable",
			"keyword", req.Keyword, "business", req.BusinessName, "error", err)
		return emptyResult(coords, models.GridStatusUnavailable), nil
	}

	points := make([]models.GridPoint, 0, len(coords))
	for idx, coord := range coords {
		points = append(points, e.scorePoint(coord, idx+1, req, centerRank))
	}

	return &models.GridResult{
		Points:  points,
		Summary: Summarize(points),
		Status:  models.GridStatusOK,
	}, nil
}

// scorePoint derives one point's rank from its distance to the center. The
// rank degrades by up to maxRankVariation positions at the grid edge, with a
// one-position random jitter, floored at 1.
func (e *Estimator) scorePoint(
	coord models.GeoPoint,
	sequenceID int,
	req models.GridRequest,
	centerRank int,
) models.GridPoint {
	distanceKm := geo.Haversine(req.Center, coord)
	normalized := distanceKm / req.RadiusKm
	if normalized > 1 {
		normalized = 1
	}

	variation := int(normalized * maxRankVariation)
	rank := centerRank + variation + e.jitter()
	if rank < 1 {
		rank = 1
	}

	return models.GridPoint{
		GeoPoint:     coord,
		SequenceID:   sequenceID,
		Rank:         rank,
		SearchVolume: 100 + e.rnd.IntN(900),
		RankChange:   e.rnd.IntN(7) - 3,
		Competitors:  e.competitorsFor(rank),
	}
}

// competitorPool supplies illustrative competitor names for points where the
// business is outranked.
var competitorPool = []string{
	"Citywide Services",
	"Premier Local Co",
	"Metro Experts",
	"Neighborhood Pros",
	"First Choice Group",
}

// competitorsFor lists up to three businesses ranking above the given
// position. A rank of 1 has none.
func (e *Estimator) competitorsFor(rank int) []string {
	count := rank - 1
	if count > 3 {
		count = 3
	}
	if count <= 0 {
		return nil
	}

	offset := e.rnd.IntN(len(competitorPool))
	competitors := make([]string, 0, count)
	for i := 0; i < count; i++ {
		competitors = append(competitors, competitorPool[(offset+i)%len(competitorPool)])
	}

	return competitors
}

// Summarize recomputes aggregate metrics from a point collection. Only points
// with a valid rank contribute; a grid with no valid ranks summarizes to all
// zeros.
func Summarize(points []models.GridPoint) models.GridSummary {
	var (
		validCount     int
		validSum       int
		firstPageCount int
		firstPageSum   int
		topSpotCount   int
	)

	for _, point := range points {
		if point.Rank == models.RankNotFound {
			continue
		}
		validCount++
		validSum += point.Rank
		if point.Rank <= firstPageRank {
			firstPageCount++
			firstPageSum += point.Rank
		}
		if point.Rank <= topSpotRank {
			topSpotCount++
		}
	}

	var summary models.GridSummary
	if validCount == 0 {
		return summary
	}

	summary.TotalGridRankMean = float64(validSum) / float64(validCount)
	summary.TopSpotShare = 100 * float64(topSpotCount) / float64(validCount)
	if firstPageCount > 0 {
		summary.AverageFirstPageRank = float64(firstPageSum) / float64(firstPageCount)
	}

	return summary
}

// applyDefaults fills the documented request defaults for zero-valued fields.
func applyDefaults(req *models.GridRequest) {
	if req.GridSize == 0 {
		req.GridSize = defaultGridSize
	}
	if req.RadiusKm == 0 {
		req.RadiusKm = defaultRadiusKm
	}
	if req.Shape == "" {
		req.Shape = models.ShapeCircular
	}
}

// emptyResult builds a grid whose every point carries the not-found sentinel.
// Geometry is still materialized so the dashboard can render the footprint.
func emptyResult(coords []models.GeoPoint, status models.GridStatus) *models.GridResult {
	points := make([]models.GridPoint, 0, len(coords))
	for idx, coord := range coords {
		points = append(points, models.GridPoint{
			GeoPoint:   coord,
			SequenceID: idx + 1,
			Rank:       models.RankNotFound,
		})
	}

	return &models.GridResult{
		Points:  points,
		Summary: models.GridSummary{},
		Status:  status,
	}
}
