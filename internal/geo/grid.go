package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/LocalLens/gridrank/internal/models"
)

// Common errors for grid generation.
var (
	ErrInvalidGridSize  = errors.New("grid size must be a positive integer")
	ErrInvalidRadius    = errors.New("radius must be greater than zero")
	ErrInvalidLatitude  = errors.New("latitude must be within [-90, 90]")
	ErrInvalidLongitude = errors.New("longitude must be within [-180, 180]")
	ErrCenterNearPole   = errors.New("center is within the sampling radius of a pole")
)

// ValidatePoint checks that a coordinate pair is within geographic bounds.
func ValidatePoint(p models.GeoPoint) error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: got %f", ErrInvalidLatitude, p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: got %f", ErrInvalidLongitude, p.Longitude)
	}

	return nil
}

// GenerateGrid produces the coordinates of an NxN lattice around a center
// point, row-major and deterministic for identical inputs. Each lattice cell
// maps to normalized coordinates x, y in [-1, 1]; the point is projected
// radiusKm*sqrt(x²+y²) away from the center along the bearing atan2(y, x).
//
// With models.ShapeCircular, lattice points farther than radiusKm from the
// center are discarded, so a square lattice yields an approximately circular
// footprint (the four corners at normalized distance √2 always drop out for
// N > 1). With models.ShapeSquare every lattice point is kept.
//
// A grid size of 1 yields exactly the center point. Centers within radiusKm
// of a pole are rejected, since the destination projection does not handle
// latitude wraparound.
func GenerateGrid(
	center models.GeoPoint,
	radiusKm float64,
	gridSize int,
	shape models.GridShape,
) ([]models.GeoPoint, error) {
	if gridSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGridSize, gridSize)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidRadius, radiusKm)
	}
	if err := ValidatePoint(center); err != nil {
		return nil, err
	}

	// The square footprint reaches radiusKm*√2 from the center on the diagonal.
	maxReachKm := radiusKm
	if shape == models.ShapeSquare {
		maxReachKm = radiusKm * math.Sqrt2
	}
	poleDistanceKm := (90 - math.Abs(center.Latitude)) * math.Pi / 180 * EarthRadiusKm
	if poleDistanceKm < maxReachKm {
		return nil, fmt.Errorf("%w: center latitude %f, radius %f km",
			ErrCenterNearPole, center.Latitude, radiusKm)
	}

	if gridSize == 1 {
		return []models.GeoPoint{center}, nil
	}

	points := make([]models.GeoPoint, 0, gridSize*gridSize)
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			x := 2*float64(j)/float64(gridSize-1) - 1
			y := 2*float64(i)/float64(gridSize-1) - 1

			distanceKm := radiusKm * math.Sqrt(x*x+y*y)
			if shape != models.ShapeSquare && distanceKm > radiusKm {
				continue
			}

			if distanceKm == 0 {
				points = append(points, center)
				continue
			}

			bearing := math.Atan2(y, x)
			points = append(points, Destination(center, bearing, distanceKm))
		}
	}

	return points, nil
}
