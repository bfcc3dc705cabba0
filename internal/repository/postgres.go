package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LocalLens/gridrank/internal/models"
)

// FetchPendingScans retrieves grid scans queued by the dashboard that still
// need processing. It returns scans that are in the pending state, have fewer
// than 5 attempts, and carry a non-empty keyword. The results are ordered by
// creation date and limited to the specified count.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
// - limit: The maximum number of scans to retrieve.
//
// Returns:
// - A slice of models.ScanTask containing the scans that match the criteria.
// - An error if the query fails or if there is an issue scanning the results.
func (r *Repository) FetchPendingScans(ctx context.Context, limit int) ([]models.ScanTask, error) {
	var scans []models.ScanTask
	query := `
		SELECT scan_id, keyword, business_name, center_lat, center_lng, grid_size, radius_km, shape
		FROM public.grid_scans
		WHERE
			status = 'pending'
			AND attempts < 5
			AND keyword IS NOT NULL AND keyword <> ''
		ORDER BY created_at ASC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending scans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			scan  models.ScanTask
			shape string
		)
		if errScan := rows.Scan(
			&scan.ID,
			&scan.Keyword,
			&scan.BusinessName,
			&scan.Center.Latitude,
			&scan.Center.Longitude,
			&scan.GridSize,
			&scan.RadiusKm,
			&shape,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan pending scan row: %w", errScan)
		}
		scan.Shape = models.GridShape(shape)
		r.log.DebugContext(ctx, "A new pending grid scan has been received.",
			"ID", scan.ID, "Keyword", scan.Keyword, "Business", scan.BusinessName)
		scans = append(scans, scan)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return scans, nil
}

// SaveScanResult stores a completed grid estimation for the scan identified
// by scanID: the point collection as JSON, the summary metrics in their own
// columns, and the terminal status. It clears any previous scan error.
func (r *Repository) SaveScanResult(ctx context.Context, scanID int, result *models.GridResult) error {
	points, err := json.Marshal(result.Points)
	if err != nil {
		return fmt.Errorf("failed to encode grid points: %w", err)
	}

	query := `
		UPDATE grid_scans
		SET
			status = $1,
			points = $2,
			avg_first_page_rank = $3,
			grid_rank_mean = $4,
			top_spot_share = $5,
			scan_error = NULL,
			completed_at = now()
		WHERE
			scan_id = $6;
	`

	_, err = r.db.Exec(ctx, query,
		string(result.Status),
		points,
		result.Summary.AverageFirstPageRank,
		result.Summary.TotalGridRankMean,
		result.Summary.TopSpotShare,
		scanID,
	)
	if err != nil {
		return fmt.Errorf("failed to update scan result: %w", err)
	}

	return nil
}

// MarkScanFailed increments the attempt count for a specific scan identified
// by scanID and updates the associated error message. If the update operation
// fails, it returns an error with additional context.
func (r *Repository) MarkScanFailed(ctx context.Context, scanID int, errMsg string) error {
	query := `
		UPDATE grid_scans
		SET
			attempts = attempts + 1,
			scan_error = $1
		WHERE scan_id = $2;
	`

	_, err := r.db.Exec(ctx, query, errMsg, scanID)
	if err != nil {
		return fmt.Errorf("failed to update scan error and number of attempts: %w", err)
	}

	return nil
}
