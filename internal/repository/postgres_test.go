package repository_test

import (
	"log/slog"
	"regexp"
	"testing"

	"github.com/LocalLens/gridrank/internal/models"
	"github.com/LocalLens/gridrank/internal/repository"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fetchScansQuery = `
	SELECT scan_id, keyword, business_name, center_lat, center_lng, grid_size, radius_km, shape
	FROM public.grid_scans
	WHERE
		status = 'pending'
		AND attempts < 5
		AND keyword IS NOT NULL AND keyword <> ''
	ORDER BY created_at ASC
	LIMIT $1;
`

const saveResultQuery = `
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

const markFailedQuery = `
	UPDATE grid_scans
	SET
		attempts = attempts + 1,
		scan_error = $1
	WHERE scan_id = $2;
`

var scanColumns = []string{
	"scan_id", "keyword", "business_name", "center_lat", "center_lng", "grid_size", "radius_km", "shape",
}

func TestFetchPendingScans(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	limit := 10

	t.Run("error - query pending scans", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchScansQuery)).
			WithArgs(limit).
			WillReturnError(assert.AnError)

		scans, err := repo.FetchPendingScans(ctx, limit)

		require.Nil(t, scans)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to query pending scans")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - scan pending scan row", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchScansQuery)).
			WithArgs(limit).
			WillReturnRows(
				pgxmock.NewRows(scanColumns).
					AddRow("invalid_id", "plumber", "Acme Plumbing", 37.7749, -122.4194, 5, 5.0, "circular"),
			)

		scans, err := repo.FetchPendingScans(ctx, limit)

		require.Nil(t, scans)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to scan pending scan row")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - rows error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchScansQuery)).
			WithArgs(limit).
			WillReturnRows(
				pgxmock.NewRows(scanColumns).
					AddRow(123, "plumber", "Acme Plumbing", 37.7749, -122.4194, 5, 5.0, "circular").
					RowError(1, assert.AnError),
			)

		scans, err := repo.FetchPendingScans(ctx, limit)

		require.Nil(t, scans)
		require.Error(t, err)
		require.ErrorContains(t, err, "failed to read row")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success - fetch pending scans", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta(fetchScansQuery)).
			WithArgs(limit).
			WillReturnRows(
				pgxmock.NewRows(scanColumns).
					AddRow(123, "plumber", "Acme Plumbing", 37.7749, -122.4194, 5, 5.0, "circular"),
			)

		scans, err := repo.FetchPendingScans(ctx, limit)

		require.NoError(t, err)
		require.Len(t, scans, 1)
		scan := scans[0]

		assert.Equal(t, 123, scan.ID)
		assert.Equal(t, "plumber", scan.Keyword)
		assert.Equal(t, "Acme Plumbing", scan.BusinessName)
		assert.InEpsilon(t, 37.7749, scan.Center.Latitude, 1e-9)
		assert.InEpsilon(t, -122.4194, scan.Center.Longitude, 1e-9)
		assert.Equal(t, 5, scan.GridSize)
		assert.InEpsilon(t, 5.0, scan.RadiusKm, 1e-9)
		assert.Equal(t, models.ShapeCircular, scan.Shape)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSaveScanResult(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	sampleResult := &models.GridResult{
		Points: []models.GridPoint{
			{
				GeoPoint:   models.GeoPoint{Latitude: 37.7749, Longitude: -122.4194},
				SequenceID: 1,
				Rank:       3,
			},
		},
		Summary: models.GridSummary{
			AverageFirstPageRank: 3,
			TotalGridRankMean:    3,
			TopSpotShare:         100,
		},
		Status: models.GridStatusOK,
	}

	t.Run("success - save result", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(saveResultQuery)).
			WithArgs("ok", pgxmock.AnyArg(), 3.0, 3.0, 100.0, 55).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.SaveScanResult(ctx, 55, sampleResult)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - update fails", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(saveResultQuery)).
			WithArgs("ok", pgxmock.AnyArg(), 3.0, 3.0, 100.0, 55).
			WillReturnError(assert.AnError)

		err = repo.SaveScanResult(ctx, 55, sampleResult)

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to update scan result")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkScanFailed(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("success - mark failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(markFailedQuery)).
			WithArgs("ranking lookup unavailable", 55).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.MarkScanFailed(ctx, 55, "ranking lookup unavailable")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - update fails", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta(markFailedQuery)).
			WithArgs("boom", 55).
			WillReturnError(assert.AnError)

		err = repo.MarkScanFailed(ctx, 55, "boom")

		require.Error(t, err)
		require.ErrorContains(t, err, "failed to update scan error and number of attempts")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
