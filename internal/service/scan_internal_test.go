package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/LocalLens/gridrank/internal/metrics"
	"github.com/LocalLens/gridrank/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mockRepository is a mock implementation of repository.Interface.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) FetchPendingScans(ctx context.Context, limit int) ([]models.ScanTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScanTask), args.Error(1)
}

func (m *mockRepository) SaveScanResult(ctx context.Context, scanID int, result *models.GridResult) error {
	args := m.Called(ctx, scanID, result)
	return args.Error(0)
}

func (m *mockRepository) MarkScanFailed(ctx context.Context, scanID int, errMsg string) error {
	args := m.Called(ctx, scanID, errMsg)
	return args.Error(0)
}

// mockEstimator is a mock implementation of GridEstimator.
type mockEstimator struct {
	mock.Mock
}

func (m *mockEstimator) Estimate(ctx context.Context, req models.GridRequest) (*models.GridResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GridResult), args.Error(1)
}

func TestProcessScans(t *testing.T) {
	mockRepo := &mockRepository{}
	mockEst := &mockEstimator{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)
	ctx := t.Context()
	service := NewScanService(logger, mockRepo, mockEst, "dataforseo", appMetrics, 2, 1*time.Second)

	sampleScan := models.ScanTask{
		ID:           1,
		Keyword:      "plumber",
		BusinessName: "Acme Plumbing",
		Center:       models.GeoPoint{Latitude: 37.7749, Longitude: -122.4194},
		GridSize:     5,
		RadiusKm:     5,
		Shape:        models.ShapeCircular,
	}
	sampleRequest := models.GridRequest{
		Keyword:      sampleScan.Keyword,
		BusinessName: sampleScan.BusinessName,
		Center:       sampleScan.Center,
		GridSize:     sampleScan.GridSize,
		RadiusKm:     sampleScan.RadiusKm,
		Shape:        sampleScan.Shape,
	}

	t.Run("successful processing", func(t *testing.T) {
		sampleResult := &models.GridResult{
			Points: []models.GridPoint{{SequenceID: 1, Rank: 3}},
			Summary: models.GridSummary{
				AverageFirstPageRank: 3, TotalGridRankMean: 3, TopSpotShare: 100,
			},
			Status: models.GridStatusOK,
		}

		mockRepo.On("FetchPendingScans", ctx, 100).Return([]models.ScanTask{sampleScan}, nil).Once()
		mockEst.On("Estimate", ctx, sampleRequest).Return(sampleResult, nil).Once()
		mockRepo.On("SaveScanResult", ctx, 1, sampleResult).Return(nil).Once()

		service.processScans(ctx)

		mockRepo.AssertExpectations(t)
		mockEst.AssertExpectations(t)
	})

	t.Run("not found grid is persisted as terminal", func(t *testing.T) {
		notFoundResult := &models.GridResult{
			Points: []models.GridPoint{{SequenceID: 1, Rank: models.RankNotFound}},
			Status: models.GridStatusNotFound,
		}

		mockRepo.On("FetchPendingScans", ctx, 100).Return([]models.ScanTask{sampleScan}, nil).Once()
		mockEst.On("Estimate", ctx, sampleRequest).Return(notFoundResult, nil).Once()
		mockRepo.On("SaveScanResult", ctx, 1, notFoundResult).Return(nil).Once()

		service.processScans(ctx)

		mockRepo.AssertExpectations(t)
		mockEst.AssertExpectations(t)
	})

	t.Run("fetch scans return error", func(t *testing.T) {
		mockRepo.On("FetchPendingScans", ctx, 100).Return(nil, assert.AnError).Once()

		service.processScans(ctx)

		mockRepo.AssertExpectations(t)
		mockEst.AssertExpectations(t)
	})

	t.Run("fetch scans return empty list", func(t *testing.T) {
		mockRepo.On("FetchPendingScans", ctx, 100).Return([]models.ScanTask{}, nil).Once()

		service.processScans(ctx)

		mockRepo.AssertExpectations(t)
		mockEst.AssertExpectations(t)
	})

	t.Run("estimator returns validation error", func(t *testing.T) {
		estimateErr := errors.New("keyword must not be empty")

		mockRepo.On("FetchPendingScans", ctx, 100).Return([]models.ScanTask{sampleScan}, nil).Once()
		mockEst.On("Estimate", ctx, sampleRequest).Return(nil, estimateErr).Once()
		mockRepo.On("MarkScanFailed", ctx, 1, estimateErr.Error()).Return(nil).Once()

		service.processScans(ctx)

		mockRepo.AssertExpectations(t)
		mockEst.AssertExpectations(t)
	})

	t.Run("unavailable estimation marks scan for retry", func(t *testing.T) {
		unavailableResult := &models.GridResult{
			Points: []models.GridPoint{{SequenceID: 1, Rank: models.RankNotFound}},
			Status: models.GridStatusUnavailable,
		}

		mockRepo.On("FetchPendingScans", ctx, 100).Return([]models.ScanTask{sampleScan}, nil).Once()
		mockEst.On("Estimate", ctx, sampleRequest).Return(unavailableResult, nil).Once()
		mockRepo.On("MarkScanFailed", ctx, 1, "ranking lookup unavailable").Return(nil).Once()

		service.processScans(ctx)

		mockRepo.AssertExpectations(t)
		mockEst.AssertExpectations(t)
	})

	t.Run("error to mark scan failed", func(t *testing.T) {
		mockRepo.On("FetchPendingScans", ctx, 100).Return([]models.ScanTask{sampleScan}, nil).Once()
		mockEst.On("Estimate", ctx, sampleRequest).Return(nil, assert.AnError).Once()
		mockRepo.On("MarkScanFailed", ctx, 1, assert.AnError.Error()).Return(assert.AnError).Once()

		service.processScans(ctx)

		mockRepo.AssertExpectations(t)
		mockEst.AssertExpectations(t)
	})

	t.Run("error to save scan result", func(t *testing.T) {
		sampleResult := &models.GridResult{
			Points: []models.GridPoint{{SequenceID: 1, Rank: 3}},
			Status: models.GridStatusOK,
		}

		mockRepo.On("FetchPendingScans", ctx, 100).Return([]models.ScanTask{sampleScan}, nil).Once()
		mockEst.On("Estimate", ctx, sampleRequest).Return(sampleResult, nil).Once()
		mockRepo.On("SaveScanResult", ctx, 1, sampleResult).Return(assert.AnError).Once()

		service.processScans(ctx)

		mockRepo.AssertExpectations(t)
		mockEst.AssertExpectations(t)
	})

	t.Run("start context cancelled", func(t *testing.T) {
		tctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()

		service.Run(tctx)
	})
}
