package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LocalLens/gridrank/internal/metrics"
	"github.com/LocalLens/gridrank/internal/models"
	"github.com/LocalLens/gridrank/internal/repository"
)

// GridEstimator runs one grid estimation. Implemented by estimator.Estimator.
type GridEstimator interface {
	Estimate(ctx context.Context, req models.GridRequest) (*models.GridResult, error)
}

// ScanService drains the queue of pending grid scans, runs the estimator for
// each and persists the resulting grids. It owns the polling loop, the worker
// pool, and the metrics around both.
type ScanService struct {
	log          *slog.Logger         // Logger for logging service activities
	repo         repository.Interface // Interface for data repository access
	estimator    GridEstimator        // Estimator producing scored grids
	providerName string               // Name of the ranking provider for metrics labeling
	metrics      *metrics.Metrics     // Metrics for tracking service performance
	numWorkers   int                  // Number of concurrent workers for processing
	pollInterval time.Duration        // Interval for polling pending scans
}

// NewScanService creates a new instance of ScanService. It takes a logger, a
// repository interface, a grid estimator, the provider name for metrics, the
// metrics themselves, the number of workers to use, and a polling interval.
func NewScanService(
	log *slog.Logger,
	repo repository.Interface,
	est GridEstimator,
	providerName string,
	appMetrics *metrics.Metrics,
	numWorkers int,
	pollInterval time.Duration,
) *ScanService {
	return &ScanService{
		log:          log,
		repo:         repo,
		estimator:    est,
		providerName: providerName,
		metrics:      appMetrics,
		numWorkers:   numWorkers,
		pollInterval: pollInterval,
	}
}

// Run starts the scan service, which periodically polls for new grid scans to
// process. It listens for a cancellation signal from the context to
// gracefully stop the service.
func (ss *ScanService) Run(ctx context.Context) {
	ticker := time.NewTicker(ss.pollInterval)
	defer ticker.Stop()

	ss.log.InfoContext(ctx, "Grid scan service started...")

	for {
		select {
		case <-ctx.Done():
			ss.log.InfoContext(ctx, "Grid scan service stopped.")
			return
		case <-ticker.C:
			ss.log.InfoContext(ctx, "Polling for pending grid scans...")
			ss.processScans(ctx)
		}
	}
}

// processScans fetches pending scans from the repository, starts a worker
// pool to process them, and waits for all workers to finish. It logs errors
// if fetching fails and logs the status of batch processing.
func (ss *ScanService) processScans(ctx context.Context) {
	scanLimit := 100
	scans, err := ss.repo.FetchPendingScans(ctx, scanLimit)
	if err != nil {
		ss.log.ErrorContext(ctx, "Failed to fetch pending scans", "error", err)
		return
	}
	if len(scans) == 0 {
		ss.log.InfoContext(ctx, "No scans to process.")
		return
	}

	ss.log.InfoContext(
		ctx,
		"Found scans to process. Starting worker pool.",
		"jobs",
		len(scans),
		"num_workers",
		ss.numWorkers,
	)

	jobs := make(chan models.ScanTask, len(scans))
	var wgr sync.WaitGroup

	for i := 1; i <= ss.numWorkers; i++ {
		wgr.Add(1)
		go ss.worker(ctx, i, &wgr, jobs)
	}

	for _, scan := range scans {
		jobs <- scan
	}
	close(jobs)

	wgr.Wait()
	ss.log.InfoContext(ctx, "Processing batch finished")
}

// worker processes scans from the jobs channel. It increments the active
// worker count, runs the estimator for each scan and measures the time taken.
// A validation failure marks the scan failed and increments its attempt
// count; an unavailable estimation does the same so the scan is retried on a
// later poll. Completed grids, including confirmed not-found ones, are
// persisted as terminal results.
func (ss *ScanService) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan models.ScanTask) {
	defer wg.Done()
	for scan := range jobs {
		ss.metrics.ActiveWorkers.Inc()
		ss.log.DebugContext(ctx, "Processing scan", "worker", idx, "scan", scan.ID)

		req := models.GridRequest{
			Keyword:      scan.Keyword,
			BusinessName: scan.BusinessName,
			Center:       scan.Center,
			GridSize:     scan.GridSize,
			RadiusKm:     scan.RadiusKm,
			Shape:        scan.Shape,
		}

		startTime := time.Now()
		result, err := ss.estimator.Estimate(ctx, req)
		duration := time.Since(startTime).Seconds()
		ss.metrics.RequestSeconds.WithLabelValues(ss.providerName).Observe(duration)

		if err != nil {
			ss.log.ErrorContext(ctx, "Failed to estimate grid", "worker", idx, "scan", scan.ID, "error", err)
			ss.metrics.ScansProcessed.WithLabelValues("failure").Inc()

			if err = ss.repo.MarkScanFailed(ctx, scan.ID, err.Error()); err != nil {
				ss.log.ErrorContext(
					ctx,
					"Could not update failure count for scan",
					"worker", idx,
					"scan", scan.ID,
					"error", err,
				)
			}
			ss.metrics.ActiveWorkers.Dec()
			continue
		}

		if result.Status == models.GridStatusUnavailable {
			ss.log.WarnContext(ctx, "Estimation unavailable, scan will be retried",
				"worker", idx, "scan", scan.ID)
			ss.metrics.ScansProcessed.WithLabelValues("unavailable").Inc()
			ss.metrics.LookupErrors.Inc()

			if err = ss.repo.MarkScanFailed(ctx, scan.ID, "ranking lookup unavailable"); err != nil {
				ss.log.ErrorContext(
					ctx,
					"Could not update failure count for scan",
					"worker", idx,
					"scan", scan.ID,
					"error", err,
				)
			}
			ss.metrics.ActiveWorkers.Dec()
			continue
		}

		ss.metrics.ScansProcessed.WithLabelValues("success").Inc()

		if err = ss.repo.SaveScanResult(ctx, scan.ID, result); err != nil {
			ss.log.ErrorContext(
				ctx,
				"Failed to save result for scan",
				"worker", idx,
				"scan", scan.ID,
				"error", err,
			)
		} else {
			ss.log.DebugContext(ctx, "Worker successfully processed the scan", "worker", idx, "scan", scan.ID)
		}

		ss.metrics.ActiveWorkers.Dec()
	}
}
