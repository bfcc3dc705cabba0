package serp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DataForSEOBaseURL is the DataForSEO API base URL.
const DataForSEOBaseURL = "https://api.dataforseo.com"

// Task queue polling parameters. DataForSEO queues SERP tasks and exposes the
// results once crawling completes, so the provider posts a task and then polls
// with a bounded number of attempts and a fixed backoff.
const (
	defaultPollAttempts = 3
	defaultPollBackoff  = 5 * time.Second
)

// DataForSEOProvider implements ranking lookups using the DataForSEO SERP API.
type DataForSEOProvider struct {
	client       HTTPClient    // HTTP client for making requests
	baseURL      string        // Base URL for the DataForSEO API
	login        string        // API login for basic auth
	password     string        // API password for basic auth
	log          *slog.Logger  // Logger for logging operations
	limiter      *rate.Limiter // Rate limiter
	pollAttempts int           // Maximum number of task_get polls
	pollBackoff  time.Duration // Fixed delay between polls
}

// Common errors for the DataForSEO provider.
var (
	ErrDataForSEOEmptyResponse = errors.New("dataforseo API returned empty response")
	ErrDataForSEOUnauthorized  = errors.New("dataforseo API unauthorized (invalid credentials)")
	ErrDataForSEOTaskNotReady  = errors.New("dataforseo task results not ready")
	ErrDataForSEOTaskFailed    = errors.New("dataforseo task finished with an error status")
)

// dataForSEOTaskPost is the body of one task in a task_post request.
type dataForSEOTaskPost struct {
	Keyword      string `json:"keyword"`
	LocationName string `json:"location_name,omitempty"`
	LanguageCode string `json:"language_code"`
	Depth        int    `json:"depth"`
}

// dataForSEOResponse is the envelope shared by task_post and task_get replies
// (simplified for the ranking use-case).
type dataForSEOResponse struct {
	StatusCode int `json:"status_code"`
	Tasks      []struct {
		ID         string `json:"id"`
		StatusCode int    `json:"status_code"`
		Result     []struct {
			Items []struct {
				Type         string `json:"type"`
				RankAbsolute int    `json:"rank_absolute"`
				Title        string `json:"title"`
			} `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

// Status codes of interest. 20000 marks success both on the response envelope
// and on an individual task; 406xx codes mean the task is still crawling.
const (
	statusOK             = 20000
	statusTaskInQueue    = 40601
	statusTaskInProgress = 40602
)

// NewDataForSEOProvider creates a new DataForSEO ranking provider.
func NewDataForSEOProvider(login, password string, rateLimit int, log *slog.Logger) *DataForSEOProvider {
	const timeout = 30

	return &DataForSEOProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL:      DataForSEOBaseURL,
		login:        login,
		password:     password,
		log:          log,
		limiter:      rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		pollAttempts: defaultPollAttempts,
		pollBackoff:  defaultPollBackoff,
	}
}

// NewDataForSEOProviderWithClient allows injecting a custom HTTP client,
// limiter and polling policy. Useful for testing without real backoff delays.
func NewDataForSEOProviderWithClient(
	client HTTPClient,
	baseURL, login, password string,
	limiter *rate.Limiter,
	pollAttempts int,
	pollBackoff time.Duration,
	log *slog.Logger,
) *DataForSEOProvider {
	return &DataForSEOProvider{
		client:       client,
		baseURL:      baseURL,
		login:        login,
		password:     password,
		log:          log,
		limiter:      limiter,
		pollAttempts: pollAttempts,
		pollBackoff:  pollBackoff,
	}
}

// FindRanking posts a keyword search task for the given location, polls for
// its completion and returns the 1-based absolute rank of the first result
// whose title matches the business name. Returns ErrBusinessNotFound if the
// crawl completed without a matching result.
func (dp *DataForSEOProvider) FindRanking(
	ctx context.Context,
	keyword, businessName, locationContext string,
) (int, error) {
	if keyword == "" {
		return 0, ErrEmptyKeyword
	}
	if businessName == "" {
		return 0, ErrEmptyBusinessName
	}

	if err := dp.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit exceeded: %w", err)
	}

	dp.log.DebugContext(ctx, "Looking up ranking using DataForSEO",
		"keyword", keyword, "business", businessName, "location", locationContext)

	taskID, err := dp.postTask(ctx, keyword, locationContext)
	if err != nil {
		return 0, err
	}

	// Bounded polling with fixed backoff. Attempts exhausted means the crawl
	// is still running; the caller treats that as a transient failure.
	var lastErr error
	for attempt := 1; attempt <= dp.pollAttempts; attempt++ {
		rank, pollErr := dp.fetchTaskResult(ctx, taskID, businessName)
		if pollErr == nil {
			return rank, nil
		}
		if !errors.Is(pollErr, ErrDataForSEOTaskNotReady) {
			return 0, pollErr
		}
		lastErr = pollErr

		dp.log.DebugContext(ctx, "DataForSEO task not ready, backing off",
			"task_id", taskID, "attempt", attempt)

		if attempt == dp.pollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("polling cancelled: %w", ctx.Err())
		case <-time.After(dp.pollBackoff):
		}
	}

	return 0, fmt.Errorf("task %s polling exhausted after %d attempts: %w",
		taskID, dp.pollAttempts, lastErr)
}

// postTask submits one keyword search task and returns its identifier.
func (dp *DataForSEOProvider) postTask(ctx context.Context, keyword, locationContext string) (string, error) {
	const serpDepth = 100

	body, err := json.Marshal([]dataForSEOTaskPost{{
		Keyword:      keyword,
		LocationName: locationContext,
		LanguageCode: "en",
		Depth:        serpDepth,
	}})
	if err != nil {
		return "", fmt.Errorf("failed to encode task body: %w", err)
	}

	resp, err := dp.do(ctx, http.MethodPost, dp.baseURL+"/v3/serp/google/organic/task_post", body)
	if err != nil {
		return "", err
	}

	if len(resp.Tasks) == 0 {
		return "", ErrDataForSEOEmptyResponse
	}
	if resp.Tasks[0].ID == "" {
		return "", fmt.Errorf("%w: task id missing", ErrDataForSEOEmptyResponse)
	}

	dp.log.DebugContext(ctx, "DataForSEO task created", "task_id", resp.Tasks[0].ID)

	return resp.Tasks[0].ID, nil
}

// fetchTaskResult retrieves a completed task and matches the business name
// against the organic result titles, exact match first, token overlap second.
func (dp *DataForSEOProvider) fetchTaskResult(ctx context.Context, taskID, businessName string) (int, error) {
	resp, err := dp.do(ctx, http.MethodGet,
		dp.baseURL+"/v3/serp/google/organic/task_get/regular/"+taskID, nil)
	if err != nil {
		return 0, err
	}

	if len(resp.Tasks) == 0 {
		return 0, ErrDataForSEOEmptyResponse
	}

	task := resp.Tasks[0]
	switch task.StatusCode {
	case statusTaskInQueue, statusTaskInProgress:
		return 0, ErrDataForSEOTaskNotReady
	case statusOK:
		// continue
	default:
		// A task-level error, e.g. 40501 "task handed error". Only a
		// successfully crawled task may conclude the business is absent.
		return 0, fmt.Errorf("%w: task status %d", ErrDataForSEOTaskFailed, task.StatusCode)
	}

	if len(task.Result) == 0 {
		return 0, ErrBusinessNotFound
	}

	for _, item := range task.Result[0].Items {
		if item.Type != "organic" {
			continue
		}
		if MatchBusinessName(item.Title, businessName) {
			dp.log.InfoContext(ctx, "DataForSEO found ranking",
				"business", businessName, "rank", item.RankAbsolute)
			return item.RankAbsolute, nil
		}
	}

	return 0, ErrBusinessNotFound
}

// do executes one authenticated API call and decodes the shared envelope.
func (dp *DataForSEOProvider) do(ctx context.Context, method, url string, body []byte) (*dataForSEOResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(dp.login, dp.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := dp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ranking request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrDataForSEOUnauthorized
	default:
		raw, _ := io.ReadAll(resp.Body)
		dp.log.ErrorContext(ctx, "DataForSEO API error", "status", resp.StatusCode, "body", string(raw))
		return nil, fmt.Errorf("dataforseo API returned status %d: %s", resp.StatusCode, string(raw))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var decoded dataForSEOResponse
	if err = json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode dataforseo response: %w", err)
	}

	// API errors can arrive with HTTP 200 and an error envelope status.
	if decoded.StatusCode != statusOK {
		return nil, fmt.Errorf("dataforseo API returned error status %d", decoded.StatusCode)
	}

	return &decoded, nil
}
