package records

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/formulary/backend/internal/domain"
	"github.com/formulary/backend/internal/infrastructure/logging"
	"golang.org/x/time/rate"
)

const maxAttempts = 3

// RemoteConfig configures a RemoteSource
type RemoteConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// RemoteSource fetches herb and formula documents from an HTTP document API
// exposing GET {base}/herbs and GET {base}/formulas, each returning a JSON array.
type RemoteSource struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	backoffBase time.Duration
	logger      logging.Logger
}

// NewRemoteSource creates a new remote document source
func NewRemoteSource(cfg RemoteConfig, logger logging.Logger) *RemoteSource {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &RemoteSource{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		backoffBase: 500 * time.Millisecond,
		logger:      logger.Named("remote"),
	}
}

// exponentialBackoff returns the wait before retrying after the given attempt.
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<(attempt-1))
}

// ListHerbs fetches the herb collection.
func (s *RemoteSource) ListHerbs(ctx context.Context) ([]domain.HerbRecord, error) {
	herbs := make([]domain.HerbRecord, 0)
	if err := s.fetchCollection(ctx, CollectionHerbs, &herbs); err != nil {
		return nil, err
	}
	return herbs, nil
}

// ListFormulas fetches the formula collection.
func (s *RemoteSource) ListFormulas(ctx context.Context) ([]domain.FormulaRecord, error) {
	formulas := make([]domain.FormulaRecord, 0)
	if err := s.fetchCollection(ctx, CollectionFormulas, &formulas); err != nil {
		return nil, err
	}
	return formulas, nil
}

// doRequest executes an HTTP GET request with proper headers
func (s *RemoteSource) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Formulary/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRecordSourceFailure, err)
	}
	return resp, nil
}

// fetchCollection GETs one collection into dest. Transport errors, 429 and 5xx
// are retried; 404 leaves dest empty; other 4xx fail immediately.
func (s *RemoteSource) fetchCollection(ctx context.Context, collection string, dest interface{}) error {
	reqURL := fmt.Sprintf("%s/%s", s.baseURL, collection)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, exponentialBackoff(s.backoffBase, attempt-1)); err != nil {
				return err
			}
		}

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := s.doRequest(ctx, reqURL)
		if err != nil {
			s.logger.Warn("request failed",
				logging.String("collection", collection),
				logging.Int("attempt", attempt),
				logging.Err(err))
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			s.logger.Info("collection not found, treating as empty", logging.String("collection", collection))
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			s.logger.Warn("retryable status",
				logging.String("collection", collection),
				logging.Int("attempt", attempt),
				logging.Int("status", resp.StatusCode))
			lastErr = fmt.Errorf("%w: %s status %d", domain.ErrRecordSourceFailure, collection, resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("%w: %s status %d: %s", domain.ErrRecordSourceFailure, collection, resp.StatusCode, truncate(string(body), 200))
		}

		if readErr != nil {
			lastErr = fmt.Errorf("%w: read %s: %v", domain.ErrRecordSourceFailure, collection, readErr)
			continue
		}

		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("%w: decode %s: %v", domain.ErrRecordSourceFailure, collection, err)
		}

		s.logger.Debug("fetched collection", logging.String("collection", collection), logging.Int("bytes", len(body)))
		return nil
	}

	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
