package source

import (
	"context"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/whitecoat-dvm/outreach-cli/internal/model"
)

// HTTPCSV fetches a CSV export over HTTP, covering remote harvests
// and prior API exports. Requests are rate-limited and retried with
// exponential backoff; 5xx and 429 responses are retried, other
// non-200 statuses fail the source.
type HTTPCSV struct {
	URL        string
	UserAgent  string
	MaxRetries int

	client  *http.Client
	limiter *rate.Limiter
}

// HTTPOption configures an HTTPCSV source.
type HTTPOption func(*HTTPCSV)

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPCSV) {
		s.client = c
	}
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(r rate.Limit, burst int) HTTPOption {
	return func(s *HTTPCSV) {
		s.limiter = rate.NewLimiter(r, burst)
	}
}

// NewHTTPCSV creates a rate-limited HTTP CSV source.
func NewHTTPCSV(url string, opts ...HTTPOption) *HTTPCSV {
	s := &HTTPCSV{
		URL:        url,
		UserAgent:  "outreach-cli/1.0",
		MaxRetries: 3,
		client:     &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(2, 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPCSV) Name() string {
	return "http:" + s.URL
}

func (s *HTTPCSV) Records(ctx context.Context) ([]model.RawRecord, error) {
	var lastErr error
	for attempt := range s.MaxRetries {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "source: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "source: create request")
		}
		req.Header.Set("User-Agent", s.UserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("source: http fetch failed, retrying",
				zap.String("url", s.URL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			s.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("source: http %d from %s", resp.StatusCode, s.URL)
			zap.L().Warn("source: retryable http status",
				zap.String("url", s.URL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			s.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("source: unexpected status %d from %s", resp.StatusCode, s.URL)
		}

		records, err := readCSV(ctx, resp.Body, s.Name())
		_ = resp.Body.Close()
		if err != nil {
			return nil, err
		}
		return records, nil
	}

	return nil, eris.Wrap(lastErr, "source: all retries exhausted")
}

func (s *HTTPCSV) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
