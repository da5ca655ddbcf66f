package riddle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"command-bot/backend/pkg/logger"
	"command-bot/backend/pkg/resilience"
)

// ErrFetch is returned when no riddle could be obtained from the provider
var ErrFetch = errors.New("riddle fetch failed")

// Riddle is a question with its expected answer
type Riddle struct {
	Question string `json:"riddle"`
	Answer   string `json:"answer"`
}

// Fetcher obtains new riddles
type Fetcher interface {
	Fetch(ctx context.Context) (Riddle, error)
}

// FetcherConfig configures an HTTPFetcher
type FetcherConfig struct {
	URL     string
	Timeout time.Duration
	Retries int
}

// HTTPFetcher reads riddles from a JSON endpoint returning {riddle, answer}
type HTTPFetcher struct {
	url     string
	client  *retryablehttp.Client
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

// NewHTTPFetcher creates a fetcher with retries and a circuit breaker
func NewHTTPFetcher(cfg FetcherConfig, log *logger.Logger) *HTTPFetcher {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("riddle-fetcher")

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = log.Logger

	return &HTTPFetcher{
		url:     cfg.URL,
		client:  client,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultConfig("riddle-api"), log),
		log:     log,
	}
}

// Breaker exposes the fetcher's circuit breaker for health reporting
func (f *HTTPFetcher) Breaker() *resilience.CircuitBreaker {
	return f.breaker
}

// Fetch requests one riddle
func (f *HTTPFetcher) Fetch(ctx context.Context) (Riddle, error) {
	var r Riddle
	err := f.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		r, err = f.fetch(ctx)
		return err
	})
	if err != nil {
		f.log.LogError(err, "failed to fetch riddle", "url", f.url)
		return Riddle{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return r, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context) (Riddle, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Riddle{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Riddle{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Riddle{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var r Riddle
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&r); err != nil {
		return Riddle{}, fmt.Errorf("decode response: %w", err)
	}
	r.Question = strings.TrimSpace(r.Question)
	r.Answer = strings.TrimSpace(r.Answer)
	if r.Question == "" || r.Answer == "" {
		return Riddle{}, errors.New("provider returned an incomplete riddle")
	}
	return r, nil
}
