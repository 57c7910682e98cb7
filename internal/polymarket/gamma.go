package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultGammaBaseURL = "https://gamma-api.polymarket.com"
	DefaultTimeout      = 60 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 1 * time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultBackoffMult  = 2.0
)

// ErrMarketNotFound indicates the Gamma API has no market or event
// for the requested slug.
var ErrMarketNotFound = errors.New("polymarket: market not found")

// GammaClient fetches market and event metadata from the Gamma API.
type GammaClient struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// GammaOption configures GammaClient.
type GammaOption func(*GammaClient)

// WithGammaHTTPClient sets a custom http.Client.
func WithGammaHTTPClient(client *http.Client) GammaOption {
	return func(c *GammaClient) {
		c.client = client
	}
}

// WithGammaTimeout sets the HTTP client timeout.
func WithGammaTimeout(d time.Duration) GammaOption {
	return func(c *GammaClient) {
		c.client.Timeout = d
	}
}

// WithGammaMaxRetries sets maximum retry attempts.
func WithGammaMaxRetries(n int) GammaOption {
	return func(c *GammaClient) {
		c.maxRetries = n
	}
}

// WithGammaRetryDelay sets the initial retry delay.
func WithGammaRetryDelay(d time.Duration) GammaOption {
	return func(c *GammaClient) {
		c.retryDelay = d
	}
}

// NewGammaClient creates a new Gamma API client. An empty baseURL uses
// the public endpoint.
func NewGammaClient(baseURL string, opts ...GammaOption) *GammaClient {
	if baseURL == "" {
		baseURL = DefaultGammaBaseURL
	}
	c := &GammaClient{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMarket retrieves one market's metadata by slug.
func (c *GammaClient) FetchMarket(ctx context.Context, slug string) (*domain.Market, error) {
	var gm gammaMarket
	if err := c.getJSON(ctx, "/markets/slug/"+slug, &gm); err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", slug, err)
	}
	if gm.Slug == "" {
		gm.Slug = slug
	}
	return gm.toDomain(), nil
}

// FetchEvent retrieves an event and its member markets by event slug.
// Markets are sorted by volume descending, so the first entry is the
// most traded market of the event.
func (c *GammaClient) FetchEvent(ctx context.Context, slug string) (*domain.Event, error) {
	var ge gammaEvent
	if err := c.getJSON(ctx, "/events/slug/"+slug, &ge); err != nil {
		return nil, fmt.Errorf("fetch event %s: %w", slug, err)
	}

	event := &domain.Event{
		Slug:        ge.Slug,
		Title:       ge.Title,
		Description: ge.Description,
	}
	if event.Slug == "" {
		event.Slug = slug
	}

	for _, gm := range ge.Markets {
		event.Markets = append(event.Markets, *gm.toDomain())
	}
	sort.SliceStable(event.Markets, func(i, j int) bool {
		return marketVolume(&event.Markets[i]) > marketVolume(&event.Markets[j])
	})

	return event, nil
}

// ExtractMarketIDs pulls the condition id, the two outcome token ids and
// the outcome names out of a market. Markets with a token count other
// than two are rejected. Missing outcome names default to Yes/No.
func ExtractMarketIDs(m *domain.Market) (conditionID string, tokenIDs, outcomes []string, err error) {
	if len(m.ClobTokenIDs) != 2 {
		return "", nil, nil, fmt.Errorf("expected 2 clobTokenIds for %s, got %d", m.Slug, len(m.ClobTokenIDs))
	}
	outcomes = m.Outcomes
	if len(outcomes) != 2 {
		outcomes = []string{"Yes", "No"}
	}
	return m.ConditionID, m.ClobTokenIDs, outcomes, nil
}

func marketVolume(m *domain.Market) float64 {
	v, err := strconv.ParseFloat(m.Volume, 64)
	if err != nil {
		return 0
	}
	return v
}

// getJSON performs a GET with retries and exponential backoff.
func (c *GammaClient) getJSON(ctx context.Context, path string, out interface{}) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.client.Do(req)
		observability.RecordFetchCall("gamma", time.Since(start).Seconds())
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Not found is terminal, not a transient failure
		if resp.StatusCode == http.StatusNotFound {
			return ErrMarketNotFound
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
