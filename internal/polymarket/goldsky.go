package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"polymarket-hypergraph-lab/internal/observability"
)

// DefaultGoldskyURL is the public orderbook subgraph endpoint.
const DefaultGoldskyURL = "https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/orderbook-subgraph/0.0.1/gn"

// DefaultPageSize is the number of fills fetched per subgraph page.
const DefaultPageSize = 1000

// fillsQueryTemplate fetches one side of the orderbook. SIDE_in is
// replaced with makerAssetId_in or takerAssetId_in before use.
const fillsQueryTemplate = `
query Fills($tokenIds: [String!]!, $first: Int!, $skip: Int!) {
  orderFilledEvents(
    where: { SIDE_in: $tokenIds }
    orderBy: timestamp
    orderDirection: asc
    first: $first
    skip: $skip
  ) {
    id
    timestamp
    transactionHash
    orderHash
    maker
    taker
    makerAssetId
    takerAssetId
    makerAmountFilled
    takerAmountFilled
    fee
  }
}
`

// GoldskyClient fetches historical fills from the Goldsky orderbook subgraph.
type GoldskyClient struct {
	endpoint    string
	client      *http.Client
	pageSize    int
	pageDelay   time.Duration
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// GoldskyOption configures GoldskyClient.
type GoldskyOption func(*GoldskyClient)

// WithGoldskyHTTPClient sets a custom http.Client.
func WithGoldskyHTTPClient(client *http.Client) GoldskyOption {
	return func(c *GoldskyClient) {
		c.client = client
	}
}

// WithPageSize sets the subgraph page size.
func WithPageSize(n int) GoldskyOption {
	return func(c *GoldskyClient) {
		c.pageSize = n
	}
}

// WithPageDelay sets the pause between subgraph pages. The public
// endpoint rate-limits aggressive pagination.
func WithPageDelay(d time.Duration) GoldskyOption {
	return func(c *GoldskyClient) {
		c.pageDelay = d
	}
}

// WithGoldskyMaxRetries sets maximum retry attempts per request.
func WithGoldskyMaxRetries(n int) GoldskyOption {
	return func(c *GoldskyClient) {
		c.maxRetries = n
	}
}

// NewGoldskyClient creates a new subgraph client. An empty endpoint uses
// the public Goldsky deployment.
func NewGoldskyClient(endpoint string, opts ...GoldskyOption) *GoldskyClient {
	if endpoint == "" {
		endpoint = DefaultGoldskyURL
	}
	c := &GoldskyClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		pageSize:    DefaultPageSize,
		pageDelay:   100 * time.Millisecond,
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

// FetchAllFills retrieves every fill touching the given outcome tokens.
// Both the maker and taker side are queried, results are deduplicated by
// subgraph event id and sorted by (timestamp, id) ascending.
func (c *GoldskyClient) FetchAllFills(ctx context.Context, tokenIDs []string) ([]RawFill, error) {
	makerSide, err := c.fetchSide(ctx, tokenIDs, "makerAssetId")
	if err != nil {
		return nil, fmt.Errorf("fetch maker side: %w", err)
	}
	takerSide, err := c.fetchSide(ctx, tokenIDs, "takerAssetId")
	if err != nil {
		return nil, fmt.Errorf("fetch taker side: %w", err)
	}

	byID := make(map[string]RawFill, len(makerSide)+len(takerSide))
	for _, row := range makerSide {
		byID[row.ID] = row
	}
	for _, row := range takerSide {
		byID[row.ID] = row
	}

	fills := make([]RawFill, 0, len(byID))
	for _, row := range byID {
		fills = append(fills, row)
	}
	sort.Slice(fills, func(i, j int) bool {
		ti := parseTimestamp(fills[i].Timestamp)
		tj := parseTimestamp(fills[j].Timestamp)
		if ti != tj {
			return ti < tj
		}
		return fills[i].ID < fills[j].ID
	})

	return fills, nil
}

// fetchSide pages through one side (maker or taker) of the orderbook.
func (c *GoldskyClient) fetchSide(ctx context.Context, tokenIDs []string, sideField string) ([]RawFill, error) {
	query := strings.ReplaceAll(fillsQueryTemplate, "SIDE_in", sideField+"_in")

	var all []RawFill
	skip := 0
	for {
		rows, err := c.queryFills(ctx, query, tokenIDs, c.pageSize, skip)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)

		if len(rows) < c.pageSize {
			return all, nil
		}
		skip += c.pageSize

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pageDelay):
		}
	}
}

// gqlRequest is the GraphQL POST body.
type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// gqlResponse is the GraphQL response envelope.
type gqlResponse struct {
	Data struct {
		OrderFilledEvents []RawFill `json:"orderFilledEvents"`
	} `json:"data"`
	Errors []gqlError `json:"errors,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

func (e gqlError) Error() string {
	return fmt.Sprintf("graphql error: %s", e.Message)
}

// queryFills performs one GraphQL POST with retries and exponential backoff.
func (c *GoldskyClient) queryFills(ctx context.Context, query string, tokenIDs []string, first, skip int) ([]RawFill, error) {
	body, err := json.Marshal(gqlRequest{
		Query: query,
		Variables: map[string]interface{}{
			"tokenIds": tokenIDs,
			"first":    first,
			"skip":     skip,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := c.client.Do(req)
		observability.RecordFetchCall("goldsky", time.Since(start).Seconds())
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var gr gqlResponse
		if err := json.Unmarshal(respBody, &gr); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		// GraphQL errors are not retried
		if len(gr.Errors) > 0 {
			return nil, gr.Errors[0]
		}

		return gr.Data.OrderFilledEvents, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func parseTimestamp(s string) int64 {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}
