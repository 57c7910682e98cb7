package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"polymarket-hypergraph-lab/internal/domain"
)

func TestGammaClient_FetchMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/slug/will-btc-hit-100k" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		// clobTokenIds arrives as a JSON string, outcomes as a real array,
		// volume as a number. All three shapes occur in the wild.
		w.Write([]byte(`{
			"slug": "will-btc-hit-100k",
			"question": "Will Bitcoin hit $100k?",
			"conditionId": "0xcond",
			"clobTokenIds": "[\"111\", \"222\"]",
			"outcomes": ["Yes", "No"],
			"groupItemTitle": "Bitcoin",
			"volume": 123456.5,
			"liquidity": "999.9",
			"lastTradePrice": 0.42
		}`))
	}))
	defer server.Close()

	client := NewGammaClient(server.URL)
	ctx := context.Background()

	m, err := client.FetchMarket(ctx, "will-btc-hit-100k")
	if err != nil {
		t.Fatalf("FetchMarket: %v", err)
	}

	if m.Slug != "will-btc-hit-100k" {
		t.Errorf("slug = %q", m.Slug)
	}
	if len(m.ClobTokenIDs) != 2 || m.ClobTokenIDs[0] != "111" || m.ClobTokenIDs[1] != "222" {
		t.Errorf("clobTokenIds = %v", m.ClobTokenIDs)
	}
	if len(m.Outcomes) != 2 || m.Outcomes[0] != "Yes" {
		t.Errorf("outcomes = %v", m.Outcomes)
	}
	if m.Volume != "123456.5" {
		t.Errorf("volume = %q", m.Volume)
	}
	if m.LastTradePrice != "0.42" {
		t.Errorf("lastTradePrice = %q", m.LastTradePrice)
	}
}

func TestGammaClient_FetchMarketNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewGammaClient(server.URL)
	_, err := client.FetchMarket(context.Background(), "no-such-market")
	if !errors.Is(err, ErrMarketNotFound) {
		t.Fatalf("expected ErrMarketNotFound, got %v", err)
	}
}

func TestGammaClient_FetchEventSortsByVolume(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/slug/nominee-2028" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"slug": "nominee-2028",
			"title": "Nominee 2028",
			"markets": [
				{"slug": "low", "volume": "10"},
				{"slug": "high", "volume": "5000"},
				{"slug": "mid", "volume": 300}
			]
		}`))
	}))
	defer server.Close()

	client := NewGammaClient(server.URL)
	event, err := client.FetchEvent(context.Background(), "nominee-2028")
	if err != nil {
		t.Fatalf("FetchEvent: %v", err)
	}

	if len(event.Markets) != 3 {
		t.Fatalf("expected 3 markets, got %d", len(event.Markets))
	}
	got := []string{event.Markets[0].Slug, event.Markets[1].Slug, event.Markets[2].Slug}
	want := []string{"high", "mid", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("markets[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGammaClient_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"slug": "retry-market"}`))
	}))
	defer server.Close()

	client := NewGammaClient(server.URL, WithGammaRetryDelay(time.Millisecond))
	m, err := client.FetchMarket(context.Background(), "retry-market")
	if err != nil {
		t.Fatalf("FetchMarket: %v", err)
	}
	if m.Slug != "retry-market" {
		t.Errorf("slug = %q", m.Slug)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestExtractMarketIDs(t *testing.T) {
	market := &domain.Market{
		Slug:         "will-btc-hit-100k",
		ConditionID:  "0xcond",
		ClobTokenIDs: []string{"111", "222"},
		Outcomes:     []string{"Yes", "No"},
	}
	conditionID, tokenIDs, outcomes, err := ExtractMarketIDs(market)
	if err != nil {
		t.Fatalf("ExtractMarketIDs: %v", err)
	}
	if conditionID != "0xcond" {
		t.Errorf("conditionID = %q", conditionID)
	}
	if len(tokenIDs) != 2 {
		t.Errorf("tokenIDs = %v", tokenIDs)
	}
	if len(outcomes) != 2 || outcomes[0] != "Yes" {
		t.Errorf("outcomes = %v", outcomes)
	}

	// Missing outcome names default to Yes/No.
	market.Outcomes = nil
	_, _, outcomes, err = ExtractMarketIDs(market)
	if err != nil {
		t.Fatalf("ExtractMarketIDs: %v", err)
	}
	if len(outcomes) != 2 || outcomes[0] != "Yes" || outcomes[1] != "No" {
		t.Errorf("default outcomes = %v", outcomes)
	}

	market.ClobTokenIDs = []string{"only-one"}
	if _, _, _, err := ExtractMarketIDs(market); err == nil {
		t.Error("expected error for single token id")
	}
}
