package ingestion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"polymarket-hypergraph-lab/internal/hypergraph"
	"polymarket-hypergraph-lab/internal/polymarket"
	"polymarket-hypergraph-lab/internal/storage/memory"
)

// fakeGamma serves one market and one event wrapping it.
func fakeGamma(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/markets/slug/"):
			w.Write([]byte(`{
				"slug": "test-market",
				"question": "Test question?",
				"conditionId": "0xcond",
				"clobTokenIds": ["111", "222"],
				"outcomes": ["Yes", "No"],
				"volume": "100"
			}`))
		case strings.HasPrefix(r.URL.Path, "/events/slug/"):
			w.Write([]byte(`{
				"slug": "test-event",
				"title": "Test event",
				"markets": [{
					"slug": "test-market",
					"question": "Test question?",
					"conditionId": "0xcond",
					"clobTokenIds": ["111", "222"],
					"volume": "100"
				}]
			}`))
		default:
			t.Errorf("unexpected gamma path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// fakeGoldsky serves two fills on the maker side and none on the taker side.
func fakeGoldsky(t *testing.T, fills []polymarket.RawFill) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode goldsky request: %v", err)
		}

		rows := fills
		if strings.Contains(req.Query, "takerAssetId_in") {
			rows = nil
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"orderFilledEvents": rows},
		})
	}))
}

func testRawFills() []polymarket.RawFill {
	return []polymarket.RawFill{
		{
			ID: "f1", Timestamp: "1738108800", TransactionHash: "0xt1",
			Maker: "0xaaa1", Taker: "0xbbb1",
			MakerAssetID: "0", TakerAssetID: "111",
		},
		{
			ID: "f2", Timestamp: "1738112400", TransactionHash: "0xt2",
			Maker: "0xaaa2", Taker: "0xbbb1",
			MakerAssetID: "111", TakerAssetID: "0",
		},
	}
}

func newTestProcessor(t *testing.T, gammaURL, goldskyURL string) (*Processor, string, *memory.FillStore) {
	t.Helper()

	outputDir := t.TempDir()
	fillStore := memory.NewFillStore()

	proc, err := NewProcessor(ProcessorOptions{
		Gamma:       polymarket.NewGammaClient(gammaURL),
		Goldsky:     polymarket.NewGoldskyClient(goldskyURL, polymarket.WithPageDelay(0)),
		RawDir:      NewRawDir(t.TempDir()),
		OutputDir:   outputDir,
		FillStore:   fillStore,
		MarketStore: memory.NewMarketStore(),
	})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return proc, outputDir, fillStore
}

func TestProcessor_ProcessMarket(t *testing.T) {
	gamma := fakeGamma(t)
	defer gamma.Close()
	goldsky := fakeGoldsky(t, testRawFills())
	defer goldsky.Close()

	proc, outputDir, fillStore := newTestProcessor(t, gamma.URL, goldsky.URL)

	result, err := proc.ProcessMarket(context.Background(), "https://polymarket.com/market/test-market")
	if err != nil {
		t.Fatalf("ProcessMarket: %v", err)
	}

	if result.MarketSlug != "test-market" {
		t.Errorf("slug = %q", result.MarketSlug)
	}
	if result.TotalFills != 2 {
		t.Errorf("total fills = %d", result.TotalFills)
	}
	// 0xaaa1, 0xaaa2, 0xbbb1
	if result.UniqueTraders != 3 {
		t.Errorf("unique traders = %d", result.UniqueTraders)
	}
	if result.FirstTimestamp != 1738108800 || result.LastTimestamp != 1738112400 {
		t.Errorf("timestamp range = [%d, %d]", result.FirstTimestamp, result.LastTimestamp)
	}
	if result.Hypergraph == nil {
		t.Fatal("expected per-market build stats")
	}
	if result.Unified == nil {
		t.Fatal("expected unified build stats")
	}

	// Raw fills landed on disk.
	if _, err := os.Stat(result.RawFillsPath); err != nil {
		t.Errorf("raw fills file: %v", err)
	}

	// Both datasets are readable and consistent.
	perMarket, err := hypergraph.ReadDataset(filepath.Join(outputDir, "by-market", "test-market"), "test-market")
	if err != nil {
		t.Fatalf("read per-market dataset: %v", err)
	}
	if v := hypergraph.Verify(perMarket); len(v) > 0 {
		t.Errorf("per-market dataset violations: %v", v)
	}

	unified, err := hypergraph.ReadDataset(filepath.Join(outputDir, "unified"), UnifiedPrefix)
	if err != nil {
		t.Fatalf("read unified dataset: %v", err)
	}
	if v := hypergraph.Verify(unified); len(v) > 0 {
		t.Errorf("unified dataset violations: %v", v)
	}

	// Fills were stored.
	stored, err := fillStore.GetByMarket(context.Background(), "test-market")
	if err != nil {
		t.Fatalf("GetByMarket: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("stored fills = %d", len(stored))
	}
}

func TestProcessor_ProcessMarketIdempotent(t *testing.T) {
	gamma := fakeGamma(t)
	defer gamma.Close()
	goldsky := fakeGoldsky(t, testRawFills())
	defer goldsky.Close()

	proc, _, fillStore := newTestProcessor(t, gamma.URL, goldsky.URL)

	ctx := context.Background()
	if _, err := proc.ProcessMarket(ctx, "test-market"); err != nil {
		t.Fatalf("first ProcessMarket: %v", err)
	}
	if _, err := proc.ProcessMarket(ctx, "test-market"); err != nil {
		t.Fatalf("second ProcessMarket: %v", err)
	}

	// Duplicate fills are skipped, not duplicated.
	stored, err := fillStore.GetByMarket(ctx, "test-market")
	if err != nil {
		t.Fatalf("GetByMarket: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("stored fills after reprocess = %d", len(stored))
	}
}

func TestProcessor_ProcessMarketNoFills(t *testing.T) {
	gamma := fakeGamma(t)
	defer gamma.Close()
	goldsky := fakeGoldsky(t, nil)
	defer goldsky.Close()

	proc, _, _ := newTestProcessor(t, gamma.URL, goldsky.URL)

	_, err := proc.ProcessMarket(context.Background(), "test-market")
	if err == nil {
		t.Fatal("expected error for market without fills")
	}
}

func TestProcessor_ProcessEvent(t *testing.T) {
	gamma := fakeGamma(t)
	defer gamma.Close()
	goldsky := fakeGoldsky(t, testRawFills())
	defer goldsky.Close()

	proc, _, _ := newTestProcessor(t, gamma.URL, goldsky.URL)

	result, err := proc.ProcessEvent(context.Background(), "https://polymarket.com/events/test-event")
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if result.EventSlug != "test-event" {
		t.Errorf("event slug = %q", result.EventSlug)
	}
	if len(result.Markets) != 1 {
		t.Fatalf("processed markets = %d", len(result.Markets))
	}
	if len(result.Failed) != 0 {
		t.Errorf("failed markets = %v", result.Failed)
	}
}

func TestProcessor_RebuildUnifiedEmpty(t *testing.T) {
	gamma := fakeGamma(t)
	defer gamma.Close()
	goldsky := fakeGoldsky(t, nil)
	defer goldsky.Close()

	proc, _, _ := newTestProcessor(t, gamma.URL, goldsky.URL)

	_, err := proc.RebuildUnified(context.Background())
	if err == nil {
		t.Fatal("expected error for empty raw dir")
	}
}
