// Package server exposes the market processing pipeline over HTTP.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/ingestion"
	"polymarket-hypergraph-lab/internal/observability"
)

// Server handles the processing API.
type Server struct {
	processor *ingestion.Processor
	logger    *log.Logger

	mu        sync.Mutex
	started   time.Time
	processed int
	failed    int
}

// New creates a Server around a processor.
func New(processor *ingestion.Processor, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		processor: processor,
		logger:    logger,
		started:   time.Now(),
	}
}

// Mux returns the HTTP handler with all routes registered.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)

	mux.HandleFunc("/api/process", s.handleProcess)
	mux.HandleFunc("/api/process-batch", s.handleProcessBatch)
	mux.HandleFunc("/api/fetch-event", s.handleFetchEvent)
	mux.HandleFunc("/api/process-event", s.handleProcessEvent)

	return mux
}

// apiResponse is the common success/error envelope.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// batchEntry is one market's outcome within a batch response.
type batchEntry struct {
	URL     string      `json:"url,omitempty"`
	Slug    string      `json:"slug,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		MarketURL string `json:"market_url"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.MarketURL = strings.TrimSpace(req.MarketURL)
	if req.MarketURL == "" {
		writeError(w, http.StatusBadRequest, "Market URL is required")
		return
	}

	result, err := s.processor.ProcessMarket(r.Context(), req.MarketURL)
	if err != nil {
		s.recordResult(false)
		s.logger.Printf("process %s failed: %v", req.MarketURL, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.recordResult(true)

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: result})
}

func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		Markets []struct {
			URL string `json:"url"`
		} `json:"markets"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Markets) == 0 {
		writeError(w, http.StatusBadRequest, "No markets provided")
		return
	}

	results := make([]batchEntry, 0, len(req.Markets))
	for _, m := range req.Markets {
		url := strings.TrimSpace(m.URL)
		if url == "" {
			results = append(results, batchEntry{URL: url, Error: "Empty URL"})
			continue
		}

		result, err := s.processor.ProcessMarket(r.Context(), url)
		if err != nil {
			s.recordResult(false)
			s.logger.Printf("batch: %s failed: %v", url, err)
			results = append(results, batchEntry{URL: url, Error: err.Error()})
			continue
		}
		s.recordResult(true)
		results = append(results, batchEntry{URL: url, Success: true, Data: result})
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool         `json:"success"`
		Results []batchEntry `json:"results"`
	}{Success: true, Results: results})
}

// eventInfo is the event summary in the fetch-event response.
type eventInfo struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	TotalMarkets int    `json:"total_markets"`
}

// eventMarket is one market row in the fetch-event response, volume-sorted.
type eventMarket struct {
	Slug           string `json:"slug"`
	Question       string `json:"question"`
	GroupItemTitle string `json:"groupItemTitle"`
	Volume         string `json:"volume"`
	Liquidity      string `json:"liquidity"`
	LastTradePrice string `json:"lastTradePrice"`
}

func (s *Server) handleFetchEvent(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		EventURL string `json:"event_url"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.EventURL = strings.TrimSpace(req.EventURL)
	if req.EventURL == "" {
		writeError(w, http.StatusBadRequest, "Event URL is required")
		return
	}

	event, err := s.processor.FetchEvent(r.Context(), req.EventURL)
	if err != nil {
		s.logger.Printf("fetch-event %s failed: %v", req.EventURL, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	markets := make([]eventMarket, 0, len(event.Markets))
	for i := range event.Markets {
		markets = append(markets, toEventMarket(&event.Markets[i]))
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool          `json:"success"`
		Event   eventInfo     `json:"event"`
		Markets []eventMarket `json:"markets"`
	}{
		Success: true,
		Event: eventInfo{
			Slug:         event.Slug,
			Title:        event.Title,
			Description:  event.Description,
			TotalMarkets: len(markets),
		},
		Markets: markets,
	})
}

func (s *Server) handleProcessEvent(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req struct {
		EventSlug   string   `json:"event_slug"`
		MarketSlugs []string `json:"market_slugs"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.EventSlug) == "" {
		writeError(w, http.StatusBadRequest, "Event slug is required")
		return
	}
	if len(req.MarketSlugs) == 0 {
		writeError(w, http.StatusBadRequest, "No market slugs provided")
		return
	}

	results := make([]batchEntry, 0, len(req.MarketSlugs))
	for _, slug := range req.MarketSlugs {
		result, err := s.processor.ProcessMarket(r.Context(), slug)
		if err != nil {
			s.recordResult(false)
			s.logger.Printf("process-event %s: market %s failed: %v", req.EventSlug, slug, err)
			results = append(results, batchEntry{Slug: slug, Error: err.Error()})
			continue
		}
		s.recordResult(true)
		results = append(results, batchEntry{Slug: slug, Success: true, Data: result})
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool         `json:"success"`
		Results []batchEntry `json:"results"`
	}{Success: true, Results: results})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	MarketsProcessed int    `json:"markets_processed"`
	MarketsFailed    int    `json:"markets_failed"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:           "running",
		Uptime:           time.Since(s.started).String(),
		MarketsProcessed: s.processed,
		MarketsFailed:    s.failed,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) recordResult(ok bool) {
	s.mu.Lock()
	if ok {
		s.processed++
	} else {
		s.failed++
	}
	s.mu.Unlock()
}

func toEventMarket(m *domain.Market) eventMarket {
	return eventMarket{
		Slug:           m.Slug,
		Question:       m.Question,
		GroupItemTitle: m.GroupItemTitle,
		Volume:         m.Volume,
		Liquidity:      m.Liquidity,
		LastTradePrice: m.LastTradePrice,
	}
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
