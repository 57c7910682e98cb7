// Package ingestion wires the Polymarket clients, storage and the
// hypergraph builder into the fetch-store-build pipeline.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/hypergraph"
	"polymarket-hypergraph-lab/internal/observability"
	"polymarket-hypergraph-lab/internal/polymarket"
	"polymarket-hypergraph-lab/internal/storage"
)

// UnifiedPrefix is the dataset prefix of the cross-market build.
const UnifiedPrefix = "polymarket-unified"

// Processor runs the full pipeline for a market: fetch metadata, fetch
// fills, persist them and regenerate the per-market and unified datasets.
type Processor struct {
	gamma       *polymarket.GammaClient
	goldsky     *polymarket.GoldskyClient
	rawDir      *RawDir
	outputDir   string
	fillStore   storage.FillStore   // optional
	marketStore storage.MarketStore // optional
	archive     storage.FillArchive // optional
	metrics     *observability.Metrics
	logger      *log.Logger
}

// ProcessorOptions contains configuration for creating a Processor.
type ProcessorOptions struct {
	Gamma       *polymarket.GammaClient
	Goldsky     *polymarket.GoldskyClient
	RawDir      *RawDir
	OutputDir   string
	FillStore   storage.FillStore
	MarketStore storage.MarketStore
	Archive     storage.FillArchive
	Metrics     *observability.Metrics
	Logger      *log.Logger
}

// NewProcessor creates a new Processor.
func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	if opts.Gamma == nil || opts.Goldsky == nil {
		return nil, errors.New("ingestion: gamma and goldsky clients are required")
	}
	if opts.RawDir == nil {
		return nil, errors.New("ingestion: raw dir is required")
	}
	if opts.OutputDir == "" {
		return nil, errors.New("ingestion: output dir is required")
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.DefaultMetrics
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Processor{
		gamma:       opts.Gamma,
		goldsky:     opts.Goldsky,
		rawDir:      opts.RawDir,
		outputDir:   opts.OutputDir,
		fillStore:   opts.FillStore,
		marketStore: opts.MarketStore,
		archive:     opts.Archive,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// MarketResult summarizes one processed market.
type MarketResult struct {
	MarketSlug     string            `json:"market_slug"`
	MarketTitle    string            `json:"market_title"`
	ConditionID    string            `json:"condition_id"`
	TotalFills     int               `json:"total_fills"`
	UniqueTraders  int               `json:"unique_traders"`
	FirstTimestamp int64             `json:"first_timestamp"`
	LastTimestamp  int64             `json:"last_timestamp"`
	RawFillsPath   string            `json:"raw_fills_path"`
	Hypergraph     *domain.BuildStat `json:"hypergraph,omitempty"`
	Unified        *domain.BuildStat `json:"unified_hypergraph,omitempty"`
}

// EventResult summarizes one processed event.
type EventResult struct {
	EventSlug string          `json:"event_slug"`
	Title     string          `json:"title"`
	Markets   []*MarketResult `json:"markets"`
	Failed    []string        `json:"failed_markets,omitempty"`
}

// ProcessMarket runs the full pipeline for one market URL or slug.
func (p *Processor) ProcessMarket(ctx context.Context, marketURL string) (*MarketResult, error) {
	slug := polymarket.ParseMarketSlug(marketURL)
	p.logger.Printf("Processing market %s", slug)

	market, err := p.gamma.FetchMarket(ctx, slug)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues("gamma").Inc()
		return nil, fmt.Errorf("fetch market metadata: %w", err)
	}
	p.metrics.MarketsFetched.Inc()

	conditionID, tokenIDs, _, err := polymarket.ExtractMarketIDs(market)
	if err != nil {
		return nil, err
	}

	rawFills, err := p.goldsky.FetchAllFills(ctx, tokenIDs)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues("goldsky").Inc()
		return nil, fmt.Errorf("fetch fills: %w", err)
	}
	if len(rawFills) == 0 {
		return nil, fmt.Errorf("market %s: %w", slug, hypergraph.ErrEmptyInput)
	}
	p.metrics.FillsFetched.Add(float64(len(rawFills)))
	p.metrics.LastSuccessfulFetch.SetToCurrentTime()
	p.logger.Printf("Fetched %d fills for %s", len(rawFills), slug)

	if err := p.rawDir.Save(slug, rawFills); err != nil {
		return nil, fmt.Errorf("save raw fills: %w", err)
	}

	fills, err := convertFills(slug, rawFills)
	if err != nil {
		return nil, fmt.Errorf("convert fills: %w", err)
	}

	p.persist(ctx, market, fills)

	result := &MarketResult{
		MarketSlug:    slug,
		MarketTitle:   market.Question,
		ConditionID:   conditionID,
		TotalFills:    len(fills),
		UniqueTraders: countTraders(fills),
		RawFillsPath:  p.rawDir.Path(slug),
	}
	result.FirstTimestamp = fills[0].Timestamp
	result.LastTimestamp = fills[0].Timestamp
	for _, f := range fills {
		if f.Timestamp < result.FirstTimestamp {
			result.FirstTimestamp = f.Timestamp
		}
		if f.Timestamp > result.LastTimestamp {
			result.LastTimestamp = f.Timestamp
		}
	}

	// Per-market build failures are reported but do not fail the fetch;
	// the raw fills are already on disk for a later rebuild.
	stat, err := p.BuildMarket(ctx, slug, fills)
	if err != nil {
		p.logger.Printf("Warning: hypergraph build failed for %s: %v", slug, err)
	} else {
		result.Hypergraph = stat
	}

	unifiedStat, err := p.RebuildUnified(ctx)
	if err != nil {
		p.logger.Printf("Warning: unified rebuild failed: %v", err)
	} else {
		result.Unified = unifiedStat
	}

	return result, nil
}

// ProcessEvent runs the market pipeline for every market of an event.
// Individual market failures are collected, not fatal; the result lists
// the slugs that failed.
func (p *Processor) ProcessEvent(ctx context.Context, eventURL string) (*EventResult, error) {
	slug := polymarket.ParseEventSlug(eventURL)

	event, err := p.gamma.FetchEvent(ctx, slug)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues("gamma").Inc()
		return nil, fmt.Errorf("fetch event metadata: %w", err)
	}
	if len(event.Markets) == 0 {
		return nil, fmt.Errorf("event %s has no markets", slug)
	}

	result := &EventResult{
		EventSlug: event.Slug,
		Title:     event.Title,
	}
	for i := range event.Markets {
		m := &event.Markets[i]
		mr, err := p.ProcessMarket(ctx, m.Slug)
		if err != nil {
			p.logger.Printf("Event %s: market %s failed: %v", slug, m.Slug, err)
			result.Failed = append(result.Failed, m.Slug)
			continue
		}
		result.Markets = append(result.Markets, mr)
	}

	if len(result.Markets) == 0 {
		return nil, fmt.Errorf("event %s: all %d markets failed", slug, len(result.Failed))
	}
	return result, nil
}

// FetchEvent retrieves event metadata without processing any market.
func (p *Processor) FetchEvent(ctx context.Context, eventURL string) (*domain.Event, error) {
	slug := polymarket.ParseEventSlug(eventURL)
	event, err := p.gamma.FetchEvent(ctx, slug)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues("gamma").Inc()
		return nil, err
	}
	p.metrics.MarketsFetched.Add(float64(len(event.Markets)))
	return event, nil
}

// BuildMarket builds the per-market daily dataset under
// <outputDir>/by-market/<slug> and records the build.
func (p *Processor) BuildMarket(ctx context.Context, slug string, fills []*domain.Fill) (*domain.BuildStat, error) {
	start := time.Now()

	dataset, err := hypergraph.Build(fills, hypergraph.Options{Mode: domain.ModeDaily})
	if err != nil {
		p.metrics.BuildsTotal.WithLabelValues(string(domain.ModeDaily), "error").Inc()
		return nil, err
	}
	if violations := hypergraph.Verify(dataset); len(violations) > 0 {
		p.metrics.BuildsTotal.WithLabelValues(string(domain.ModeDaily), "error").Inc()
		return nil, fmt.Errorf("dataset verification failed: %s", violations[0])
	}

	dir := filepath.Join(p.outputDir, "by-market", slug)
	if err := hypergraph.WriteDataset(dir, slug, dataset); err != nil {
		p.metrics.BuildsTotal.WithLabelValues(string(domain.ModeDaily), "error").Inc()
		return nil, fmt.Errorf("write dataset: %w", err)
	}

	stat := buildStat(slug, domain.ModeDaily, dataset, len(fills))
	p.recordBuild(ctx, domain.ModeDaily, stat, start)
	p.logger.Printf("Built %s: %d nodes, %d hyperedges", slug, stat.Nodes, stat.Hyperedges)
	return stat, nil
}

// RebuildUnified rebuilds the cross-market dataset from every fills file
// in the raw directory.
func (p *Processor) RebuildUnified(ctx context.Context) (*domain.BuildStat, error) {
	start := time.Now()

	slugs, err := p.rawDir.ListMarkets()
	if err != nil {
		return nil, err
	}
	if len(slugs) == 0 {
		return nil, fmt.Errorf("raw dir: %w", hypergraph.ErrEmptyInput)
	}

	var all []*domain.Fill
	for _, slug := range slugs {
		rawFills, err := p.rawDir.Load(slug)
		if err != nil {
			return nil, err
		}
		fills, err := convertFills(slug, rawFills)
		if err != nil {
			return nil, fmt.Errorf("market %s: %w", slug, err)
		}
		all = append(all, fills...)
	}

	dataset, err := hypergraph.Build(all, hypergraph.Options{Mode: domain.ModeDaily})
	if err != nil {
		p.metrics.BuildsTotal.WithLabelValues(string(domain.ModeDaily), "error").Inc()
		return nil, err
	}
	if violations := hypergraph.Verify(dataset); len(violations) > 0 {
		p.metrics.BuildsTotal.WithLabelValues(string(domain.ModeDaily), "error").Inc()
		return nil, fmt.Errorf("dataset verification failed: %s", violations[0])
	}

	dir := filepath.Join(p.outputDir, "unified")
	if err := hypergraph.WriteDataset(dir, UnifiedPrefix, dataset); err != nil {
		p.metrics.BuildsTotal.WithLabelValues(string(domain.ModeDaily), "error").Inc()
		return nil, fmt.Errorf("write unified dataset: %w", err)
	}

	stat := buildStat(UnifiedPrefix, domain.ModeDaily, dataset, len(all))
	p.recordBuild(ctx, domain.ModeDaily, stat, start)
	p.logger.Printf("Rebuilt unified dataset from %d markets: %d nodes, %d hyperedges",
		len(slugs), stat.Nodes, stat.Hyperedges)
	return stat, nil
}

// persist stores the market and its fills in the configured backends.
// Storage is best-effort: the datasets build from the raw files either way.
func (p *Processor) persist(ctx context.Context, market *domain.Market, fills []*domain.Fill) {
	if p.marketStore != nil {
		err := p.marketStore.Insert(ctx, market)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			p.metrics.IngestionErrors.WithLabelValues("market_store").Inc()
			p.logger.Printf("Warning: store market %s: %v", market.Slug, err)
		}
	}

	if p.fillStore != nil {
		stored := 0
		for _, f := range fills {
			err := p.fillStore.Insert(ctx, f)
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			if err != nil {
				p.metrics.IngestionErrors.WithLabelValues("fill_store").Inc()
				p.logger.Printf("Warning: store fill %s: %v", f.ID, err)
				continue
			}
			stored++
		}
		p.metrics.FillsStored.Add(float64(stored))
	}

	if p.archive != nil {
		if err := p.archive.ArchiveFills(ctx, fills); err != nil {
			p.metrics.IngestionErrors.WithLabelValues("archive").Inc()
			p.logger.Printf("Warning: archive fills: %v", err)
		} else {
			p.metrics.FillsArchived.Add(float64(len(fills)))
		}
	}
}

// recordBuild updates metrics and the analytical archive for one build.
func (p *Processor) recordBuild(ctx context.Context, mode domain.BucketMode, stat *domain.BuildStat, start time.Time) {
	p.metrics.BuildsTotal.WithLabelValues(string(mode), "success").Inc()
	p.metrics.BuildDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	p.metrics.DatasetsWritten.Inc()
	p.metrics.NodesPerBuild.Observe(float64(stat.Nodes))
	p.metrics.EdgesPerBuild.Observe(float64(stat.Hyperedges))
	p.metrics.LastSuccessfulBuild.SetToCurrentTime()

	if p.archive != nil {
		if err := p.archive.RecordBuild(ctx, stat); err != nil {
			p.logger.Printf("Warning: record build %s: %v", stat.Prefix, err)
		}
	}
}

func buildStat(prefix string, mode domain.BucketMode, d *domain.Dataset, fillCount int) *domain.BuildStat {
	return &domain.BuildStat{
		Prefix:            prefix,
		Mode:              mode,
		Nodes:             d.NodeCount(),
		Hyperedges:        d.HyperedgeCount(),
		VertexOccurrences: d.VertexOccurrences(),
		FillCount:         fillCount,
		BuiltAt:           time.Now().Unix(),
	}
}

func convertFills(slug string, rawFills []polymarket.RawFill) ([]*domain.Fill, error) {
	fills := make([]*domain.Fill, 0, len(rawFills))
	for i := range rawFills {
		f, err := rawFills[i].ToFill(slug)
		if err != nil {
			return nil, fmt.Errorf("fill %s: %w", rawFills[i].ID, err)
		}
		fills = append(fills, f)
	}
	return fills, nil
}

func countTraders(fills []*domain.Fill) int {
	traders := make(map[string]struct{}, len(fills)*2)
	for _, f := range fills {
		traders[domain.CanonicalAddress(f.Maker)] = struct{}{}
		traders[domain.CanonicalAddress(f.Taker)] = struct{}{}
	}
	return len(traders)
}
