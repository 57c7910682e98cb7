// Package main regenerates hypergraph datasets from the raw fills
// directory or from the fill store, without touching the network.
package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os"
	"path/filepath"

	"polymarket-hypergraph-lab/internal/config"
	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/hypergraph"
	"polymarket-hypergraph-lab/internal/ingestion"
	"polymarket-hypergraph-lab/internal/reporting"
	"polymarket-hypergraph-lab/internal/storage"
	pgstore "polymarket-hypergraph-lab/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	rawDirFlag := flag.String("raw-dir", cfg.RawDataDir, "Directory containing fills_<slug>.json files")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for datasets")
	postgresDSN := flag.String("postgres-dsn", "", "Load fills from PostgreSQL instead of the raw directory")
	market := flag.String("market", "", "Regenerate only this market (default: all markets plus unified)")
	mode := flag.String("mode", "daily", "Bucketing mode: daily, timewindow or transaction")
	window := flag.Int64("window", 0, "Window size in seconds (timewindow mode only)")
	start := flag.Int64("start", 0, "Only include fills at or after this unix timestamp")
	end := flag.Int64("end", 0, "Only include fills at or before this unix timestamp (0 = no bound)")
	directed := flag.Bool("directed", false, "Also emit the directed seller-to-buyer variant per market")
	flag.Parse()

	logger := log.New(os.Stdout, "[generate] ", log.LstdFlags)
	ctx := context.Background()

	var source fillSource
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Connect to postgres: %v", err)
		}
		defer pool.Close()
		source = &storeSource{store: pgstore.NewFillStore(pool), start: *start, end: *end}
	} else {
		source = &rawSource{dir: ingestion.NewRawDir(*rawDirFlag), start: *start, end: *end}
	}

	bucketMode := domain.BucketMode(*mode)

	slugs, err := source.listMarkets(ctx)
	if err != nil {
		logger.Fatalf("List markets: %v", err)
	}
	if *market != "" {
		slugs = []string{*market}
	}
	if len(slugs) == 0 {
		logger.Fatalf("No fills found")
	}

	for _, slug := range slugs {
		fills, err := source.marketFills(ctx, slug)
		if err != nil {
			logger.Fatalf("Load %s: %v", slug, err)
		}

		dir := filepath.Join(*outputDir, "by-market", slug)
		if err := buildAndWrite(dir, slug, fills, bucketMode, *window); err != nil {
			logger.Fatalf("Build %s: %v", slug, err)
		}
		logger.Printf("Built %s (%d fills)", slug, len(fills))

		if *directed {
			directedDir := filepath.Join(*outputDir, "by-market", slug, "directed")
			if err := buildAndWriteDirected(directedDir, fills, bucketMode, *window); err != nil {
				logger.Fatalf("Build directed %s: %v", slug, err)
			}
			logger.Printf("Built directed variant for %s", slug)
		}
	}

	// Unified build covers all markets; skip when a single market was requested.
	if *market == "" {
		allFills, err := source.allFills(ctx)
		if err != nil {
			logger.Fatalf("Load all fills: %v", err)
		}
		dir := filepath.Join(*outputDir, "unified")
		if err := buildAndWrite(dir, ingestion.UnifiedPrefix, allFills, bucketMode, *window); err != nil {
			logger.Fatalf("Build unified: %v", err)
		}
		logger.Printf("Built unified dataset from %d markets", len(slugs))
	}

	report, err := reporting.NewGenerator(*outputDir).Generate()
	if err != nil {
		logger.Fatalf("Generate report: %v", err)
	}
	reportPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(reportPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalf("Write %s: %v", reportPath, err)
	}
	logger.Printf("Wrote %s", reportPath)
}

// fillSource abstracts where the fills come from: raw JSON files or
// the fill store.
type fillSource interface {
	listMarkets(ctx context.Context) ([]string, error)
	marketFills(ctx context.Context, slug string) ([]*domain.Fill, error)
	allFills(ctx context.Context) ([]*domain.Fill, error)
}

type rawSource struct {
	dir        *ingestion.RawDir
	start, end int64
}

func (s *rawSource) listMarkets(context.Context) ([]string, error) {
	return s.dir.ListMarkets()
}

func (s *rawSource) marketFills(_ context.Context, slug string) ([]*domain.Fill, error) {
	rawFills, err := s.dir.Load(slug)
	if err != nil {
		return nil, err
	}
	fills := make([]*domain.Fill, 0, len(rawFills))
	for i := range rawFills {
		f, err := rawFills[i].ToFill(slug)
		if err != nil {
			return nil, err
		}
		if !inRange(f.Timestamp, s.start, s.end) {
			continue
		}
		fills = append(fills, f)
	}
	return fills, nil
}

func (s *rawSource) allFills(ctx context.Context) ([]*domain.Fill, error) {
	slugs, err := s.dir.ListMarkets()
	if err != nil {
		return nil, err
	}
	var all []*domain.Fill
	for _, slug := range slugs {
		fills, err := s.marketFills(ctx, slug)
		if err != nil {
			return nil, err
		}
		all = append(all, fills...)
	}
	return all, nil
}

type storeSource struct {
	store      storage.FillStore
	start, end int64
}

func (s *storeSource) listMarkets(ctx context.Context) ([]string, error) {
	return s.store.ListMarkets(ctx)
}

func (s *storeSource) marketFills(ctx context.Context, slug string) ([]*domain.Fill, error) {
	if s.start != 0 || s.end != 0 {
		return s.store.GetByTimeRange(ctx, slug, s.start, endBound(s.end))
	}
	return s.store.GetByMarket(ctx, slug)
}

func (s *storeSource) allFills(ctx context.Context) ([]*domain.Fill, error) {
	if s.start == 0 && s.end == 0 {
		return s.store.GetAll(ctx)
	}
	slugs, err := s.store.ListMarkets(ctx)
	if err != nil {
		return nil, err
	}
	var all []*domain.Fill
	for _, slug := range slugs {
		fills, err := s.store.GetByTimeRange(ctx, slug, s.start, endBound(s.end))
		if err != nil {
			return nil, err
		}
		all = append(all, fills...)
	}
	return all, nil
}

func inRange(ts, start, end int64) bool {
	if ts < start {
		return false
	}
	return end == 0 || ts <= end
}

func endBound(end int64) int64 {
	if end == 0 {
		return math.MaxInt64
	}
	return end
}

func buildAndWrite(dir, prefix string, fills []*domain.Fill, mode domain.BucketMode, window int64) error {
	dataset, err := hypergraph.Build(fills, hypergraph.Options{Mode: mode, WindowSize: window})
	if err != nil {
		return err
	}
	if violations := hypergraph.Verify(dataset); len(violations) > 0 {
		return &verifyError{violations}
	}
	return hypergraph.WriteDataset(dir, prefix, dataset)
}

func buildAndWriteDirected(dir string, fills []*domain.Fill, mode domain.BucketMode, window int64) error {
	dataset, err := hypergraph.BuildDirected(fills, hypergraph.Options{Mode: mode, WindowSize: window})
	if err != nil {
		return err
	}
	if violations := hypergraph.VerifyDirected(dataset); len(violations) > 0 {
		return &verifyError{violations}
	}
	return hypergraph.WriteDirectedDataset(dir, dataset)
}

type verifyError struct {
	violations []hypergraph.Violation
}

func (e *verifyError) Error() string {
	return "dataset verification failed: " + e.violations[0].String()
}
