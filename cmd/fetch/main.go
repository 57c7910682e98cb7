// Package main fetches Polymarket fills for a market or event, persists
// them and regenerates the hypergraph datasets.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"polymarket-hypergraph-lab/internal/config"
	"polymarket-hypergraph-lab/internal/ingestion"
	"polymarket-hypergraph-lab/internal/observability"
	"polymarket-hypergraph-lab/internal/polymarket"
	"polymarket-hypergraph-lab/internal/storage"
	chstore "polymarket-hypergraph-lab/internal/storage/clickhouse"
	"polymarket-hypergraph-lab/internal/storage/migrations"
	pgstore "polymarket-hypergraph-lab/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	market := flag.String("market", "", "Market URL or slug to process")
	event := flag.String("event", "", "Event URL or slug: process every market of the event")
	rawDir := flag.String("raw-dir", cfg.RawDataDir, "Directory for raw fills JSON files")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for datasets")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string (optional)")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address while running (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[fetch] ", log.LstdFlags)

	if (*market == "") == (*event == "") {
		logger.Println("Exactly one of --market or --event is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Printf("Metrics listener: %v", err)
			}
		}()
	}

	fillStore, marketStore, archive, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Create stores: %v", err)
	}
	defer cleanup()

	processor, err := ingestion.NewProcessor(ingestion.ProcessorOptions{
		Gamma:       polymarket.NewGammaClient(cfg.GammaBaseURL),
		Goldsky:     polymarket.NewGoldskyClient(cfg.GoldskyURL),
		RawDir:      ingestion.NewRawDir(*rawDir),
		OutputDir:   *outputDir,
		FillStore:   fillStore,
		MarketStore: marketStore,
		Archive:     archive,
		Metrics:     observability.DefaultMetrics,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatalf("Create processor: %v", err)
	}

	if *market != "" {
		result, err := processor.ProcessMarket(ctx, *market)
		if err != nil {
			logger.Fatalf("Process market: %v", err)
		}
		logger.Printf("Done: %s, %d fills, %d traders", result.MarketSlug, result.TotalFills, result.UniqueTraders)
		return
	}

	result, err := processor.ProcessEvent(ctx, *event)
	if err != nil {
		logger.Fatalf("Process event: %v", err)
	}
	logger.Printf("Done: event %s, %d markets processed, %d failed",
		result.EventSlug, len(result.Markets), len(result.Failed))
	if len(result.Failed) > 0 {
		logger.Printf("Failed markets: %v", result.Failed)
		os.Exit(1)
	}
}

// createStores connects the configured backends. Empty DSNs leave the
// corresponding store nil; the pipeline then runs from files alone.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string) (storage.FillStore, storage.MarketStore, storage.FillArchive, func(), error) {
	var (
		fillStore   storage.FillStore
		marketStore storage.MarketStore
		archive     storage.FillArchive
		cleanups    []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, nil, nil, err
		}
		fillStore = pgstore.NewFillStore(pool)
		marketStore = pgstore.NewMarketStore(pool)
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, nil, err
		}
		cleanups = append(cleanups, func() { conn.Close() })
		archive = chstore.NewFillArchive(conn)
	}

	return fillStore, marketStore, archive, cleanup, nil
}
