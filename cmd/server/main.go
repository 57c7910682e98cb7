// Package main runs the HTTP API that processes Polymarket markets and
// events into hypergraph datasets on demand.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"polymarket-hypergraph-lab/internal/config"
	"polymarket-hypergraph-lab/internal/ingestion"
	"polymarket-hypergraph-lab/internal/observability"
	"polymarket-hypergraph-lab/internal/polymarket"
	"polymarket-hypergraph-lab/internal/server"
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

	addr := flag.String("addr", cfg.ServerAddr, "HTTP listen address")
	rawDir := flag.String("raw-dir", cfg.RawDataDir, "Directory for raw fills JSON files")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for datasets")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string (optional)")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string (optional)")
	watchAssets := flag.String("watch-assets", "", "Comma-separated CLOB asset IDs to monitor for live trades (optional)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	if *watchAssets != "" {
		assetIDs := splitAssets(*watchAssets)
		if err := watchLiveTrades(ctx, cfg.CLOBWSURL, assetIDs, logger); err != nil {
			logger.Printf("Live trade monitoring disabled: %v", err)
		} else {
			logger.Printf("Monitoring live trades for %d assets", len(assetIDs))
		}
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.New(processor, logger).Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Listening on %s", *addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, shutting down...", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Serve: %v", err)
		}
		return
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown: %v", err)
	}
}

// watchLiveTrades subscribes to the CLOB market channel and counts
// observed trades. The public feed carries no counterparty addresses,
// so these events feed metrics only, not dataset builds.
func watchLiveTrades(ctx context.Context, endpoint string, assetIDs []string, logger *log.Logger) error {
	client, err := polymarket.NewWSTradeClient(ctx, endpoint, assetIDs, nil)
	if err != nil {
		return err
	}
	go func() {
		defer client.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-client.Events():
				if !ok {
					return
				}
				observability.DefaultMetrics.LiveTradesSeen.Inc()
				logger.Printf("Live trade: asset=%s side=%s price=%s size=%s", ev.AssetID, ev.Side, ev.Price, ev.Size)
			}
		}
	}()
	return nil
}

func splitAssets(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// createStores connects the configured backends. Empty DSNs leave the
// corresponding store nil; the server then works from files alone.
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
