package clickhouse

import (
	"context"
	"fmt"
	"time"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/storage"
)

// FillArchive implements storage.FillArchive using ClickHouse.
type FillArchive struct {
	conn *Conn
}

// NewFillArchive creates a new FillArchive.
func NewFillArchive(conn *Conn) *FillArchive {
	return &FillArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.FillArchive = (*FillArchive)(nil)

// ArchiveFills appends fills to the archive. Duplicates by fill id are
// tolerated; fills_archive is a ReplacingMergeTree keyed on the id, so
// re-archiving a market collapses to one row per fill at merge time.
func (a *FillArchive) ArchiveFills(ctx context.Context, fills []*domain.Fill) (err error) {
	done := observe("archive_fills")
	defer func() { done(err) }()
	if len(fills) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO fills_archive (
			id, market_slug, maker, taker,
			maker_asset_id, taker_asset_id, timestamp,
			maker_amount, taker_amount, fee, tx_hash
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, f := range fills {
		err = batch.Append(
			f.ID, f.MarketSlug, f.Maker, f.Taker,
			f.MakerAssetID, f.TakerAssetID, f.Timestamp,
			f.MakerAmount, f.TakerAmount, f.Fee, f.TxHash,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// RecordBuild appends one dataset build's statistics.
func (a *FillArchive) RecordBuild(ctx context.Context, s *domain.BuildStat) (err error) {
	done := observe("record_build")
	defer func() { done(err) }()
	directed := uint8(0)
	if s.Directed {
		directed = 1
	}
	builtAt := time.Unix(s.BuiltAt, 0).UTC()
	if s.BuiltAt == 0 {
		builtAt = time.Now().UTC()
	}

	err = a.conn.Exec(ctx, `
		INSERT INTO dataset_builds (
			prefix, mode, window_size, directed,
			nodes, hyperedges, vertex_occurrences, fill_count, built_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.Prefix, string(s.Mode), s.WindowSize, directed,
		uint64(s.Nodes), uint64(s.Hyperedges), uint64(s.VertexOccurrences),
		uint64(s.FillCount), builtAt,
	)
	if err != nil {
		return fmt.Errorf("insert dataset build: %w", err)
	}
	return nil
}
