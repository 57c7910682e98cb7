package storage

import (
	"context"

	"polymarket-hypergraph-lab/internal/domain"
)

// FillStore provides access to fills storage. Fills are append-only:
// the hypergraph datasets are recomputed wholesale from them, never
// updated in place.
type FillStore interface {
	// Insert adds a new fill. Returns ErrDuplicateKey if the fill id exists.
	Insert(ctx context.Context, f *domain.Fill) error

	// InsertBulk adds multiple fills atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, fills []*domain.Fill) error

	// GetByMarket retrieves all fills for a market slug, ordered by
	// (timestamp, id) ASC.
	GetByMarket(ctx context.Context, slug string) ([]*domain.Fill, error)

	// GetByTimeRange retrieves fills for a market within [start, end]
	// (inclusive, Unix seconds), ordered by (timestamp, id) ASC.
	GetByTimeRange(ctx context.Context, slug string, start, end int64) ([]*domain.Fill, error)

	// GetAll retrieves every stored fill, ordered by
	// (market slug, timestamp, id) ASC. Feeds unified builds.
	GetAll(ctx context.Context) ([]*domain.Fill, error)

	// ListMarkets returns the distinct market slugs with stored fills,
	// alphabetically.
	ListMarkets(ctx context.Context) ([]string, error)
}

// MarketStore provides access to market metadata snapshots.
type MarketStore interface {
	// Insert adds a new market. Returns ErrDuplicateKey if the slug exists.
	Insert(ctx context.Context, m *domain.Market) error

	// GetBySlug retrieves a market by slug. Returns ErrNotFound if not exists.
	GetBySlug(ctx context.Context, slug string) (*domain.Market, error)

	// List retrieves all stored markets, ordered by slug ASC.
	List(ctx context.Context) ([]*domain.Market, error)
}

// FillArchive is the analytical archive: bulk fill history plus
// per-build dataset statistics, kept in ClickHouse for offline queries.
type FillArchive interface {
	// ArchiveFills appends fills to the archive. Duplicates are
	// tolerated; the archive deduplicates by fill id at merge time.
	ArchiveFills(ctx context.Context, fills []*domain.Fill) error

	// RecordBuild appends one dataset build's statistics.
	RecordBuild(ctx context.Context, s *domain.BuildStat) error
}
