package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/storage"
)

// FillStore implements storage.FillStore using PostgreSQL.
type FillStore struct {
	pool *Pool
}

// NewFillStore creates a new FillStore.
func NewFillStore(pool *Pool) *FillStore {
	return &FillStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

const insertFillQuery = `
	INSERT INTO fills (
		id, market_slug, maker, taker, maker_asset_id, taker_asset_id,
		timestamp, maker_amount, taker_amount, fee, tx_hash
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

const selectFillColumns = `
	SELECT id, market_slug, maker, taker, maker_asset_id, taker_asset_id,
	       timestamp, maker_amount, taker_amount, fee, tx_hash,
	       EXTRACT(EPOCH FROM created_at)::bigint
`

// Insert adds a new fill. Returns ErrDuplicateKey if the fill id exists.
func (s *FillStore) Insert(ctx context.Context, f *domain.Fill) (err error) {
	done := observe("insert_fill")
	defer func() { done(err) }()
	if f == nil || f.ID == "" {
		return storage.ErrInvalidInput
	}

	_, err = s.pool.Exec(ctx, insertFillQuery,
		f.ID,
		f.MarketSlug,
		f.Maker,
		f.Taker,
		f.MakerAssetID,
		f.TakerAssetID,
		f.Timestamp,
		f.MakerAmount,
		f.TakerAmount,
		f.Fee,
		f.TxHash,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert fill: %w", err)
	}
	return nil
}

// InsertBulk adds multiple fills atomically. Fails entire batch on any duplicate.
func (s *FillStore) InsertBulk(ctx context.Context, fills []*domain.Fill) (err error) {
	done := observe("insert_fills_bulk")
	defer func() { done(err) }()
	if len(fills) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range fills {
		if f == nil || f.ID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertFillQuery,
			f.ID,
			f.MarketSlug,
			f.Maker,
			f.Taker,
			f.MakerAssetID,
			f.TakerAssetID,
			f.Timestamp,
			f.MakerAmount,
			f.TakerAmount,
			f.Fee,
			f.TxHash,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert fill in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMarket retrieves all fills for a market, ordered by (timestamp, id) ASC.
func (s *FillStore) GetByMarket(ctx context.Context, slug string) (fills []*domain.Fill, err error) {
	done := observe("get_fills_by_market")
	defer func() { done(err) }()
	query := selectFillColumns + `
		FROM fills
		WHERE market_slug = $1
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query, slug)
	if err != nil {
		return nil, fmt.Errorf("query fills by market: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// GetByTimeRange retrieves fills for a market within [start, end] inclusive.
func (s *FillStore) GetByTimeRange(ctx context.Context, slug string, start, end int64) (fills []*domain.Fill, err error) {
	done := observe("get_fills_by_time_range")
	defer func() { done(err) }()
	query := selectFillColumns + `
		FROM fills
		WHERE market_slug = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query, slug, start, end)
	if err != nil {
		return nil, fmt.Errorf("query fills by time range: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// GetAll retrieves every stored fill, ordered by (market, timestamp, id) ASC.
func (s *FillStore) GetAll(ctx context.Context) (fills []*domain.Fill, err error) {
	done := observe("get_all_fills")
	defer func() { done(err) }()
	query := selectFillColumns + `
		FROM fills
		ORDER BY market_slug ASC, timestamp ASC, id ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all fills: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// ListMarkets returns distinct market slugs alphabetically.
func (s *FillStore) ListMarkets(ctx context.Context) (slugs []string, err error) {
	done := observe("list_markets")
	defer func() { done(err) }()
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT market_slug FROM fills ORDER BY market_slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("query market slugs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan market slug: %w", err)
		}
		out = append(out, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market slugs: %w", err)
	}
	return out, nil
}

func scanFills(rows pgx.Rows) ([]*domain.Fill, error) {
	var out []*domain.Fill
	for rows.Next() {
		var f domain.Fill
		err := rows.Scan(
			&f.ID,
			&f.MarketSlug,
			&f.Maker,
			&f.Taker,
			&f.MakerAssetID,
			&f.TakerAssetID,
			&f.Timestamp,
			&f.MakerAmount,
			&f.TakerAmount,
			&f.Fee,
			&f.TxHash,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fill: %w", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fills: %w", err)
	}
	return out, nil
}
