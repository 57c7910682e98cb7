package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/storage"
)

// MarketStore implements storage.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *Pool
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(pool *Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

// Insert adds a new market. Returns ErrDuplicateKey if the slug exists.
func (s *MarketStore) Insert(ctx context.Context, m *domain.Market) (err error) {
	done := observe("insert_market")
	defer func() { done(err) }()
	if m == nil || m.Slug == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO markets (
			slug, question, condition_id, clob_token_ids, outcomes,
			group_item_title, volume, liquidity, last_trade_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.pool.Exec(ctx, query,
		m.Slug,
		m.Question,
		m.ConditionID,
		m.ClobTokenIDs,
		m.Outcomes,
		m.GroupItemTitle,
		m.Volume,
		m.Liquidity,
		m.LastTradePrice,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert market: %w", err)
	}
	return nil
}

// GetBySlug retrieves a market by slug. Returns ErrNotFound if not exists.
func (s *MarketStore) GetBySlug(ctx context.Context, slug string) (m *domain.Market, err error) {
	done := observe("get_market_by_slug")
	defer func() { done(err) }()
	query := `
		SELECT slug, question, condition_id, clob_token_ids, outcomes,
		       group_item_title, volume, liquidity, last_trade_price,
		       EXTRACT(EPOCH FROM created_at)::bigint
		FROM markets
		WHERE slug = $1
	`
	row := s.pool.QueryRow(ctx, query, slug)

	m, err = scanMarket(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get market by slug: %w", err)
	}
	return m, nil
}

// List retrieves all stored markets, ordered by slug ASC.
func (s *MarketStore) List(ctx context.Context) (markets []*domain.Market, err error) {
	done := observe("list_all_markets")
	defer func() { done(err) }()
	query := `
		SELECT slug, question, condition_id, clob_token_ids, outcomes,
		       group_item_title, volume, liquidity, last_trade_price,
		       EXTRACT(EPOCH FROM created_at)::bigint
		FROM markets
		ORDER BY slug ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()

	var out []*domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markets: %w", err)
	}
	return out, nil
}

func scanMarket(row pgx.Row) (*domain.Market, error) {
	var m domain.Market
	err := row.Scan(
		&m.Slug,
		&m.Question,
		&m.ConditionID,
		&m.ClobTokenIDs,
		&m.Outcomes,
		&m.GroupItemTitle,
		&m.Volume,
		&m.Liquidity,
		&m.LastTradePrice,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
