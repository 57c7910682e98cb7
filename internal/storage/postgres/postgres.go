// Package postgres backs the fill and market stores with PostgreSQL
// via pgx connection pools.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"polymarket-hypergraph-lab/internal/observability"
)

// Pool wraps pgxpool.Pool so the stores and the migration runner share
// one injected handle.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to the database behind dsn and verifies the
// connection with a ping before handing the pool out.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close releases the underlying pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// unique_violation, the code pgx surfaces for duplicate primary keys.
const pgErrUniqueViolation = "23505"

// isDuplicateKeyError reports whether err is a unique constraint
// violation, matched on the server error code rather than the message.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}

	return false
}

// isNotFoundError reports whether err means no rows matched.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// observe times one store operation; the returned func records the
// duration and outcome under the given operation label.
func observe(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
	}
}
