// Package postgres persists the defeated-spawn registry in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/wasteland/internal/config"
)

// ErrSchemaMissing is returned by Health when the defeated_spawns table has
// not been created. Run cmd/migrate against the database first.
var ErrSchemaMissing = errors.New("defeated_spawns table missing")

// Pool owns the connections behind a DefeatedRepository.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the registry database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a reachable Pool or a non-nil error. The schema is
// not checked here; call Health for that.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("registry dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("registry pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("registry ping %s/%s: %w", cfg.Host, cfg.Name, err)
	}
	return &Pool{pool: pool}, nil
}

// Health verifies within timeout that the database answers and that the
// defeated_spawns table exists.
//
// Postcondition: Returns an error wrapping ErrSchemaMissing when migrations
// have not been applied.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var present bool
	err := p.pool.QueryRow(ctx,
		`SELECT to_regclass('defeated_spawns') IS NOT NULL`,
	).Scan(&present)
	if err != nil {
		return fmt.Errorf("registry health: %w", err)
	}
	if !present {
		return fmt.Errorf("registry health: %w", ErrSchemaMissing)
	}
	return nil
}

// Repository returns a DefeatedRepository backed by this pool.
func (p *Pool) Repository() *DefeatedRepository {
	return NewDefeatedRepository(p.pool)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB exposes the raw pool for migrations and tests.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
