// Package postgres provides the pooled connection and migration runner
// shared by every writer's system-of-record store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	appcfg "github.com/productcatalog/platform/pkg/config"
)

// Querier is the subset of *pgxpool.Pool every repository depends on. It is
// also satisfied by pgx.Tx, so repositories can run the same query against
// either a pool or an open transaction, and by pgxmock in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connection wraps a pgxpool.Pool; it is the single entry point every
// writer uses to reach its relational store.
type Connection struct {
	DSN            string
	MigrationsPath string
	Pool           *pgxpool.Pool
}

// Connect opens the pool and blocks until a ping succeeds. It does not run
// migrations; call Migrate explicitly so callers control ordering.
func Connect(ctx context.Context, cfg appcfg.Postgres) (*Connection, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("postgres: ping failed: %w", err)
	}

	return &Connection{DSN: cfg.DSN(), MigrationsPath: cfg.MigrationsPath, Pool: pool}, nil
}

// Migrate applies all pending migrations from c.MigrationsPath. It opens a
// short-lived database/sql handle because golang-migrate's postgres driver
// requires one; the pooled pgxpool connection is unaffected.
func (c *Connection) Migrate() error {
	db, err := sql.Open("pgx", c.DSN)
	if err != nil {
		return fmt.Errorf("postgres: failed to open migration handle: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres: failed to build migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(c.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("postgres: failed to load migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: migration failed: %w", err)
	}

	return nil
}

// Close releases the pool.
func (c *Connection) Close() {
	c.Pool.Close()
}
