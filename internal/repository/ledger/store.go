// Package ledger is the SQL implementation of the giveaway ledger. The same queries run
// against PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite); placeholders are written
// as '?' and rebound per driver.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"time"

	dg "giveaway-raffle/internal/domain/giveaway"
	"giveaway-raffle/internal/platform/db"
)

//go:embed migrations
var migrationFS embed.FS

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// Store persists giveaways, entries, allowed roles and the blacklist.
type Store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

var _ dg.Ledger = (*Store)(nil)

func NewPostgresStore(sqlDB *sql.DB) *Store { return newStore(sqlDB, driverPostgres) }

func NewSQLiteStore(sqlDB *sql.DB) *Store { return newStore(sqlDB, driverSQLite) }

func newStore(sqlDB *sql.DB, driver string) *Store {
	return &Store{db: sqlDB, driver: driver, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate applies the embedded schema for the store's driver.
func (s *Store) Migrate(ctx context.Context) error {
	return db.ApplyMigrations(ctx, s.db, s.driver, migrationFS, "migrations/"+s.driver)
}

// Ping is used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) q(query string) string { return db.Rebind(s.driver, query) }

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
