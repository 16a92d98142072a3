package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	postgresMaxOpenConns    = 10
	postgresMaxIdleConns    = 5
	postgresConnMaxLifetime = 30 * time.Minute
)

// postgresDSN accepts either a postgres:// URL or a key=value connection string and
// returns the key=value form lib/pq connects with.
func postgresDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("empty postgres DSN")
	}
	if !strings.Contains(dsn, "://") {
		return dsn, nil
	}
	conn, err := pq.ParseURL(dsn)
	if err != nil {
		return "", fmt.Errorf("parse postgres url: %w", err)
	}
	return conn, nil
}

// OpenPostgres opens the ledger database and pings it. The ledger runs one write at a
// time through the entry processor, so the pool stays small.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := postgresDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(DriverPostgres, conn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	db.SetMaxOpenConns(postgresMaxOpenConns)
	db.SetMaxIdleConns(postgresMaxIdleConns)
	db.SetConnMaxLifetime(postgresConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	return db, nil
}
