// FilePath: server/analytics/internal/database/database.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/w4b_v3/server/analytics/internal/config"
)

// DB is the connection handle the repositories work with
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetDB() *sqlx.DB
}

// TimescaleDB represents a TimescaleDB database connection
type TimescaleDB struct {
	db *sqlx.DB
}

// DSN builds the lib/pq connection string
func DSN(cfg config.PostgresConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}

// NewTimescaleDB connects to TimescaleDB, retrying with exponential backoff
// while the database comes up.
func NewTimescaleDB(ctx context.Context, cfg config.PostgresConfig, retries uint64) (DB, error) {
	var db *sqlx.DB
	attempt := 0
	connect := func() error {
		attempt++
		conn, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
		if err != nil {
			nuts.L.Warnf("[TimescaleDB] Connection attempt %d to %s:%d failed: %v", attempt, cfg.Host, cfg.Port, err)
			return err
		}
		db = conn
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(connect, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx)); err != nil {
		return nil, fmt.Errorf("error connecting to TimescaleDB: %w", err)
	}

	// Verify TimescaleDB extension
	var hasTimescaleDB bool
	err := db.GetContext(ctx, &hasTimescaleDB, "SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')")
	if err != nil || !hasTimescaleDB {
		db.Close()
		return nil, fmt.Errorf("TimescaleDB extension not available")
	}

	nuts.L.Infof("[TimescaleDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &TimescaleDB{db: db}, nil
}

func (t *TimescaleDB) Close() error {
	return t.db.Close()
}

func (t *TimescaleDB) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

func (t *TimescaleDB) GetDB() *sqlx.DB {
	return t.db
}
