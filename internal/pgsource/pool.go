// Package pgsource implements the Postgres-boundary Loader: an alternative
// to the CSV mirror pipeline that builds a snapshot-ready ingest.Result
// directly from a Postgres mirror of the upstream dataset via pgx/pgxpool,
// grounded on the teacher's internal/application.OpenDBPoolWithRetry and
// internal/db.DatabaseConnection retry-connect pattern. It is boundary
// glue, not core: the uncut-segment reduction never runs here, since the
// upstream schema is assumed to expose an already-reduced video_infos view.
package pgsource

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config names the Postgres connection parameters carried by internal/config.Database.
type Config struct {
	Host     string
	User     string
	Password string
	Name     string
	Retries  int
}

const (
	dbOpenBackoffBase  = 500 * time.Millisecond
	dbOpenBackoffScale = 1.5
)

func (c Config) dsn() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s", c.User, c.Password, c.Host, c.Name)
}

// Connect opens a pgxpool.Pool with retry + exponential backoff, mirroring
// OpenDBPoolWithRetry, then confirms liveness with a ping retry loop.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	retries := cfg.Retries
	if retries <= 0 {
		retries = 10
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	var pool *pgxpool.Pool
	var lastErr error
	for i := 0; i < retries; i++ {
		if pool, err = pgxpool.NewWithConfig(ctx, poolCfg); err == nil {
			break
		}
		lastErr = err
		time.Sleep(time.Duration(float64(dbOpenBackoffBase) * math.Pow(dbOpenBackoffScale, float64(i))))
	}
	if pool == nil {
		return nil, fmt.Errorf("connect to postgres after %d attempts: %w", retries, lastErr)
	}

	for i := 0; i < retries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			return pool, nil
		}
		lastErr = err
		time.Sleep(time.Duration(float64(dbOpenBackoffBase) * math.Pow(dbOpenBackoffScale, float64(i))))
	}
	pool.Close()
	return nil, fmt.Errorf("ping postgres after %d attempts: %w", retries, lastErr)
}
