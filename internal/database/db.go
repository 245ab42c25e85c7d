// Package database owns the process-wide Postgres pool used by the postgres
// catalog source and reported by the health endpoint.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// ApplicationName is reported to Postgres for every pooled connection.
const ApplicationName = "sourcing-service"

// statusTimeout bounds the health ping.
const statusTimeout = 2 * time.Second

// ErrNotConnected is returned by Status before Connect succeeds.
var ErrNotConnected = errors.New("database not initialized")

var (
	pool   *pgxpool.Pool
	poolMu sync.RWMutex
)

// Options configures the pool. Zero values keep the pgxpool defaults.
type Options struct {
	MaxConns    int
	MinConns    int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// Connect opens the pool and verifies it with a ping. Calling it again while
// a pool is open is a no-op.
func Connect(ctx context.Context, connString string, maxConns, minConns int, maxLifetime, maxIdleTime time.Duration) error {
	return ConnectWithOptions(ctx, connString, Options{
		MaxConns:    maxConns,
		MinConns:    minConns,
		MaxLifetime: maxLifetime,
		MaxIdleTime: maxIdleTime,
	})
}

// ConnectWithOptions is Connect with an Options value.
func ConnectWithOptions(ctx context.Context, connString string, opts Options) error {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		return nil
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("error parsing database config: %w", err)
	}
	if opts.MaxConns > 0 {
		config.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		config.MinConns = int32(opts.MinConns)
	}
	if opts.MaxLifetime > 0 {
		config.MaxConnLifetime = opts.MaxLifetime
	}
	if opts.MaxIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxIdleTime
	}
	config.HealthCheckPeriod = time.Minute
	config.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	newPool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := newPool.Ping(ctx); err != nil {
		newPool.Close()
		return fmt.Errorf("error connecting to database: %w", err)
	}

	log.Debug().
		Str("component", "database").
		Int32("max_conns", config.MaxConns).
		Str("host", config.ConnConfig.Host).
		Msg("Connection pool ready")

	pool = newPool
	return nil
}

// Close closes the pool; Connect may be called again afterwards.
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

// Pool returns the connection pool, or nil when not connected.
func Pool() *pgxpool.Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return pool
}

// Status pings the database with a short deadline.
func Status(ctx context.Context) error {
	p := Pool()
	if p == nil {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	return p.Ping(ctx)
}
