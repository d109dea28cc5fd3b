// Package database manages the optional PostgreSQL connection that stores
// verification history.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/sealcheck/pkg/lifecycle"
)

const pingAttempts = 3

// System owns the connection pool and reports whether it is usable.
type System interface {
	// Connection returns the pool. Callers check Ready first.
	Connection() *sql.DB
	// Start registers the startup ping and the shutdown close with lc.
	Start(lc *lifecycle.Coordinator) error
	// Ready reports whether the startup ping succeeded and the pool is open.
	Ready() bool
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
	backoff     time.Duration
	ready       atomic.Bool
}

// New opens a pool for cfg without connecting. sql.Open only validates the
// driver name, so a bad host surfaces in the startup ping.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	conn, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        conn,
		logger:      logger.With("system", "database"),
		connTimeout: cfg.ConnTimeoutDuration(),
		backoff:     time.Second,
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Ready() bool {
	return d.ready.Load()
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.Track("database", d)

	lc.OnStartup(func() {
		if err := d.ping(lc.Context()); err != nil {
			d.logger.Error("database unavailable, history disabled", "error", err)
			return
		}
		d.ready.Store(true)
		d.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.ready.Store(false)

		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}
		d.logger.Info("database connection closed")
	})

	return nil
}

// ping tries the connection up to pingAttempts times, doubling the wait
// between attempts.
func (d *database) ping(ctx context.Context) error {
	wait := d.backoff
	var err error

	for attempt := 1; attempt <= pingAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, d.connTimeout)
		err = d.conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}

		d.logger.Warn("database ping failed", "attempt", attempt, "error", err)
		if attempt == pingAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}

	return fmt.Errorf("ping after %d attempts: %w", pingAttempts, err)
}
