// Package database manages the shared SQL connection pool and the
// transaction plumbing used by the repositories. Both MySQL and PostgreSQL
// drivers are linked in; the active one is chosen by Config.Driver.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Pool defaults used when the corresponding Config field is zero. Sized for
// the dispatch and recovery loops plus the HTTP surface sharing one pool.
const (
	defaultMaxOpenConnections = 25
	defaultMaxIdleConnections = 5
	defaultConnMaxLifetime    = 5 * time.Minute
)

// Config holds database configuration settings. Zero pool fields fall back
// to the package defaults.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// withPoolDefaults fills zero pool settings with the package defaults.
func (cfg Config) withPoolDefaults() Config {
	if cfg.MaxOpenConnections <= 0 {
		cfg.MaxOpenConnections = defaultMaxOpenConnections
	}
	if cfg.MaxIdleConnections <= 0 {
		cfg.MaxIdleConnections = defaultMaxIdleConnections
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = defaultConnMaxLifetime
	}
	return cfg
}

// Connect opens the pool, applies the pool settings and verifies the
// connection with a ping before handing it out.
func Connect(cfg Config) (*sql.DB, error) {
	cfg = cfg.withPoolDefaults()

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
