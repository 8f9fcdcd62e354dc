// Package storage implements the domain repositories on a SQL database.
// SQLite and PostgreSQL are supported.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the database
type Config struct {
	Driver string
	DSN    string
}

// DB is a sqlx handle paired with the SQL flavor its queries are built in
type DB struct {
	*sqlx.DB
	flavor sqlbuilder.Flavor
	logger zerolog.Logger
}

// Open connects to the configured database and verifies the connection
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	var flavor sqlbuilder.Flavor
	dsn := cfg.DSN

	switch cfg.Driver {
	case DriverSQLite:
		flavor = sqlbuilder.SQLite
		if dsn == "" {
			dsn = ":memory:"
		}
		if !strings.Contains(dsn, "_foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_foreign_keys=on"
		}
	case DriverPostgres:
		flavor = sqlbuilder.PostgreSQL
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// an in-memory sqlite database exists per connection
	if cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info().Str("driver", cfg.Driver).Msg("database connected")

	return &DB{
		DB:     db,
		flavor: flavor,
		logger: logger.With().Str("component", "storage").Logger(),
	}, nil
}

func (db *DB) newSelect() *sqlbuilder.SelectBuilder {
	return db.flavor.NewSelectBuilder()
}

func (db *DB) newUpdate() *sqlbuilder.UpdateBuilder {
	return db.flavor.NewUpdateBuilder()
}

func (db *DB) newStruct(row interface{}) *sqlbuilder.Struct {
	return sqlbuilder.NewStruct(row).For(db.flavor)
}

// isUniqueViolation reports a unique constraint failure from either driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func now() time.Time {
	return time.Now().UTC()
}
