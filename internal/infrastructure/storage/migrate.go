package storage

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations
var migrations embed.FS

// migrationLogger adapts zerolog to migrate.Logger
type migrationLogger struct {
	logger zerolog.Logger
}

func (l migrationLogger) Printf(format string, v ...any) {
	l.logger.Debug().Msgf(format, v...)
}

func (l migrationLogger) Verbose() bool {
	return l.logger.GetLevel() <= zerolog.DebugLevel
}

// Migrate applies all pending schema migrations for the database's driver.
// The migrate instance is not closed because that would close db.
func (db *DB) Migrate() error {
	var (
		driver database.Driver
		err    error
	)
	name := db.DriverName()

	switch name {
	case DriverSQLite:
		driver, err = sqlite3.WithInstance(db.DB.DB, &sqlite3.Config{})
	case DriverPostgres:
		driver, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", name)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations, "migrations/"+name)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrationLogger{logger: db.logger}

	before, _, versionErr := m.Version()
	if versionErr != nil && !errors.Is(versionErr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", versionErr)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.Info().Uint("version", before).Msg("no new migrations to apply")
			return nil
		}
		version, dirty, _ := m.Version()
		db.logger.Error().Err(err).Uint("version", version).Bool("dirty", dirty).Msg("migration failed")
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	after, _, _ := m.Version()
	db.logger.Info().Uint("from", before).Uint("to", after).Msg("migrations applied")
	return nil
}
