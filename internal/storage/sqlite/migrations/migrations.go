// Package migrations holds the embedded task store schema and applies it.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/glmcp/internal/log"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// MigratorConfig is the configuration of the schema migrator.
type MigratorConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *MigratorConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "migrations.Migrator"})
	return nil
}

// SchemaVersion is the applied schema state.
type SchemaVersion struct {
	// Version is 0 when no migration has been applied.
	Version uint
	Dirty   bool
}

// Migrator applies the embedded task store schema.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator returns a new migrator.
func NewMigrator(cfg MigratorConfig) (*Migrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Migrator{db: cfg.DB, logger: cfg.Logger}, nil
}

// Up applies the pending migrations and returns the resulting schema version.
func (m *Migrator) Up(ctx context.Context) (SchemaVersion, error) {
	var v SchemaVersion
	err := m.withInstance(ctx, func(inst *migrate.Migrate) error {
		if err := inst.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("could not apply migrations: %w", err)
		}

		var err error
		v, err = version(inst)
		return err
	})
	if err != nil {
		return SchemaVersion{}, err
	}

	m.logger.Debugf("Task store schema at version %d", v.Version)
	return v, nil
}

// Down reverts every migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.withInstance(ctx, func(inst *migrate.Migrate) error {
		if err := inst.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("could not revert migrations: %w", err)
		}

		m.logger.Debugf("Task store schema reverted")
		return nil
	})
}

// Version returns the applied schema version without migrating.
func (m *Migrator) Version(ctx context.Context) (SchemaVersion, error) {
	var v SchemaVersion
	err := m.withInstance(ctx, func(inst *migrate.Migrate) error {
		var err error
		v, err = version(inst)
		return err
	})
	return v, err
}

func (m *Migrator) withInstance(ctx context.Context, fn func(inst *migrate.Migrate) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The driver must not close the shared db, so the instance itself is never closed.
	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	src, err := iofs.New(schemaFS, "sql")
	if err != nil {
		return fmt.Errorf("could not open embedded schema: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			m.logger.Errorf("Could not close embedded schema: %s", err)
		}
	}()

	inst, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	return fn(inst)
}

func version(inst *migrate.Migrate) (SchemaVersion, error) {
	v, dirty, err := inst.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("could not get schema version: %w", err)
	}

	return SchemaVersion{Version: v, Dirty: dirty}, nil
}
