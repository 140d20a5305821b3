package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded goose migrations to the pool's database
func (db *DB) Migrate(ctx context.Context) error {
	if db.connConfig == nil {
		return errors.New("migrations need a pool created from a connection config")
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(log.New(io.Discard, "", 0))

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	// goose needs a database/sql handle; open a separate one from the pool's config
	sqlDB := stdlib.OpenDB(*db.connConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	db.logger.Info("database migrations applied", "version", version)
	return nil
}
