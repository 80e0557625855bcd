package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goto/batchboard/config"
)

//go:embed migrations/*.sql
var migrationFs embed.FS

const connectTimeout = 10 * time.Second

// Open creates a connection pool sized from the config and checks the
// database is reachable.
func Open(conf config.DBConfig) (*pgxpool.Pool, error) {
	pgxConf, err := pgxpool.ParseConfig(conf.DSN)
	if err != nil {
		return nil, err
	}
	if conf.MaxOpenConnection > 0 {
		pgxConf.MaxConns = int32(conf.MaxOpenConnection)
	}
	if conf.MinOpenConnection > 0 {
		pgxConf.MinConns = int32(conf.MinOpenConnection)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pgxConf)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate applies every pending up migration.
func Migrate(dsn string) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error applying migrations: %w", err)
	}
	return nil
}

// Rollback reverts the given number of migrations.
func Rollback(dsn string, steps int) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error rolling back migrations: %w", err)
	}
	return nil
}

func newMigrate(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFs, "migrations")
	if err != nil {
		return nil, fmt.Errorf("error reading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("error initializing migrations: %w", err)
	}
	return m, nil
}
