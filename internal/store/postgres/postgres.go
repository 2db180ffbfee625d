// Package postgres is the PostgreSQL store. The schema is managed by
// embedded golang-migrate migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/board/internal/model"
	"github.com/alfredjeanlab/board/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore persists snapshots and configs in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

// Pool sizing for a single board server; writes are one transaction per
// refresh.
const (
	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
	connectTimeout  = 10 * time.Second
)

// New connects to databaseURL and migrates the schema to the latest version.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// migrateUp applies the embedded migrations. An up-to-date schema is not an
// error.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *PostgresStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveSnapshot replaces all tickets, tags and users atomically, so a
// concurrent LoadSnapshot sees the old snapshot or the new one.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if snap == nil {
		return errors.New("save snapshot: nil snapshot")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return queryReplaceSnapshot(ctx, tx, snap)
	})
}

func (s *PostgresStore) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	return queryLoadSnapshot(ctx, s.db)
}

func (s *PostgresStore) SetConfig(ctx context.Context, config *model.Config) error {
	return querySetConfig(ctx, s.db, config)
}

func (s *PostgresStore) GetConfig(ctx context.Context, key string) (*model.Config, error) {
	return queryGetConfig(ctx, s.db, key)
}

func (s *PostgresStore) ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error) {
	if namespace == "" {
		return queryListAllConfigs(ctx, s.db)
	}
	return queryListConfigs(ctx, s.db, namespace)
}

func (s *PostgresStore) DeleteConfig(ctx context.Context, key string) error {
	return queryDeleteConfig(ctx, s.db, key)
}
