package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/repository"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = "0001_initial"

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.Repositories
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Repositories: newRepositories(db),
	}
}

func newRepositories(q DBTX) repository.Repositories {
	return repository.Repositories{
		Tenants:    NewTenantRepository(q),
		Customers:  NewCustomerRepository(q),
		Equipment:  NewEquipmentRepository(q),
		Bookings:   NewBookingRepository(q),
		Movements:  NewStockMovementRepository(q),
		Costs:      NewEquipmentCostRepository(q),
		Activities: NewActivityRepository(q),
	}
}

// WithinTx runs fn in a READ COMMITTED transaction. Writers serialize on the
// equipment row locks taken through EquipmentRepository.GetForUpdate.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded schema once and records it in
// schema_migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, schemaVersion).Scan(&applied)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	if applied {
		logger.Info("Schema already up to date", "version", schemaVersion)
		return nil
	}

	return s.WithinTxRaw(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("failed to apply schema %s: %w", schemaVersion, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, schemaVersion); err != nil {
			return fmt.Errorf("failed to record schema %s: %w", schemaVersion, err)
		}
		logger.Info("Applied schema", "version", schemaVersion)
		return nil
	})
}

// WithinTxRaw runs fn against the bare *sql.Tx.
func (s *Store) WithinTxRaw(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
