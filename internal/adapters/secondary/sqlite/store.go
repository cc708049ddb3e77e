package sqlite

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/denchenko/gmm/internal/config"
	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	do "github.com/samber/do/v2"
	"go.uber.org/zap"
)

// Fixed width keeps lexical order equal to chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements the app.RosterStore port on a local SQLite file.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewStore opens the roster database configured for the application (for DI).
func NewStore(i do.Injector) (*Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*zap.Logger](i)

	return Open(cfg.DBPath, logger)
}

// Open opens (creating when missing) the database at path and applies pending migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug("opening roster database", zap.String("db_path", path))

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps per-connection pragmas in effect.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		_ = db.Close()

		return nil, err
	}

	logger.Debug("roster database ready")

	return &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

func applyMigrations(db *sqlx.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// The migrator is not closed, closing it would close db as well.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Shutdown closes the database.
func (s *Store) Shutdown() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func storeError(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}

// rollback is deferred right after a transaction begins, it is a no-op after commit.
func rollback(tx *sqlx.Tx) {
	_ = tx.Rollback()
}
