package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"expenditure/internal/config"
	"expenditure/pkg/contracts/domain"
)

// ErrCategoryNotFound is returned when a category was never loaded
var ErrCategoryNotFound = errors.New("category not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS expenditure (
		category TEXT NOT NULL,
		position INTEGER NOT NULL,
		state    TEXT NOT NULL,
		year     TEXT NOT NULL,
		value    DOUBLE PRECISION,
		imputed  BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenditure_category ON expenditure (category, position)`,
	// A loaded category may have no rows, so presence is tracked separately
	`CREATE TABLE IF NOT EXISTS categories (
		category  TEXT PRIMARY KEY,
		loaded_at TIMESTAMP NOT NULL
	)`,
	// Backfill databases created before the categories table existed
	`INSERT INTO categories (category, loaded_at)
		SELECT DISTINCT category, CURRENT_TIMESTAMP FROM expenditure WHERE true
		ON CONFLICT DO NOTHING`,
}

// Record is one stored observation. Value is NULL when it could not be imputed.
type Record struct {
	Category string          `db:"category" json:"category"`
	State    string          `db:"state" json:"state"`
	Year     string          `db:"year" json:"year"`
	Value    sql.NullFloat64 `db:"value" json:"-"`
	Imputed  bool            `db:"imputed" json:"imputed"`
}

// CategorySummary describes one stored category
type CategorySummary struct {
	Category string `db:"category" json:"category"`
	Records  int    `db:"records" json:"records"`
	States   int    `db:"states" json:"states"`
	Years    int    `db:"years" json:"years"`
	Imputed  int    `db:"imputed" json:"imputed"`
}

// Store is the relational sink for cleaned tables
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// driverName maps the configured driver onto the registered database/sql name
func driverName(driver string) string {
	if driver == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

// Open connects to the configured database and creates the schema
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.ConnectContext(ctx, driverName(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	if db.DriverName() == "sqlite3" {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, logger: logger.With(slog.String("component", "storage"))}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store.logger.Info("Database ready", slog.String("driver", cfg.Driver))
	return store, nil
}

// NewStore wraps an existing connection
func NewStore(db *sqlx.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With(slog.String("component", "storage"))}
}

// Migrate creates the tables and index if they are missing
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ReplaceCategory deletes the stored rows of table.Category, inserts the
// table's records and marks the category as loaded, in one transaction.
// An empty table still registers its category.
func (s *Store) ReplaceCategory(ctx context.Context, table *domain.CleanedTable) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM expenditure WHERE category = ?`), table.Category); err != nil {
		return fmt.Errorf("failed to clear category %s: %w", table.Category, err)
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(
		`INSERT INTO expenditure (category, position, state, year, value, imputed) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range table.Records {
		value := sql.NullFloat64{Float64: rec.Value, Valid: !math.IsNaN(rec.Value) && !math.IsInf(rec.Value, 0)}
		if _, err = stmt.ExecContext(ctx, table.Category, i, rec.State, rec.Year, value, rec.Imputed); err != nil {
			return fmt.Errorf("failed to insert record %d of %s: %w", i, table.Category, err)
		}
	}

	if _, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO categories (category, loaded_at) VALUES (?, ?)
		ON CONFLICT (category) DO UPDATE SET loaded_at = excluded.loaded_at`),
		table.Category, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to register category %s: %w", table.Category, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category %s: %w", table.Category, err)
	}

	s.logger.InfoContext(ctx, "Category stored",
		slog.String("category", table.Category),
		slog.Int("records", len(table.Records)))
	return nil
}

// Categories lists stored categories with their counts, by name
func (s *Store) Categories(ctx context.Context) ([]CategorySummary, error) {
	var out []CategorySummary
	err := s.db.SelectContext(ctx, &out, `
		SELECT c.category,
			COUNT(e.category) AS records,
			COUNT(DISTINCT e.state) AS states,
			COUNT(DISTINCT e.year) AS years,
			COALESCE(SUM(CASE WHEN e.imputed THEN 1 ELSE 0 END), 0) AS imputed
		FROM categories c
		LEFT JOIN expenditure e ON e.category = c.category
		GROUP BY c.category
		ORDER BY c.category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return out, nil
}

// Records returns the stored records of a category in load order. A loaded
// category without rows yields an empty slice.
func (s *Store) Records(ctx context.Context, category string) ([]Record, error) {
	var loaded int
	if err := s.db.GetContext(ctx, &loaded, s.db.Rebind(
		`SELECT COUNT(*) FROM categories WHERE category = ?`), category); err != nil {
		return nil, fmt.Errorf("failed to look up category %s: %w", category, err)
	}
	if loaded == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}

	out := []Record{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT category, state, year, value, imputed
		FROM expenditure
		WHERE category = ?
		ORDER BY position`), category)
	if err != nil {
		return nil, fmt.Errorf("failed to query category %s: %w", category, err)
	}
	return out, nil
}
