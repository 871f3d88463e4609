// Package export loads a canonical dataset into a queryable SQLite file.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mnbizdata/filings-crawler/internal/merge"
	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// Exporter writes business records into a SQLite database.
type Exporter struct {
	logger *zap.Logger
}

// New constructs an Exporter.
func New(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Run reads the canonical dataset at inputPath and rebuilds the businesses
// table at dbPath. The table is replaced wholesale so the export always
// reflects exactly one dataset.
func (e *Exporter) Run(ctx context.Context, inputPath, dbPath string) (int, error) {
	records, err := merge.ReadDataset(inputPath)
	if err != nil {
		return 0, err
	}

	db, err := openDB(ctx, dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := createSchema(ctx, db); err != nil {
		return 0, err
	}

	n, err := insertRecords(ctx, db, records)
	if err != nil {
		return 0, err
	}

	e.logger.Info("Export complete",
		zap.String("input", inputPath),
		zap.String("database", dbPath),
		zap.Int("records", n),
	)
	return n, nil
}

func openDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	return db, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`DROP TABLE IF EXISTS businesses;`,
		`CREATE TABLE businesses (
			file_number INTEGER PRIMARY KEY,
			` + textColumnDefs() + `
		);`,
		`CREATE INDEX idx_businesses_type ON businesses (business_type);`,
		`CREATE INDEX idx_businesses_status ON businesses (status);`,
		`CREATE INDEX idx_businesses_filing_date ON businesses (filing_date);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// textColumnDefs renders every schema column after file_number as TEXT, so
// the table always tracks the CSV schema.
func textColumnDefs() string {
	defs := make([]string, 0, len(registry.Columns)-1)
	for _, col := range registry.Columns[1:] {
		defs = append(defs, col+" TEXT NOT NULL")
	}
	return strings.Join(defs, ",\n\t\t\t")
}

func insertRecords(ctx context.Context, db *sql.DB, records []*registry.BusinessRecord) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	placeholders := make([]string, len(registry.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf(
		"INSERT INTO businesses (%s) VALUES (%s)",
		strings.Join(registry.Columns, ", "),
		strings.Join(placeholders, ", "),
	)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		args := make([]any, 0, len(registry.Columns))
		args = append(args, rec.FileNumber)
		for _, field := range rec.Row()[1:] {
			args = append(args, field)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", rec.FileNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}
