// Package loader persists parsed vocabulary clusters into PostgreSQL.
// Every table lives in the dedicated "vocabulary" schema and is dropped
// and recreated on each load; a failing table rolls back its own
// transaction without aborting the remaining tables.
package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ecolabdata/ecospheres-vocabularies/metrics"
	"github.com/ecolabdata/ecospheres-vocabularies/table"
)

// SchemaName is the storage namespace holding every vocabulary table.
const SchemaName = "vocabulary"

// Loader writes clusters to the database.
type Loader struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a loader. A nil logger falls back to slog.Default().
func New(db *sql.DB, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{db: db, logger: logger}
}

// Report summarizes one cluster load.
type Report struct {
	// Loaded lists the persisted table names in load order.
	Loaded []string
	// Skipped lists in-memory-only tables (no schema descriptor).
	Skipped []string
	// Failed maps table names to the error that rolled them back.
	Failed map[string]error
}

// OK reports whether every persistable table was loaded.
func (r *Report) OK() bool { return len(r.Failed) == 0 }

// EnsureSchema creates the vocabulary schema when missing.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(SchemaName))
	if err != nil {
		return fmt.Errorf("create schema %s: %w", SchemaName, err)
	}
	return nil
}

// Load persists every table of the cluster that carries a schema
// descriptor, in cluster iteration order. Each table gets its own
// transaction scoping drop, create and bulk insert; errors are collected
// in the report, never raised for a single table.
func (l *Loader) Load(ctx context.Context, cluster *table.Cluster) (*Report, error) {
	if err := l.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	session := uuid.New().String()
	report := &Report{Failed: make(map[string]error)}
	logger := l.logger.With("vocabulary", cluster.Vocabulary(), "session", session)

	for _, name := range cluster.Names() {
		t := cluster.Table(name)
		schema := t.Schema()
		if schema == nil {
			logger.Info("Skipping in-memory table", "table", name)
			report.Skipped = append(report.Skipped, name)
			continue
		}

		start := time.Now()
		if err := l.loadTable(ctx, t, schema); err != nil {
			logger.Error("Table load failed", "table", schema.Name, "error", err)
			report.Failed[schema.Name] = err
			continue
		}
		elapsed := time.Since(start)
		metrics.LoadDuration.WithLabelValues(schema.Name).Observe(elapsed.Seconds())
		metrics.LoadedRows.WithLabelValues(schema.Name).Set(float64(t.Len()))
		logger.Info("Table loaded", "table", schema.Name, "rows", t.Len(), "elapsed", elapsed)
		report.Loaded = append(report.Loaded, schema.Name)
	}
	return report, nil
}

// loadTable drops, recreates and fills one table inside a transaction.
func (l *Loader) loadTable(ctx context.Context, t *table.Table, schema *table.Schema) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qualified := pq.QuoteIdentifier(SchemaName) + "." + pq.QuoteIdentifier(schema.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+qualified+" CASCADE"); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createStatement(schema)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	for _, stmt := range indexStatements(schema) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	if err := copyRows(ctx, tx, t, schema); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// copyRows bulk-inserts the table rows with COPY, preserving row order.
func copyRows(ctx context.Context, tx *sql.Tx, t *table.Table, schema *table.Schema) error {
	columns := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		columns[i] = col.Name
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(SchemaName, schema.Name, columns...))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	defer stmt.Close()

	for _, row := range t.Rows() {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = row.Value(col)
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("copy row: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flush copy: %w", err)
	}
	return nil
}
