// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. It performs batched INSERTs inside a transaction; SQLite does
// not have a dedicated bulk-load API like Postgres COPY, but transactions keep
// performance acceptable for report-sized volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver; replace with your preferred driver if desired.
	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3

	"shopetl/internal/aggregate"
	"shopetl/internal/ddl"
)

// Config holds SQLite repository configuration.
type Config struct {
	// DSN is passed directly to database/sql; for example:
	//
	//	"file:reports.db?cache=shared"
	//	"reports.db"
	//	":memory:"
	DSN string

	// TablePrefix is prepended to report names, e.g. "gold_".
	TablePrefix string

	// BatchSize bounds rows per transaction. Zero means one transaction for
	// the whole report.
	BatchSize int
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Repository{db: db, cfg: cfg}, nil
}

// Close releases the database handle.
func (r *Repository) Close() { _ = r.db.Close() }

// EnsureTable drops and recreates the report's table with types inferred from
// the report cells.
func (r *Repository) EnsureTable(ctx context.Context, t aggregate.Table) error {
	name := r.cfg.TablePrefix + t.Name

	if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("sqlite: drop %s: %w", name, err)
	}

	kinds := ddl.InferKinds(t.Columns, t.Rows)
	def := ddl.TableDef{FQN: name}
	for i, col := range t.Columns {
		def.Columns = append(def.Columns, ddl.ColumnDef{
			Name:     col,
			SQLType:  sqlType(kinds[i]),
			Nullable: true,
		})
	}
	stmt, err := ddl.BuildCreateTableSQL(def)
	if err != nil {
		return fmt.Errorf("sqlite: build ddl for %s: %w", name, err)
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: create %s: %w", name, err)
	}
	return nil
}

// CopyFrom inserts the report rows using batched transactions with a prepared
// statement. It returns the number of rows successfully inserted.
func (r *Repository) CopyFrom(ctx context.Context, t aggregate.Table) (int64, error) {
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(t.Rows) == 0 {
		return 0, nil
	}

	name := r.cfg.TablePrefix + t.Name
	placeholders := make([]string, len(t.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		name,
		strings.Join(t.Columns, ", "),
		strings.Join(placeholders, ", "),
	)

	batch := r.cfg.BatchSize
	if batch <= 0 {
		batch = len(t.Rows)
	}

	var inserted int64
	for start := 0; start < len(t.Rows); start += batch {
		end := start + batch
		if end > len(t.Rows) {
			end = len(t.Rows)
		}

		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return inserted, fmt.Errorf("sqlite: begin tx: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, stmtSQL)
		if err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: prepare insert: %w", err)
		}

		for _, row := range t.Rows[start:end] {
			if len(row) != len(t.Columns) {
				_ = stmt.Close()
				_ = tx.Rollback()
				return inserted, fmt.Errorf("sqlite: CopyFrom: row length %d != columns length %d", len(row), len(t.Columns))
			}
			if _, err := stmt.ExecContext(ctx, bindRow(row)...); err != nil {
				_ = stmt.Close()
				_ = tx.Rollback()
				return inserted, fmt.Errorf("sqlite: insert: %w", err)
			}
			inserted++
		}

		_ = stmt.Close()
		if err := tx.Commit(); err != nil {
			return inserted, fmt.Errorf("sqlite: commit: %w", err)
		}
	}
	return inserted, nil
}

// Exec executes an arbitrary SQL statement (typically DDL) using the underlying
// database/sql connection.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// sqlType maps an inferred column kind to SQLite's storage classes.
func sqlType(k ddl.Kind) string {
	switch k {
	case ddl.KindInt, ddl.KindBool:
		return "INTEGER"
	case ddl.KindFloat:
		return "REAL"
	case ddl.KindTime:
		return "TEXT"
	default:
		return "TEXT"
	}
}

// bindRow converts cell values the driver has no native encoding for:
// timestamps become RFC3339 text, bools become 0/1.
func bindRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		switch t := v.(type) {
		case time.Time:
			out[i] = t.UTC().Format(time.RFC3339)
		case bool:
			if t {
				out[i] = 1
			} else {
				out[i] = 0
			}
		default:
			out[i] = v
		}
	}
	return out
}
