// Package postgres implements a Postgres repository using pgx v5. Reports are
// loaded with COPY, which is the fastest bulk path pgx offers.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopetl/internal/aggregate"
	"shopetl/internal/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	// DSN is the connection string for pgxpool.
	DSN string

	// TablePrefix is prepended to report names. A schema qualifier may be
	// included, e.g. "gold.".
	TablePrefix string
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository over a fresh connection pool.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, nil
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

// EnsureTable drops and recreates the report's table with types inferred from
// the report cells.
func (r *Repository) EnsureTable(ctx context.Context, t aggregate.Table) error {
	name := r.cfg.TablePrefix + t.Name

	if _, err := r.pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgFQN(name)); err != nil {
		return fmt.Errorf("postgres: drop %s: %w", name, err)
	}

	kinds := ddl.InferKinds(t.Columns, t.Rows)
	def := ddl.TableDef{FQN: pgFQN(name)}
	for i, col := range t.Columns {
		def.Columns = append(def.Columns, ddl.ColumnDef{
			Name:     pgIdent(col),
			SQLType:  sqlType(kinds[i]),
			Nullable: true,
		})
	}
	stmt, err := ddl.BuildCreateTableSQL(def)
	if err != nil {
		return fmt.Errorf("postgres: build ddl for %s: %w", name, err)
	}
	if _, err := r.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: create %s: %w", name, err)
	}
	return nil
}

// CopyFrom bulk-loads the report rows with COPY and returns the count.
func (r *Repository) CopyFrom(ctx context.Context, t aggregate.Table) (int64, error) {
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("postgres: CopyFrom: columns must not be empty")
	}
	if len(t.Rows) == 0 {
		return 0, nil
	}

	name := r.cfg.TablePrefix + t.Name
	n, err := r.pool.CopyFrom(ctx, splitFQN(name), t.Columns, pgx.CopyFromRows(t.Rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy into %s: %s (%s)", name, pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("postgres: copy into %s: %w", name, err)
	}
	return n, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// sqlType maps an inferred column kind to a Postgres type.
func sqlType(k ddl.Kind) string {
	switch k {
	case ddl.KindInt:
		return "BIGINT"
	case ddl.KindFloat:
		return "DOUBLE PRECISION"
	case ddl.KindBool:
		return "BOOLEAN"
	case ddl.KindTime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "gold.summary" to
// "gold"."summary". If no dot is present, returns a single quoted ident.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
