// Package storage defines the sink abstraction for persisting report tables
// and a factory over the concrete backends (csvdir, sqlite, postgres).
package storage

import (
	"context"
	"fmt"

	"shopetl/internal/aggregate"
	"shopetl/internal/storage/csvdir"
	"shopetl/internal/storage/postgres"
	"shopetl/internal/storage/sqlite"
)

// Repository persists report tables. One repository handles every report of a
// run; implementations derive the physical table or file name from
// aggregate.Table.Name.
type Repository interface {
	// EnsureTable prepares the destination for the report, replacing any
	// previous contents (reports are rebuilt whole on every run).
	EnsureTable(ctx context.Context, t aggregate.Table) error

	// CopyFrom bulk-loads the report rows and returns the count written.
	CopyFrom(ctx context.Context, t aggregate.Table) (int64, error)

	// Close releases underlying connections or handles.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind selects the backend: "csvdir", "sqlite" or "postgres".
	Kind string

	// Dir is the output directory for the csvdir backend.
	Dir string

	// DSN is the connection string for the database backends.
	DSN string

	// TablePrefix is prepended to report names for the database backends.
	TablePrefix string

	// BatchSize bounds rows per insert batch where the backend batches.
	BatchSize int
}

// New opens the backend selected by cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	switch cfg.Kind {
	case "csvdir":
		return csvdir.NewRepository(csvdir.Config{Dir: cfg.Dir})
	case "sqlite":
		return sqlite.NewRepository(ctx, sqlite.Config{
			DSN:         cfg.DSN,
			TablePrefix: cfg.TablePrefix,
			BatchSize:   cfg.BatchSize,
		})
	case "postgres":
		return postgres.NewRepository(ctx, postgres.Config{
			DSN:         cfg.DSN,
			TablePrefix: cfg.TablePrefix,
		})
	default:
		return nil, fmt.Errorf("storage: unknown kind %q", cfg.Kind)
	}
}
