// Package csvdir implements a directory sink: each report table is written as
// one CSV file (<dir>/<report>.csv) with a header row. Files are rewritten
// whole on every run, so reruns over the same cleaned data are byte-identical.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"shopetl/internal/aggregate"
)

// Config configures the directory sink.
type Config struct {
	// Dir is created if missing.
	Dir string
}

// Repository writes one CSV file per report.
type Repository struct {
	dir string
}

// NewRepository validates the config and creates the output directory.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("csvdir: dir must not be empty")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("csvdir: create dir: %w", err)
	}
	return &Repository{dir: cfg.Dir}, nil
}

// EnsureTable removes a stale report file if present. CopyFrom recreates it.
func (r *Repository) EnsureTable(ctx context.Context, t aggregate.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := r.path(t.Name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("csvdir: remove %s: %w", path, err)
	}
	return nil
}

// CopyFrom writes the header and rows. The file is fsync-free; a failed run
// leaves at worst a partial file that the next run overwrites.
func (r *Repository) CopyFrom(ctx context.Context, t aggregate.Table) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path := r.path(t.Name)
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("csvdir: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return 0, fmt.Errorf("csvdir: write header: %w", err)
	}

	var written int64
	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return written, fmt.Errorf("csvdir: row length %d != columns length %d in %s", len(row), len(t.Columns), t.Name)
		}
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		if err := w.Write(cells); err != nil {
			return written, fmt.Errorf("csvdir: write row: %w", err)
		}
		written++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return written, fmt.Errorf("csvdir: flush %s: %w", path, err)
	}
	return written, nil
}

// Close is a no-op; files are closed per report.
func (r *Repository) Close() {}

func (r *Repository) path(name string) string {
	return filepath.Join(r.dir, name+".csv")
}

// formatCell renders one cell. Floats print with two decimals since every
// monetary and percentage value is rounded to cents upstream.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
