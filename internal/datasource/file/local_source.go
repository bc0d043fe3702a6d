// Package file implements the local-filesystem data source for raw entity
// batch files.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens one batch file from disk. The zero value is unbound; use
// NewLocal.
type Local struct{ path string }

// NewLocal binds a data source to path. The file is not touched until Open.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the bound path for reading. A canceled context returns
// immediately without touching the filesystem; filesystem errors are wrapped
// with the path but stay errors.Is-able (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
