// Package datasource defines the minimal contract for raw input providers.
// Implementations live in subpackages (file, httpds).
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one entity batch.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
