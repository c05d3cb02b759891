package datastore

import (
	"context"
	"errors"
	"io"

	"github.com/danthegoodman1/rowbind/gologger"
)

var (
	logger = gologger.NewComponentLogger("datastore")

	ErrInvalidPath = errors.New("invalid path")
)

type (
	// DataStore holds the part files. Paths are slash separated and relative,
	// e.g. `t=events.Click/y=2023/2Jt1....parquet`.
	DataStore interface {
		// WriteFile stores the contents of r at path and returns the bytes written
		WriteFile(ctx context.Context, path string, r io.Reader) (int64, error)
		ReadFile(ctx context.Context, path string) ([]byte, error)
		// ListFiles lists the paths under prefix
		ListFiles(ctx context.Context, prefix string) ([]string, error)

		Shutdown(ctx context.Context) error
	}
)
