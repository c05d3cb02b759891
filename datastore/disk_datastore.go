package datastore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type (
	DiskDataStore struct {
		rootPath string
	}
)

func NewDiskDataStore(rootPath string) (*DiskDataStore, error) {
	err := os.MkdirAll(rootPath, 0o755)
	if err != nil {
		return nil, fmt.Errorf("error in os.MkdirAll: %w", err)
	}
	dds := &DiskDataStore{
		rootPath: rootPath,
	}

	return dds, nil
}

// fullPath rejects paths that would leave the root
func (dds *DiskDataStore) fullPath(p string) (string, error) {
	clean := path.Clean("/" + p)
	if clean == "/" || p == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return filepath.Join(dds.rootPath, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func (dds *DiskDataStore) WriteFile(ctx context.Context, p string, r io.Reader) (int64, error) {
	full, err := dds.fullPath(p)
	if err != nil {
		return 0, err
	}
	err = os.MkdirAll(filepath.Dir(full), 0o755)
	if err != nil {
		return 0, fmt.Errorf("error in os.MkdirAll: %w", err)
	}

	// write to a temp file first so readers never see a partial part
	tmp := full + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("error in os.Create: %w", err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("error writing %s: %w", p, err)
	}
	err = os.Rename(tmp, full)
	if err != nil {
		return 0, fmt.Errorf("error in os.Rename: %w", err)
	}

	logger.Debug().Str("path", p).Int64("bytes", n).Msg("wrote file to disk")
	return n, nil
}

func (dds *DiskDataStore) ReadFile(_ context.Context, p string) ([]byte, error) {
	full, err := dds.fullPath(p)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("error in os.ReadFile: %w", err)
	}
	return b, nil
}

func (dds *DiskDataStore) ListFiles(_ context.Context, prefix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dds.rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(dds.rootPath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error in filepath.WalkDir: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (dds *DiskDataStore) Shutdown(context.Context) error {
	return nil
}
