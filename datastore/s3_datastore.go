package datastore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/danthegoodman1/rowbind/s3_helper"
)

type (
	S3DataStore struct {
		client *s3_helper.Client
		// prefix is prepended to every key, without a leading slash
		prefix string
	}
)

func NewS3DataStore(client *s3_helper.Client, prefix string) *S3DataStore {
	return &S3DataStore{
		client: client,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (sds *S3DataStore) key(p string) string {
	p = strings.TrimPrefix(p, "/")
	if sds.prefix == "" {
		return p
	}
	return sds.prefix + "/" + p
}

func (sds *S3DataStore) WriteFile(ctx context.Context, p string, r io.Reader) (int64, error) {
	if p == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	cr := &countingReader{r: r}
	_, err := sds.client.WriteBytesToS3(ctx, sds.key(p), cr, nil)
	if err != nil {
		return 0, fmt.Errorf("error in WriteBytesToS3: %w", err)
	}
	return cr.n, nil
}

func (sds *S3DataStore) ReadFile(ctx context.Context, p string) ([]byte, error) {
	b, err := sds.client.ReadBytesFromS3(ctx, sds.key(p))
	if err != nil {
		return nil, fmt.Errorf("error in ReadBytesFromS3: %w", err)
	}
	return b, nil
}

func (sds *S3DataStore) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	keys, err := sds.client.ListKeys(ctx, sds.key(prefix))
	if err != nil {
		return nil, fmt.Errorf("error in ListKeys: %w", err)
	}
	files := make([]string, 0, len(keys))
	for _, k := range keys {
		if sds.prefix != "" {
			k = strings.TrimPrefix(k, sds.prefix+"/")
		}
		files = append(files, k)
	}
	return files, nil
}

func (sds *S3DataStore) Shutdown(context.Context) error {
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
