// Package storage keeps submitted deliverables on the local filesystem under
// opaque keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/google/uuid"
)

// Store is the byte-store the marketplace writes deliverables to.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, limit int64) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

const maxExtLen = 16

// NewKey returns a fresh key "<taskID>_<uuid><ext>", keeping the extension of
// filename when it is short and alphanumeric.
func NewKey(taskID int64, filename string) string {
	return fmt.Sprintf("%d_%s%s", taskID, uuid.NewString(), cleanExt(filename))
}

func cleanExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// LocalStore stores each key as one file inside dir.
type LocalStore struct {
	dir string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", apperr.Validationf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Put writes r under key. It reads at most limit bytes; an empty payload or
// one larger than limit is rejected and nothing is left behind.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, limit int64) (int64, error) {
	dst, err := s.path(key)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(&ctxReader{ctx: ctx, r: r}, limit+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write deliverable: %w", err)
	}
	if n == 0 {
		return 0, apperr.Validationf("deliverable is empty")
	}
	if n > limit {
		return 0, apperr.Validationf("deliverable exceeds %d bytes", limit)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, fmt.Errorf("store deliverable: %w", err)
	}

	return n, nil
}

// Open returns the stored bytes; apperr.ErrArtifactMissing when key is absent.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrArtifactMissing
		}
		return nil, fmt.Errorf("open deliverable: %w", err)
	}

	return f, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete deliverable: %w", err)
	}
	return nil
}

// ctxReader stops a long upload copy once the request is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
