package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/storage"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStore(t *testing.T) (*storage.LocalStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s, dir
}

func TestNewKey(t *testing.T) {
	cases := []struct {
		filename string
		pattern  string
	}{
		{filename: "solution.zip", pattern: `^42_[0-9a-f-]{36}\.zip$`},
		{filename: "Archive.TAR", pattern: `^42_[0-9a-f-]{36}\.tar$`},
		{filename: "noext", pattern: `^42_[0-9a-f-]{36}$`},
		{filename: "../../etc/passwd", pattern: `^42_[0-9a-f-]{36}$`},
		{filename: "evil.z/p", pattern: `^42_[0-9a-f-]{36}$`},
		{filename: "weird.ex e", pattern: `^42_[0-9a-f-]{36}$`},
	}

	for _, c := range cases {
		k := storage.NewKey(42, c.filename)
		if !regexp.MustCompile(c.pattern).MatchString(k) {
			t.Fatalf("%q: key %q does not match %s", c.filename, k, c.pattern)
		}
	}

	if storage.NewKey(1, "a.zip") == storage.NewKey(1, "a.zip") {
		t.Fatalf("keys must be unique")
	}
}

func TestPutOpenDelete(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	payload := []byte("PK\x03\x04 zip bytes")

	n, err := s.Put(ctx, "1_abc.zip", bytes.NewReader(payload), 1024)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("Put wrote %d bytes, want %d", n, len(payload))
	}

	rc, err := s.Open(ctx, "1_abc.zip")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, payload) {
		t.Fatalf("content mismatch: %q", got)
	}

	if err := s.Delete(ctx, "1_abc.zip"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "1_abc.zip"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := s.Open(ctx, "1_abc.zip"); !errors.Is(err, apperr.ErrArtifactMissing) {
		t.Fatalf("want ErrArtifactMissing, got %v", err)
	}
}

func TestPut_Rejects(t *testing.T) {
	s, dir := newStore(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, "empty", strings.NewReader(""), 10); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty payload: want ErrValidation, got %v", err)
	}
	if _, err := s.Put(ctx, "big", strings.NewReader("0123456789A"), 10); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("oversized payload: want ErrValidation, got %v", err)
	}
	if _, err := s.Put(ctx, "exact", strings.NewReader("0123456789"), 10); err != nil {
		t.Fatalf("payload at limit rejected: %v", err)
	}

	for _, key := range []string{"", "..", "../x", `a\b`, "sub/file"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), 10); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("key %q: want ErrValidation, got %v", key, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "exact" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("rejected uploads left files behind: %v", names)
	}
}

func TestPut_CancelledContext(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Put(ctx, "k", strings.NewReader("data"), 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if _, err := s.Open(context.Background(), "k"); !errors.Is(err, apperr.ErrArtifactMissing) {
		t.Fatalf("cancelled upload was stored: %v", err)
	}
}
