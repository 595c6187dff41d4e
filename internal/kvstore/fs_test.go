package kvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/vitrine/internal/apperr"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	s, err := OpenFS(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("OpenFS: %v", err)
	}
	return s
}

func TestFSPutAndGet(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	if err := s.Put(ctx, KeyPhotos, []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, KeyPhotos)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.root, "photos.json")); err != nil {
		t.Errorf("expected photos.json on disk: %v", err)
	}
}

func TestFSGetMissing(t *testing.T) {
	s := tempFS(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFSDeleteIsIdempotent(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	_ = s.Put(ctx, "k", []byte("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted key still readable: %v", err)
	}
}

func TestFSChecksumTracksContent(t *testing.T) {
	s := tempFS(t)
	ctx := context.Background()
	if cs, _ := s.Checksum(ctx, "k"); cs != "" {
		t.Errorf("missing key checksum = %q, want empty", cs)
	}
	_ = s.Put(ctx, "k", []byte("one"))
	a, _ := s.Checksum(ctx, "k")
	_ = s.Put(ctx, "k", []byte("two"))
	b, _ := s.Checksum(ctx, "k")
	if a == "" || a == b {
		t.Errorf("checksums a=%q b=%q, want distinct non-empty", a, b)
	}
}

func TestFSRejectsTraversalKeys(t *testing.T) {
	s := tempFS(t)
	for _, key := range []string{"", "../escape", "a/b", "..", `a\b`} {
		if err := s.Put(context.Background(), key, []byte("x")); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("Put(%q) err = %v, want ErrInvalid", key, err)
		}
	}
}

func TestFSLeavesNoTempFiles(t *testing.T) {
	s := tempFS(t)
	_ = s.Put(context.Background(), "k", []byte("v"))
	entries, err := os.ReadDir(s.root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "k.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir entries = %v, want [k.json]", names)
	}
}
