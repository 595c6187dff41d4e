// Package testutil provides shared test helpers for setting up stores and loggers.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/vitrine/internal/kvstore"
)

// TestStore creates a temporary SQLite store that is automatically cleaned up.
func TestStore(t *testing.T) *kvstore.SQLite {
	t.Helper()
	db, err := kvstore.OpenSQLite(filepath.Join(t.TempDir(), "vitrine-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFSStore creates a temporary file-backed store.
func TestFSStore(t *testing.T) (string, *kvstore.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := kvstore.OpenFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
