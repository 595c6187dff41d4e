package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/checksum"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "vitrine-test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testSQLite(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM kv`).Scan(&count); err != nil {
		t.Fatalf("kv table missing: %v", err)
	}
}

func TestSQLitePutGetOverwrite(t *testing.T) {
	db := testSQLite(t)
	ctx := context.Background()
	if err := db.Put(ctx, KeyLayout, []byte(`[1]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := db.Put(ctx, KeyLayout, []byte(`[2]`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err := db.Get(ctx, KeyLayout)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "[2]" {
		t.Errorf("value = %q, want [2]", got)
	}
	cs, err := db.Checksum(ctx, KeyLayout)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if cs != checksum.Sum([]byte(`[2]`)) {
		t.Errorf("checksum = %q does not match content", cs)
	}
}

func TestSQLiteMissingAndDelete(t *testing.T) {
	db := testSQLite(t)
	ctx := context.Background()
	if _, err := db.Get(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get missing err = %v, want ErrNotFound", err)
	}
	_ = db.Put(ctx, "a", []byte("x"))
	_ = db.Put(ctx, "b", []byte("y"))
	if err := db.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	keys, err := db.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "b" {
		t.Errorf("keys = %v, want [b]", keys)
	}
}

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestCollectionRoundTrip(t *testing.T) {
	for name, store := range map[string]Store{"sqlite": testSQLite(t), "fs": tempFS(t)} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := NewCollection[record](store, "records", quietLogger())
			if got := c.Load(ctx); got == nil || len(got) != 0 {
				t.Fatalf("empty Load = %#v, want empty non-nil", got)
			}
			in := []record{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}
			if err := c.Save(ctx, in); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got := c.Load(ctx)
			if len(got) != 2 || got[0] != in[0] || got[1] != in[1] {
				t.Errorf("Load = %+v, want %+v", got, in)
			}
		})
	}
}

func TestCollectionCorruptValueIsCleared(t *testing.T) {
	db := testSQLite(t)
	ctx := context.Background()
	_ = db.Put(ctx, "records", []byte(`{not json`))

	c := NewCollection[record](db, "records", quietLogger())
	if got := c.Load(ctx); len(got) != 0 {
		t.Errorf("corrupt Load = %+v, want empty", got)
	}
	if _, err := db.Get(ctx, "records"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("corrupt key should be removed, Get err = %v", err)
	}
}

func TestCollectionCorruptValueLogsKey(t *testing.T) {
	db := testSQLite(t)
	ctx := context.Background()
	_ = db.Put(ctx, "records", []byte(`{not json`))

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	NewCollection[record](db, "records", logger).Load(ctx)

	var entry struct {
		Msg   string `json:"msg"`
		Key   string `json:"key"`
		Error string `json:"error"`
	}
	line, _, _ := bytes.Cut(buf.Bytes(), []byte("\n"))
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("log line %q: %v", line, err)
	}
	if entry.Key != "records" || entry.Error == "" {
		t.Errorf("log entry = %+v, want key and error attrs", entry)
	}
}

func TestCollectionSaveNilWritesEmptyArray(t *testing.T) {
	db := testSQLite(t)
	ctx := context.Background()
	c := NewCollection[record](db, "records", quietLogger())
	if err := c.Save(ctx, nil); err != nil {
		t.Fatal(err)
	}
	raw, err := db.Get(ctx, "records")
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "[]" {
		t.Errorf("raw = %q, want []", raw)
	}
}
