package library

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/kvstore"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/testutil"
)

func pngReader(t *testing.T) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 30))); err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(buf.Bytes())
}

func newLibrary(t *testing.T) (*Library, kvstore.Store) {
	t.Helper()
	store := testutil.TestStore(t)
	l := New(store, nil, testutil.Logger())
	l.now = func() time.Time { return time.UnixMilli(1700000000000) }
	l.Load(context.Background())
	return l, store
}

func TestAddPersists(t *testing.T) {
	l, store := newLibrary(t)
	ctx := context.Background()

	p, err := l.Add(ctx, NewPhoto{Title: " Dusk ", Tags: []string{"night", " night", "city"}, Image: pngReader(t)})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if p.ID != "1700000000000" || p.Title != "Dusk" || len(p.Tags) != 2 {
		t.Errorf("photo = %+v", p)
	}
	if !strings.HasPrefix(p.Src, "data:image/") || p.Source != models.SourceLibrary {
		t.Errorf("src/source = %q / %q", p.Src[:20], p.Source)
	}

	// Same clock tick: the id is bumped.
	q, err := l.Add(ctx, NewPhoto{Title: "Dawn", Image: pngReader(t)})
	if err != nil {
		t.Fatal(err)
	}
	if q.ID == p.ID {
		t.Errorf("duplicate id %s", q.ID)
	}

	reloaded := New(store, nil, testutil.Logger())
	reloaded.Load(ctx)
	if got := reloaded.List(); len(got) != 2 || got[0].ID != p.ID {
		t.Errorf("reloaded = %+v", got)
	}
}

func TestAddValidation(t *testing.T) {
	l, _ := newLibrary(t)
	ctx := context.Background()
	if _, err := l.Add(ctx, NewPhoto{Title: "  ", Image: pngReader(t)}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty title err = %v", err)
	}
	if _, err := l.Add(ctx, NewPhoto{Title: "x"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("missing image err = %v", err)
	}
	bad := 120.0
	if _, err := l.Add(ctx, NewPhoto{Title: "x", Image: pngReader(t), Lat: &bad}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad lat err = %v", err)
	}
	if _, err := l.Add(ctx, NewPhoto{Title: "x", Image: strings.NewReader("plain text")}); !errors.Is(err, apperr.ErrNotImage) {
		t.Errorf("non-image err = %v", err)
	}
	if len(l.List()) != 0 {
		t.Error("failed adds changed state")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	l, _ := newLibrary(t)
	ctx := context.Background()
	p, _ := l.Add(ctx, NewPhoto{Title: "A", Image: pngReader(t)})

	title, tags := "B", "street, , bw"
	got, err := l.Update(ctx, p.ID, Patch{Title: &title, Tags: &tags})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "B" || len(got.Tags) != 2 || got.Tags[1] != "bw" {
		t.Errorf("updated = %+v", got)
	}

	blank := ""
	if _, err := l.Update(ctx, p.ID, Patch{Title: &blank}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("blank title err = %v", err)
	}
	if _, err := l.Update(ctx, "nope", Patch{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown err = %v", err)
	}

	if err := l.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := l.Get(p.ID); ok {
		t.Error("photo still present")
	}
	if err := l.Delete(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

// countingStore counts writes to detect redundant persistence.
type countingStore struct {
	kvstore.Store
	puts int
}

func (c *countingStore) Put(ctx context.Context, key string, value []byte) error {
	c.puts++
	return c.Store.Put(ctx, key, value)
}

func TestSetExhibitedPersistsOnlyOnChange(t *testing.T) {
	cs := &countingStore{Store: testutil.TestStore(t)}
	l := New(cs, nil, testutil.Logger())
	ctx := context.Background()
	l.Load(ctx)
	p, _ := l.Add(ctx, NewPhoto{Title: "A", Image: pngReader(t)})
	base := cs.puts

	n, err := l.SetExhibited(ctx, map[string]struct{}{p.ID: {}})
	if err != nil || n != 1 {
		t.Fatalf("SetExhibited = %d, %v", n, err)
	}
	if cs.puts != base+1 {
		t.Errorf("puts = %d, want %d", cs.puts, base+1)
	}
	n, _ = l.SetExhibited(ctx, map[string]struct{}{p.ID: {}})
	if n != 0 || cs.puts != base+1 {
		t.Errorf("no-op SetExhibited wrote: n=%d puts=%d", n, cs.puts)
	}
	got, _ := l.Get(p.ID)
	if !got.InExhibition {
		t.Error("flag not set")
	}
}

func TestMigrateLegacyRecords(t *testing.T) {
	store := testutil.TestStore(t)
	ctx := context.Background()
	_ = store.Put(ctx, kvstore.KeyPhotos, []byte(`[{"id": 42, "title": "Old", "tag": "film", "url": "data:image/png;base64,AA"}]`))

	l := New(store, nil, testutil.Logger())
	l.Load(ctx)
	got := l.List()
	if len(got) != 1 || got[0].ID != "42" || got[0].Src != "data:image/png;base64,AA" || got[0].Tags[0] != "film" {
		t.Fatalf("loaded = %+v", got)
	}

	migrated, err := l.Migrate(ctx)
	if err != nil || !migrated {
		t.Fatalf("Migrate = %v, %v", migrated, err)
	}
	raw, _ := store.Get(ctx, kvstore.KeyPhotos)
	if bytes.Contains(raw, []byte(`"url"`)) || !bytes.Contains(raw, []byte(`"src"`)) || !bytes.Contains(raw, []byte(`"id":"42"`)) {
		t.Errorf("stored after migrate = %s", raw)
	}

	again, _ := l.Migrate(ctx)
	if again {
		t.Error("second Migrate rewrote canonical data")
	}
}
