package exhibition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math/rand/v2"
	"testing"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/kvstore"
	"github.com/starford/vitrine/internal/library"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/reconcile"
	"github.com/starford/vitrine/internal/testutil"
)

type env struct {
	engine  *Engine
	catalog *catalog.Catalog
	library *library.Library
	store   kvstore.Store
	changes []Change
}

type sources struct {
	c *catalog.Catalog
	l *library.Library
}

func (s sources) Lookup(id string) (models.Photo, bool) {
	if p, ok := s.c.Get(id); ok {
		return p, true
	}
	return s.l.Get(id)
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := testutil.TestStore(t)
	cat := catalog.New(catalog.Default())
	lib := library.New(store, nil, testutil.Logger())
	lib.Load(context.Background())
	rec := reconcile.New(cat, lib, testutil.Logger())

	ev := &env{catalog: cat, library: lib, store: store}
	e := New(store, sources{cat, lib}, rec, Config{}, testutil.Logger())
	n := 0
	e.newID = func() string { n++; return fmt.Sprintf("id%d", n) }
	e.OnChange(func(c Change) { ev.changes = append(ev.changes, c) })
	if err := e.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	ev.engine = e
	return ev
}

// addUserPhoto uploads a tiny image into the user collection.
func (ev *env) addUserPhoto(t *testing.T, title string) models.Photo {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	p, err := ev.library.Add(context.Background(), library.NewPhoto{Title: title, Image: &buf})
	if err != nil {
		t.Fatalf("library add: %v", err)
	}
	return p
}

// assertReconciled checks every flag, catalog and user collection, equals
// layout membership.
func (ev *env) assertReconciled(t *testing.T) {
	t.Helper()
	members := models.Membership(ev.engine.Items())
	for _, w := range ev.catalog.All() {
		if _, in := members[w.ID]; in != w.InExhibition {
			t.Fatalf("%s inExhibition = %v, membership = %v", w.ID, w.InExhibition, in)
		}
	}
	for _, p := range ev.library.List() {
		if _, in := members[p.ID]; in != p.InExhibition {
			t.Fatalf("user photo %s inExhibition = %v, membership = %v", p.ID, p.InExhibition, in)
		}
	}
}

func TestAddPhotoDefaultsAndDuplicate(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()

	it, err := ev.engine.AddPhoto(ctx, "work1")
	if err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	if it.XPercent != 30 || it.YPercent != 30 || it.WidthPercent != 18 || it.Caption != nil {
		t.Errorf("item = %+v", it)
	}
	if _, err := ev.engine.AddPhoto(ctx, "work1"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate err = %v, want ErrAlreadyExists", err)
	}
	if ev.engine.Count() != 1 {
		t.Errorf("count = %d, want 1", ev.engine.Count())
	}
	if _, err := ev.engine.AddPhoto(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown err = %v, want ErrNotFound", err)
	}
	w, _ := ev.catalog.Get("work1")
	if !w.InExhibition {
		t.Error("work1 not flagged")
	}
	if len(ev.changes) != 2 || ev.changes[1].Kind != "added" || ev.changes[1].Count != 1 {
		t.Errorf("changes = %+v", ev.changes)
	}
}

func TestAddText(t *testing.T) {
	ev := newEnv(t)
	it, err := ev.engine.AddText(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if it.ID != "text-id1" || it.Type != models.ItemText || it.FontSize != models.FontMedium || it.Align != "left" {
		t.Errorf("item = %+v", it)
	}
	if it.XPercent != 30 || it.YPercent != 20 || it.WidthPercent != 30 || it.Content == "" {
		t.Errorf("placement = %+v", it)
	}
}

func TestAddTextBlock(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()

	it, err := ev.engine.AddTextBlock(ctx, "Room two", models.FontLarge)
	if err != nil {
		t.Fatal(err)
	}
	if it.Content != "Room two" || it.FontSize != models.FontLarge {
		t.Errorf("item = %+v", it)
	}
	if len(ev.changes) != 1 {
		t.Errorf("changes = %d, want one commit", len(ev.changes))
	}

	if _, err := ev.engine.AddTextBlock(ctx, "x", "huge"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
	if ev.engine.Count() != 1 || len(ev.changes) != 1 {
		t.Errorf("rejected add changed layout: count = %d, changes = %d", ev.engine.Count(), len(ev.changes))
	}
}

func TestUserPhotoFlagFollowsLayout(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()
	p := ev.addUserPhoto(t, "Harbour")

	it, err := ev.engine.AddPhoto(ctx, p.ID)
	if err != nil {
		t.Fatalf("AddPhoto: %v", err)
	}
	ev.assertReconciled(t)
	if got, _ := ev.library.Get(p.ID); !got.InExhibition {
		t.Error("user photo not flagged after add")
	}

	if err := ev.engine.Remove(ctx, it.ID); err != nil {
		t.Fatal(err)
	}
	ev.assertReconciled(t)

	_, _ = ev.engine.AddPhoto(ctx, p.ID)
	if err := ev.engine.Clear(ctx, true); err != nil {
		t.Fatal(err)
	}
	ev.assertReconciled(t)
	if got, _ := ev.library.Get(p.ID); got.InExhibition {
		t.Error("user photo still flagged after clear")
	}

	// The persisted collection carries the cleared flag.
	_, _ = ev.engine.AddPhoto(ctx, p.ID)
	reloaded := library.New(ev.store, nil, testutil.Logger())
	reloaded.Load(ctx)
	if got, ok := reloaded.Get(p.ID); !ok || !got.InExhibition {
		t.Errorf("reloaded = %+v, %v; want flagged", got, ok)
	}
}

func TestResizeRejectsOutOfRange(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()
	it, _ := ev.engine.AddPhoto(ctx, "work2")

	got, err := ev.engine.Resize(ctx, it.ID, 30)
	if err != nil || got.WidthPercent != 48 {
		t.Fatalf("resize +30 = %v, %v", got.WidthPercent, err)
	}
	if _, err := ev.engine.Resize(ctx, it.ID, 5); !errors.Is(err, apperr.ErrOutOfRange) {
		t.Errorf("resize past max err = %v", err)
	}
	cur, _ := ev.engine.Get(it.ID)
	if cur.WidthPercent != 48 {
		t.Errorf("width = %v after rejected resize, want 48 (no clamp)", cur.WidthPercent)
	}
	if _, err := ev.engine.Resize(ctx, it.ID, -41); !errors.Is(err, apperr.ErrOutOfRange) {
		t.Errorf("resize below min err = %v", err)
	}
	if _, err := ev.engine.Resize(ctx, it.ID, -40); err != nil {
		t.Errorf("resize to exactly 8: %v", err)
	}
	if _, err := ev.engine.Resize(ctx, "nope", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown item err = %v", err)
	}
}

func TestRepositionClamps(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()
	it, _ := ev.engine.AddPhoto(ctx, "work3")

	got, _ := ev.engine.Reposition(ctx, it.ID, 95, 99)
	if got.XPercent != 82 || got.YPercent != 92 {
		t.Errorf("clamped = (%v, %v), want (82, 92)", got.XPercent, got.YPercent)
	}
	got, _ = ev.engine.Reposition(ctx, it.ID, -3, -1)
	if got.XPercent != 0 || got.YPercent != 0 {
		t.Errorf("clamped = (%v, %v), want (0, 0)", got.XPercent, got.YPercent)
	}
	got, _ = ev.engine.Reposition(ctx, it.ID, 12.5, 40)
	if got.XPercent != 12.5 || got.YPercent != 40 {
		t.Errorf("in range = (%v, %v)", got.XPercent, got.YPercent)
	}
}

func TestCaptionAndText(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()
	photo, _ := ev.engine.AddPhoto(ctx, "work4")
	text, _ := ev.engine.AddText(ctx)

	got, err := ev.engine.SetCaption(ctx, photo.ID, "")
	if err != nil || got.Caption == nil || *got.Caption != "" {
		t.Fatalf("SetCaption empty = %+v, %v", got, err)
	}
	if _, err := ev.engine.SetCaption(ctx, text.ID, "x"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("caption on text err = %v", err)
	}
	got, err = ev.engine.SetTextContent(ctx, text.ID, "")
	if err != nil || got.Content != "" {
		t.Errorf("SetTextContent empty = %+v, %v", got, err)
	}
	got, err = ev.engine.SetFontSize(ctx, text.ID, models.FontLarge)
	if err != nil || got.FontSize != models.FontLarge {
		t.Errorf("SetFontSize = %+v, %v", got, err)
	}
	if _, err := ev.engine.SetFontSize(ctx, text.ID, "huge"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad font err = %v", err)
	}
	if _, err := ev.engine.SetFontSize(ctx, photo.ID, models.FontSmall); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("font on photo err = %v", err)
	}
}

func TestRemoveResetsFlag(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()
	it, _ := ev.engine.AddPhoto(ctx, "work5")
	if err := ev.engine.Remove(ctx, it.ID); err != nil {
		t.Fatal(err)
	}
	w, _ := ev.catalog.Get("work5")
	if w.InExhibition || ev.engine.Count() != 0 {
		t.Errorf("after remove flag=%v count=%d", w.InExhibition, ev.engine.Count())
	}
	if err := ev.engine.Remove(ctx, it.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second remove err = %v", err)
	}
}

// countingStore counts writes.
type countingStore struct {
	kvstore.Store
	puts int
}

func (c *countingStore) Put(ctx context.Context, key string, value []byte) error {
	c.puts++
	return c.Store.Put(ctx, key, value)
}

func TestClear(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()
	for _, id := range []string{"work1", "work2", "work3"} {
		if _, err := ev.engine.AddPhoto(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	if err := ev.engine.Clear(ctx, false); !errors.Is(err, apperr.ErrConfirmationRequired) {
		t.Errorf("unconfirmed err = %v", err)
	}
	if ev.engine.Count() != 3 {
		t.Fatal("unconfirmed clear changed layout")
	}
	if err := ev.engine.Clear(ctx, true); err != nil {
		t.Fatal(err)
	}
	if ev.engine.Count() != 0 {
		t.Errorf("count = %d", ev.engine.Count())
	}
	ev.assertReconciled(t)
	for _, w := range ev.catalog.All() {
		if w.InExhibition {
			t.Errorf("%s still flagged", w.ID)
		}
	}
}

func TestClearEmptyIsNoop(t *testing.T) {
	cs := &countingStore{Store: testutil.TestStore(t)}
	cat := catalog.New(catalog.Default())
	lib := library.New(cs, nil, testutil.Logger())
	e := New(cs, sources{cat, lib}, reconcile.New(cat, lib, testutil.Logger()), Config{}, testutil.Logger())
	ctx := context.Background()
	_ = e.Load(ctx)
	before := cs.puts
	if err := e.Clear(ctx, true); err != nil {
		t.Fatal(err)
	}
	if cs.puts != before {
		t.Errorf("empty clear wrote %d times", cs.puts-before)
	}
}

func TestLoadPersistedLayout(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()
	it, _ := ev.engine.AddPhoto(ctx, "work6")
	_, _ = ev.engine.Reposition(ctx, it.ID, 10, 10)

	cat := catalog.New(catalog.Default())
	lib := library.New(ev.store, nil, testutil.Logger())
	e2 := New(ev.store, sources{cat, lib}, reconcile.New(cat, lib, testutil.Logger()), Config{}, testutil.Logger())
	if err := e2.Load(ctx); err != nil {
		t.Fatal(err)
	}
	got, ok := e2.Get(it.ID)
	if !ok || got.XPercent != 10 {
		t.Errorf("reloaded = %+v, %v", got, ok)
	}
	w, _ := cat.Get("work6")
	if !w.InExhibition {
		t.Error("load did not reconcile flags")
	}
}

func TestLoadFillsLegacyWidths(t *testing.T) {
	store := testutil.TestStore(t)
	ctx := context.Background()
	_ = store.Put(ctx, kvstore.KeyLayout, []byte(`[{"id":"a","type":"photo","photoId":"work1","xPercent":1,"yPercent":1},{"id":"text-b","type":"text","content":"hi"}]`))
	cat := catalog.New(catalog.Default())
	lib := library.New(store, nil, testutil.Logger())
	e := New(store, sources{cat, lib}, reconcile.New(cat, lib, testutil.Logger()), Config{}, testutil.Logger())
	_ = e.Load(ctx)
	items := e.Items()
	if items[0].WidthPercent != 18 || items[1].WidthPercent != 30 {
		t.Errorf("widths = %v, %v", items[0].WidthPercent, items[1].WidthPercent)
	}
}

func TestAssumedHeightConfig(t *testing.T) {
	store := testutil.TestStore(t)
	cat := catalog.New(catalog.Default())
	lib := library.New(store, nil, testutil.Logger())
	e := New(store, sources{cat, lib}, reconcile.New(cat, lib, testutil.Logger()), Config{AssumedHeight: 20}, testutil.Logger())
	ctx := context.Background()
	_ = e.Load(ctx)
	it, _ := e.AddText(ctx)
	got, _ := e.Reposition(ctx, it.ID, 0, 95)
	if got.YPercent != 80 {
		t.Errorf("y = %v, want 80", got.YPercent)
	}
}

// TestRandomSequencesKeepInvariants drives random mutations and checks
// flags, widths, positions and photo uniqueness after each step. Resize does
// not re-clamp x, so x is only bounded by the narrowest width.
func TestRandomSequencesKeepInvariants(t *testing.T) {
	ev := newEnv(t)
	ctx := context.Background()
	r := rand.New(rand.NewPCG(1, 2))
	works := []string{"work1", "work2", "work3", "work4", "work5", "work6"}
	works = append(works, ev.addUserPhoto(t, "Dunes").ID, ev.addUserPhoto(t, "Pier").ID)

	for step := 0; step < 300; step++ {
		items := ev.engine.Items()
		pick := func() string {
			if len(items) == 0 {
				return "missing"
			}
			return items[r.IntN(len(items))].ID
		}
		switch r.IntN(6) {
		case 0, 1:
			_, _ = ev.engine.AddPhoto(ctx, works[r.IntN(len(works))])
		case 2:
			_ = ev.engine.Remove(ctx, pick())
		case 3:
			_, _ = ev.engine.Resize(ctx, pick(), float64(r.IntN(21)-10))
		case 4:
			_, _ = ev.engine.Reposition(ctx, pick(), r.Float64()*140-20, r.Float64()*140-20)
		case 5:
			if r.IntN(10) == 0 {
				_ = ev.engine.Clear(ctx, true)
			} else {
				_, _ = ev.engine.AddText(ctx)
			}
		}

		ev.assertReconciled(t)
		seen := map[string]bool{}
		for _, it := range ev.engine.Items() {
			if it.WidthPercent < MinWidth || it.WidthPercent > MaxWidth {
				t.Fatalf("step %d: width %v out of range", step, it.WidthPercent)
			}
			if it.XPercent < 0 || it.XPercent > 100-MinWidth || it.YPercent < 0 || it.YPercent > 92 {
				t.Fatalf("step %d: position (%v, %v) out of bounds", step, it.XPercent, it.YPercent)
			}
			if it.Type == models.ItemPhoto {
				if seen[it.PhotoID] {
					t.Fatalf("step %d: photo %s placed twice", step, it.PhotoID)
				}
				seen[it.PhotoID] = true
			}
		}
	}
}
