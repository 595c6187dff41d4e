package reconcile

import (
	"context"
	"testing"

	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/library"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/testutil"
)

type fakeLibrary struct {
	flags map[string]bool
	saves int
}

func (f *fakeLibrary) SetExhibited(_ context.Context, members map[string]struct{}) (int, error) {
	changed := 0
	for id, was := range f.flags {
		_, in := members[id]
		if was != in {
			f.flags[id] = in
			changed++
		}
	}
	if changed > 0 {
		f.saves++
	}
	return changed, nil
}

func TestSyncIsIdempotent(t *testing.T) {
	cat := catalog.New(catalog.Default())
	lib := &fakeLibrary{flags: map[string]bool{"u1": false, "u2": true}}
	r := New(cat, lib, testutil.Logger())
	ctx := context.Background()

	items := []models.LayoutItem{
		{ID: "i1", Type: models.ItemPhoto, PhotoID: "work2"},
		{ID: "i2", Type: models.ItemPhoto, PhotoID: "u1"},
		{ID: "t1", Type: models.ItemText, Content: "hello"},
	}
	if err := r.Sync(ctx, items); err != nil {
		t.Fatal(err)
	}
	if err := r.Sync(ctx, items); err != nil {
		t.Fatal(err)
	}

	for _, w := range cat.All() {
		if w.InExhibition != (w.ID == "work2") {
			t.Errorf("%s flag = %v", w.ID, w.InExhibition)
		}
	}
	if !lib.flags["u1"] || lib.flags["u2"] {
		t.Errorf("library flags = %v", lib.flags)
	}
	if lib.saves != 1 {
		t.Errorf("saves = %d, want 1", lib.saves)
	}
}

func TestSyncWithRealLibrary(t *testing.T) {
	cat := catalog.New(catalog.Default())
	lib := library.New(testutil.TestStore(t), nil, testutil.Logger())
	lib.Load(context.Background())
	r := New(cat, lib, testutil.Logger())

	if err := r.Sync(context.Background(), []models.LayoutItem{{Type: models.ItemPhoto, PhotoID: "work1"}}); err != nil {
		t.Fatal(err)
	}
	w, _ := cat.Get("work1")
	if !w.InExhibition {
		t.Error("work1 not flagged")
	}
	if err := r.Sync(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	w, _ = cat.Get("work1")
	if w.InExhibition {
		t.Error("work1 still flagged after empty layout")
	}
}

func TestButton(t *testing.T) {
	items := []models.LayoutItem{{Type: models.ItemPhoto, PhotoID: "a"}}
	if got := Button(models.Photo{ID: "a"}, items); got.Label != LabelAdded || !got.Disabled {
		t.Errorf("member button = %+v", got)
	}
	if got := Button(models.Photo{ID: "b"}, items); got.Label != LabelAdd || got.Disabled {
		t.Errorf("non-member button = %+v", got)
	}
	if got := Button(models.Photo{ID: "c", InExhibition: true}, nil); !got.Disabled {
		t.Errorf("flagged button = %+v", got)
	}
}
