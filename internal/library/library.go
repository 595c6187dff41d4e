// Package library manages the persisted user photo collection.
package library

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/kvstore"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/upload"
)

// NewPhoto is the input for adding a user photo.
type NewPhoto struct {
	Title        string
	Tags         []string
	Image        io.Reader
	Lat          *float64
	Lng          *float64
	LocationName string
}

// Validate checks required fields.
func (n NewPhoto) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required.Error("title is required")),
		validation.Field(&n.Image, validation.NotNil.Error("image is required")),
		validation.Field(&n.Lat, validation.When(n.Lat != nil, validation.Min(-90.0), validation.Max(90.0))),
		validation.Field(&n.Lng, validation.When(n.Lng != nil, validation.Min(-180.0), validation.Max(180.0))),
	)
}

// Patch holds the editable fields of a user photo. Nil fields are left alone.
type Patch struct {
	Title *string
	Tags  *string // comma-separated
}

// Library is the user collection, cached in memory and written through to
// the store on every change.
type Library struct {
	mu     sync.RWMutex
	store  kvstore.Store
	coll   *kvstore.Collection[models.Photo]
	proc   *upload.Processor
	logger *slog.Logger
	photos []models.Photo
	now    func() time.Time
}

// New creates a Library over store. Call Load before use.
func New(store kvstore.Store, proc *upload.Processor, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	if proc == nil {
		proc = upload.NewProcessor(upload.DefaultConfig())
	}
	return &Library{
		store:  store,
		coll:   kvstore.NewCollection[models.Photo](store, kvstore.KeyPhotos, logger),
		proc:   proc,
		logger: logger,
		photos: []models.Photo{},
		now:    time.Now,
	}
}

// Load reads the collection from the store.
func (l *Library) Load(ctx context.Context) {
	photos := l.coll.Load(ctx)
	for i := range photos {
		photos[i].Source = models.SourceLibrary
	}
	l.mu.Lock()
	l.photos = photos
	l.mu.Unlock()
}

// Migrate rewrites the stored collection in canonical shape when any
// record was decoded from a legacy form (singular tag, url or image keys).
// It reports whether a rewrite happened.
func (l *Library) Migrate(ctx context.Context) (bool, error) {
	raw, err := l.rawLegacy(ctx)
	if err != nil || !raw {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.coll.Save(ctx, l.photos); err != nil {
		return false, err
	}
	l.logger.Info("library: migrated legacy records", slog.Int("count", len(l.photos)))
	return true, nil
}

// List returns a copy of every user photo, newest last.
func (l *Library) List() []models.Photo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Photo, len(l.photos))
	for i, p := range l.photos {
		out[i] = clone(p)
	}
	return out
}

// Get returns the photo with id.
func (l *Library) Get(id string) (models.Photo, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.index(id); i >= 0 {
		return clone(l.photos[i]), true
	}
	return models.Photo{}, false
}

// Add validates n, processes its image and appends the new photo.
func (l *Library) Add(ctx context.Context, n NewPhoto) (models.Photo, error) {
	n.Title = strings.TrimSpace(n.Title)
	if err := n.Validate(); err != nil {
		return models.Photo{}, fmt.Errorf("library: %v: %w", err, apperr.ErrInvalid)
	}
	res, err := l.proc.Process(n.Image)
	if err != nil {
		return models.Photo{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	p := models.Photo{
		ID:           l.nextID(now),
		Title:        n.Title,
		Tags:         models.NormalizeTags(n.Tags),
		Src:          res.DataURI,
		Lat:          n.Lat,
		Lng:          n.Lng,
		LocationName: strings.TrimSpace(n.LocationName),
		Source:       models.SourceLibrary,
		CreatedAt:    now.UTC(),
	}
	next := append(append([]models.Photo(nil), l.photos...), p)
	if err := l.coll.Save(ctx, next); err != nil {
		return models.Photo{}, err
	}
	l.photos = next
	l.logger.Debug("library: added", slog.String("id", p.ID), slog.Int("bytes", res.Bytes))
	return clone(p), nil
}

// Update applies patch to the photo with id.
func (l *Library) Update(ctx context.Context, id string, patch Patch) (models.Photo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return models.Photo{}, fmt.Errorf("library: photo %s: %w", id, apperr.ErrNotFound)
	}
	next := append([]models.Photo(nil), l.photos...)
	p := clone(next[i])
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Photo{}, fmt.Errorf("library: title is required: %w", apperr.ErrInvalid)
		}
		p.Title = title
	}
	if patch.Tags != nil {
		p.Tags = models.ParseTagList(*patch.Tags)
	}
	next[i] = p
	if err := l.coll.Save(ctx, next); err != nil {
		return models.Photo{}, err
	}
	l.photos = next
	return clone(p), nil
}

// Delete removes the photo with id. A layout item still pointing at it is
// skipped at render time.
func (l *Library) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("library: photo %s: %w", id, apperr.ErrNotFound)
	}
	next := make([]models.Photo, 0, len(l.photos)-1)
	next = append(next, l.photos[:i]...)
	next = append(next, l.photos[i+1:]...)
	if err := l.coll.Save(ctx, next); err != nil {
		return err
	}
	l.photos = next
	return nil
}

// SetExhibited sets each photo's exhibition flag from membership. The
// collection is persisted only when at least one flag changed; the number
// of changed flags is returned.
func (l *Library) SetExhibited(ctx context.Context, members map[string]struct{}) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var next []models.Photo
	changed := 0
	for i, p := range l.photos {
		_, in := members[p.ID]
		if p.InExhibition == in {
			continue
		}
		if next == nil {
			next = append([]models.Photo(nil), l.photos...)
		}
		next[i].InExhibition = in
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	if err := l.coll.Save(ctx, next); err != nil {
		return 0, err
	}
	l.photos = next
	return changed, nil
}

func (l *Library) index(id string) int {
	for i, p := range l.photos {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// nextID derives a millisecond id, bumping past any collision.
func (l *Library) nextID(now time.Time) string {
	n := now.UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if l.index(id) < 0 {
			return id
		}
		n++
	}
}

func clone(p models.Photo) models.Photo {
	p.Tags = append([]string(nil), p.Tags...)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}
