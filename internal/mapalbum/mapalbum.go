// Package mapalbum manages location-grouped photo albums shown on the
// shooting map.
package mapalbum

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

// NewAlbum is the input for Create.
type NewAlbum struct {
	Title  string
	Desc   string
	Lat    float64
	Lng    float64
	Images []io.Reader
}

// Validate checks the title, coordinates and that at least one image is given.
func (n NewAlbum) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required.Error("album title is required")),
		validation.Field(&n.Lat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&n.Lng, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&n.Images, validation.Required.Error("at least one photo is required")),
	)
}

// Service owns the album collection.
type Service struct {
	mu     sync.Mutex
	coll   *kvstore.Collection[models.MapAlbum]
	proc   *upload.Processor
	logger *slog.Logger
	now    func() time.Time
}

// New creates an album service over store.
func New(store kvstore.Store, proc *upload.Processor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if proc == nil {
		proc = upload.NewProcessor(upload.DefaultConfig())
	}
	return &Service{
		coll:   kvstore.NewCollection[models.MapAlbum](store, kvstore.KeyMapAlbums, logger),
		proc:   proc,
		logger: logger,
		now:    time.Now,
	}
}

// List returns every album in creation order.
func (s *Service) List(ctx context.Context) []models.MapAlbum {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Load(ctx)
}

// Get returns one album.
func (s *Service) Get(ctx context.Context, id string) (models.MapAlbum, error) {
	for _, a := range s.List(ctx) {
		if a.ID == id {
			return a, nil
		}
	}
	return models.MapAlbum{}, fmt.Errorf("mapalbum: album %s: %w", id, apperr.ErrNotFound)
}

// Create validates n, processes its images and stores a new album.
func (s *Service) Create(ctx context.Context, n NewAlbum) (models.MapAlbum, error) {
	n.Title = strings.TrimSpace(n.Title)
	if err := n.Validate(); err != nil {
		return models.MapAlbum{}, fmt.Errorf("mapalbum: %v: %w", err, apperr.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	albums := s.coll.Load(ctx)
	base := nextID(albums, s.now().UnixMilli())
	photos, err := s.process(n.Images, base+1)
	if err != nil {
		return models.MapAlbum{}, err
	}
	album := models.MapAlbum{
		ID:        strconv.FormatInt(base, 10),
		Title:     n.Title,
		Desc:      strings.TrimSpace(n.Desc),
		Lat:       n.Lat,
		Lng:       n.Lng,
		Photos:    photos,
		CreatedAt: s.now().UTC(),
	}
	if err := s.coll.Save(ctx, append(albums, album)); err != nil {
		return models.MapAlbum{}, err
	}
	s.logger.Debug("mapalbum: created", slog.String("id", album.ID), slog.Int("photos", len(photos)))
	return album, nil
}

// AddPhotos appends images to an existing album.
func (s *Service) AddPhotos(ctx context.Context, albumID string, images []io.Reader) (models.MapAlbum, error) {
	if len(images) == 0 {
		return models.MapAlbum{}, fmt.Errorf("mapalbum: no photos given: %w", apperr.ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	albums := s.coll.Load(ctx)
	idx := -1
	for i, a := range albums {
		if a.ID == albumID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.MapAlbum{}, fmt.Errorf("mapalbum: album %s: %w", albumID, apperr.ErrNotFound)
	}
	photos, err := s.process(images, s.now().UnixMilli())
	if err != nil {
		return models.MapAlbum{}, err
	}
	albums[idx].Photos = append(albums[idx].Photos, photos...)
	if err := s.coll.Save(ctx, albums); err != nil {
		return models.MapAlbum{}, err
	}
	return albums[idx], nil
}

func (s *Service) process(images []io.Reader, firstID int64) ([]models.AlbumPhoto, error) {
	out := make([]models.AlbumPhoto, 0, len(images))
	for i, img := range images {
		res, err := s.proc.Process(img)
		if err != nil {
			return nil, fmt.Errorf("mapalbum: photo %d: %w", i+1, err)
		}
		out = append(out, models.AlbumPhoto{ID: strconv.FormatInt(firstID+int64(i), 10), Src: res.DataURI})
	}
	return out, nil
}

// Markers returns a marker per album followed by one per located photo.
func (s *Service) Markers(ctx context.Context, photos []models.Photo) []models.Marker {
	albums := s.List(ctx)
	out := make([]models.Marker, 0, len(albums)+len(photos))
	for _, a := range albums {
		m := models.Marker{Kind: "album", ID: a.ID, Title: a.Title, Lat: a.Lat, Lng: a.Lng, Count: len(a.Photos)}
		if len(a.Photos) > 0 {
			m.Src = a.Photos[0].Src
		}
		out = append(out, m)
	}
	for _, p := range photos {
		if !p.HasLocation() {
			continue
		}
		out = append(out, models.Marker{
			Kind:    "photo",
			ID:      p.ID,
			Title:   p.Title,
			Lat:     *p.Lat,
			Lng:     *p.Lng,
			Src:     p.Src,
			Count:   1,
			Caption: p.LocationName,
		})
	}
	return out
}

// nextID returns the first millisecond id at or after n not used by albums.
func nextID(albums []models.MapAlbum, n int64) int64 {
	used := make(map[string]struct{}, len(albums))
	for _, a := range albums {
		used[a.ID] = struct{}{}
	}
	for {
		if _, ok := used[strconv.FormatInt(n, 10)]; !ok {
			return n
		}
		n++
	}
}
