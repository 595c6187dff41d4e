// Package portfolio composes the catalog, user collection, exhibition
// engine and map albums behind one service used by the HTTP and MCP
// surfaces.
package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/checksum"
	"github.com/starford/vitrine/internal/exhibition"
	"github.com/starford/vitrine/internal/kvstore"
	"github.com/starford/vitrine/internal/library"
	"github.com/starford/vitrine/internal/mapalbum"
	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/reconcile"
	"github.com/starford/vitrine/internal/sse"
	"github.com/starford/vitrine/internal/tags"
	"github.com/starford/vitrine/internal/upload"
)

// Event types published besides layout.*.
const (
	EventPhotosChanged   = "photos.changed"
	EventCatalogChanged  = "catalog.changed"
	EventAlbumsChanged   = "albums.changed"
	EventNotice          = "notice"
	EventExhibitionCount = "exhibition.count"
)

// User-visible notices.
const (
	NoticeAdded        = "Added to exhibition"
	NoticeDuplicate    = "This work is already in the exhibition"
	NoticeWorkNotFound = "Work not found"
	NoticeCleared      = "Exhibition cleared"
)

// Publisher receives re-render notifications.
type Publisher interface {
	Publish(sse.Event)
	PublishLayoutEvent(kind, itemID string, count int)
}

// Notice is the payload of a notice event.
type Notice struct {
	Level   string `json:"level"` // info or warn
	Message string `json:"message"`
}

// Config is the service configuration.
type Config struct {
	Exhibition exhibition.Config
	Upload     upload.Config
}

// Service is the portfolio façade.
type Service struct {
	catalog *catalog.Catalog
	library *library.Library
	albums  *mapalbum.Service
	engine  *exhibition.Engine
	filters *tags.Selections
	pub     Publisher
	logger  *slog.Logger
}

// New wires the components over store. pub may be nil.
func New(store kvstore.Store, cat *catalog.Catalog, cfg Config, pub Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	proc := upload.NewProcessor(cfg.Upload)
	lib := library.New(store, proc, logger)
	s := &Service{
		catalog: cat,
		library: lib,
		albums:  mapalbum.New(store, proc, logger),
		filters: tags.NewSelections(),
		pub:     pub,
		logger:  logger,
	}
	rec := reconcile.New(cat, lib, logger)
	s.engine = exhibition.New(store, s, rec, cfg.Exhibition, logger)
	s.engine.OnChange(s.layoutChanged)
	return s
}

// Open loads persisted state, migrates legacy records and reconciles flags.
func (s *Service) Open(ctx context.Context) error {
	s.library.Load(ctx)
	if _, err := s.library.Migrate(ctx); err != nil {
		s.logger.Warn("portfolio: migrate failed", slog.String("error", err.Error()))
	}
	return s.engine.Load(ctx)
}

// Lookup resolves a photo id, catalog first.
func (s *Service) Lookup(id string) (models.Photo, bool) {
	if p, ok := s.catalog.Get(id); ok {
		return p, true
	}
	return s.library.Get(id)
}

func (s *Service) layoutChanged(c exhibition.Change) {
	if s.pub == nil {
		return
	}
	s.pub.PublishLayoutEvent(c.Kind, c.ItemID, c.Count)
	s.pub.Publish(sse.Event{Type: EventExhibitionCount, Data: map[string]int{"count": c.Count}})
}

func (s *Service) publish(typ string, data any) {
	if s.pub != nil {
		s.pub.Publish(sse.Event{Type: typ, Data: data})
	}
}

func (s *Service) notice(level, msg string) {
	s.publish(EventNotice, Notice{Level: level, Message: msg})
}

// --- Library view ---

// WorkCard is one entry in the library view.
type WorkCard struct {
	models.Photo
	Button reconcile.ButtonState `json:"button"`
}

// Works returns catalog works followed by user photos, filtered by the
// instance's current tag selection.
func (s *Service) Works(instance string) []WorkCard {
	all := append(s.catalog.All(), s.library.List()...)
	filtered := tags.Filter(all, s.filters.Selected(instance))
	items := s.engine.Items()
	out := make([]WorkCard, len(filtered))
	for i, p := range filtered {
		out[i] = WorkCard{Photo: p, Button: reconcile.Button(p, items)}
	}
	return out
}

// Tags returns the tag vocabulary across both sources.
func (s *Service) Tags() []string {
	return tags.Collect(s.library.List(), s.catalog.All())
}

// Filter returns the selection of instance.
func (s *Service) Filter(instance string) []string { return s.filters.Selected(instance) }

// ToggleFilter flips tag in instance and returns the new selection.
func (s *Service) ToggleFilter(instance, tag string) []string {
	s.filters.Toggle(instance, tag)
	return s.filters.Selected(instance)
}

// SetFilter replaces the selection of instance.
func (s *Service) SetFilter(instance string, selected []string) []string {
	s.filters.Set(instance, selected)
	return s.filters.Selected(instance)
}

// ClearFilter empties the selection of instance.
func (s *Service) ClearFilter(instance string) { s.filters.Clear(instance) }

// --- Canvas view ---

// CanvasItem is a layout item resolved for rendering.
type CanvasItem struct {
	models.LayoutItem
	Src            string `json:"src,omitempty"`
	DisplayCaption string `json:"displayCaption,omitempty"`
}

// Canvas is the rendered exhibition.
type Canvas struct {
	Items    []CanvasItem `json:"items"`
	Count    int          `json:"count"`
	Empty    bool         `json:"empty"`
	Checksum string       `json:"checksum"`
}

// Canvas renders the layout in order. Photo items whose source no longer
// exists are skipped.
func (s *Service) Canvas() Canvas {
	items := s.engine.Items()
	out := make([]CanvasItem, 0, len(items))
	for _, it := range items {
		ci := CanvasItem{LayoutItem: it}
		if it.Type == models.ItemPhoto {
			p, ok := s.Lookup(it.PhotoID)
			if !ok {
				s.logger.Debug("portfolio: skipping item with missing photo",
					slog.String("item", it.ID), slog.String("photo", it.PhotoID))
				continue
			}
			ci.Src = p.Src
			ci.DisplayCaption = it.DisplayCaption(p.Title)
		}
		out = append(out, ci)
	}
	c := Canvas{Items: out, Count: len(items), Empty: len(out) == 0}
	if data, err := json.Marshal(out); err == nil {
		c.Checksum = checksum.Sum(data)
	}
	return c
}

// Items returns the raw layout.
func (s *Service) Items() []models.LayoutItem { return s.engine.Items() }

// --- Exhibition mutations ---

// AddToExhibition places a photo, publishing a notice for the outcome.
func (s *Service) AddToExhibition(ctx context.Context, photoID string) (models.LayoutItem, error) {
	it, err := s.engine.AddPhoto(ctx, photoID)
	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		s.notice("warn", NoticeDuplicate)
	case errors.Is(err, apperr.ErrNotFound):
		s.notice("warn", NoticeWorkNotFound)
	case err == nil:
		s.notice("info", NoticeAdded)
	}
	return it, err
}

// AddText places a new text block.
func (s *Service) AddText(ctx context.Context) (models.LayoutItem, error) {
	return s.engine.AddText(ctx)
}

// AddTextBlock places a text block with the given content and size.
func (s *Service) AddTextBlock(ctx context.Context, content string, size models.FontSize) (models.LayoutItem, error) {
	return s.engine.AddTextBlock(ctx, content, size)
}

// Resize changes an item's width by delta.
func (s *Service) Resize(ctx context.Context, itemID string, delta float64) (models.LayoutItem, error) {
	return s.engine.Resize(ctx, itemID, delta)
}

// Reposition moves an item; it satisfies drag.Repositioner.
func (s *Service) Reposition(ctx context.Context, itemID string, x, y float64) (models.LayoutItem, error) {
	return s.engine.Reposition(ctx, itemID, x, y)
}

// SetCaption overrides a photo item's caption.
func (s *Service) SetCaption(ctx context.Context, itemID, text string) (models.LayoutItem, error) {
	return s.engine.SetCaption(ctx, itemID, text)
}

// SetTextContent overwrites a text item's content.
func (s *Service) SetTextContent(ctx context.Context, itemID, text string) (models.LayoutItem, error) {
	return s.engine.SetTextContent(ctx, itemID, text)
}

// SetFontSize changes a text item's size class.
func (s *Service) SetFontSize(ctx context.Context, itemID string, size models.FontSize) (models.LayoutItem, error) {
	return s.engine.SetFontSize(ctx, itemID, size)
}

// RemoveItem deletes an item from the canvas.
func (s *Service) RemoveItem(ctx context.Context, itemID string) error {
	return s.engine.Remove(ctx, itemID)
}

// ClearExhibition removes every item once confirmed.
func (s *Service) ClearExhibition(ctx context.Context, confirmed bool) error {
	empty := s.engine.Count() == 0
	if err := s.engine.Clear(ctx, confirmed); err != nil {
		return err
	}
	if !empty {
		s.notice("info", NoticeCleared)
	}
	return nil
}

// --- User collection ---

// Photos returns the user collection.
func (s *Service) Photos() []models.Photo { return s.library.List() }

// AddPhoto uploads a new user photo.
func (s *Service) AddPhoto(ctx context.Context, n library.NewPhoto) (models.Photo, error) {
	p, err := s.library.Add(ctx, n)
	if err != nil {
		return models.Photo{}, err
	}
	s.publish(EventPhotosChanged, map[string]string{"id": p.ID})
	return p, nil
}

// UpdatePhoto edits a user photo's title or tags.
func (s *Service) UpdatePhoto(ctx context.Context, id string, patch library.Patch) (models.Photo, error) {
	p, err := s.library.Update(ctx, id, patch)
	if err != nil {
		return models.Photo{}, err
	}
	s.publish(EventPhotosChanged, map[string]string{"id": id})
	return p, nil
}

// DeletePhoto removes a user photo. A canvas item referencing it stays in
// the layout and is skipped when rendering.
func (s *Service) DeletePhoto(ctx context.Context, id string) error {
	if err := s.library.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(EventPhotosChanged, map[string]string{"id": id})
	return nil
}

// --- Catalog ---

// EditWork changes a catalog work's title and tags in memory.
func (s *Service) EditWork(id, title, tagList string) (models.Photo, error) {
	w, err := s.catalog.Edit(id, title, tagList)
	if err != nil {
		return models.Photo{}, err
	}
	s.publish(EventCatalogChanged, map[string]string{"id": id})
	return w, nil
}

// CatalogReloaded reconciles flags after the catalog was replaced.
func (s *Service) CatalogReloaded(ctx context.Context) {
	if err := s.engine.Reconcile(ctx); err != nil {
		s.logger.Warn("portfolio: reconcile after catalog reload", slog.String("error", err.Error()))
	}
	s.publish(EventCatalogChanged, map[string]int{"works": s.catalog.Len()})
}

// --- Map albums ---

// Albums lists map albums.
func (s *Service) Albums(ctx context.Context) []models.MapAlbum { return s.albums.List(ctx) }

// CreateAlbum stores a new map album.
func (s *Service) CreateAlbum(ctx context.Context, n mapalbum.NewAlbum) (models.MapAlbum, error) {
	a, err := s.albums.Create(ctx, n)
	if err != nil {
		return models.MapAlbum{}, err
	}
	s.publish(EventAlbumsChanged, map[string]string{"id": a.ID})
	return a, nil
}

// AddAlbumPhotos appends images to an album.
func (s *Service) AddAlbumPhotos(ctx context.Context, albumID string, images []io.Reader) (models.MapAlbum, error) {
	a, err := s.albums.AddPhotos(ctx, albumID, images)
	if err != nil {
		return models.MapAlbum{}, err
	}
	s.publish(EventAlbumsChanged, map[string]string{"id": a.ID})
	return a, nil
}

// Markers returns album markers and markers for every located photo.
func (s *Service) Markers(ctx context.Context) []models.Marker {
	return s.albums.Markers(ctx, append(s.catalog.All(), s.library.List()...))
}
