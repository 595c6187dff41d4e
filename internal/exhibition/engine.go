// Package exhibition owns the exhibition canvas layout: an ordered
// collection of placed photo and text items, persisted in full after every
// mutation.
package exhibition

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/kvstore"
	"github.com/starford/vitrine/internal/models"
)

// Placement defaults and limits, in canvas percent.
const (
	MinWidth = 8.0
	MaxWidth = 50.0

	PhotoX     = 30.0
	PhotoY     = 30.0
	PhotoWidth = 18.0

	TextX     = 30.0
	TextY     = 20.0
	TextWidth = 30.0

	DefaultAssumedHeight = 8.0
	DefaultTextContent   = "Double-click to edit"
	DefaultAlign         = "left"
)

// Sources resolves a photo id against the catalog and the user collection.
type Sources interface {
	Lookup(id string) (models.Photo, bool)
}

// Reconciler recomputes derived exhibition flags from the layout.
type Reconciler interface {
	Sync(ctx context.Context, items []models.LayoutItem) error
}

// Change describes a committed layout mutation.
type Change struct {
	Kind   string // added, text_added, resized, moved, captioned, content, font, removed, cleared, loaded
	ItemID string
	Count  int // items after the change
}

// Config tunes the engine.
type Config struct {
	// AssumedHeight is the item height, in percent, used to clamp the
	// vertical position.
	AssumedHeight float64
}

// Engine serializes all layout mutations. It is the only writer of the
// layout collection.
type Engine struct {
	mu       sync.Mutex
	coll     *kvstore.Collection[models.LayoutItem]
	sources  Sources
	rec      Reconciler
	cfg      Config
	logger   *slog.Logger
	items    []models.LayoutItem
	newID    func() string
	onChange func(Change)
}

// New creates an engine over store. Call Load before use.
func New(store kvstore.Store, sources Sources, rec Reconciler, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AssumedHeight <= 0 || cfg.AssumedHeight >= 100 {
		cfg.AssumedHeight = DefaultAssumedHeight
	}
	return &Engine{
		coll:    kvstore.NewCollection[models.LayoutItem](store, kvstore.KeyLayout, logger),
		sources: sources,
		rec:     rec,
		cfg:     cfg,
		logger:  logger,
		items:   []models.LayoutItem{},
		newID:   newUUID,
	}
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// OnChange registers fn to run after each committed change. fn runs while
// the engine lock is held and must not call back into the Engine.
func (e *Engine) OnChange(fn func(Change)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Load reads the persisted layout, fills missing widths and reconciles
// exhibition flags.
func (e *Engine) Load(ctx context.Context) error {
	items := e.coll.Load(ctx)
	for i := range items {
		if items[i].WidthPercent == 0 {
			items[i].WidthPercent = PhotoWidth
			if items[i].Type == models.ItemText {
				items[i].WidthPercent = TextWidth
			}
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = items
	e.logger.Info("exhibition: loaded", slog.Int("items", len(items)))
	return e.finish(ctx, Change{Kind: "loaded", Count: len(items)})
}

// Reconcile re-runs flag reconciliation against the current layout.
func (e *Engine) Reconcile(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec.Sync(ctx, slices.Clone(e.items))
}

// Items returns a copy of the layout in order.
func (e *Engine) Items() []models.LayoutItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneItems(e.items)
}

// Get returns the item with id.
func (e *Engine) Get(id string) (models.LayoutItem, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.index(id); i >= 0 {
		return cloneItem(e.items[i]), true
	}
	return models.LayoutItem{}, false
}

// Count returns the number of placed items.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// AddPhoto places photoID at the default position. It fails with
// apperr.ErrNotFound for an unknown id and apperr.ErrAlreadyExists when the
// photo is already on the canvas.
func (e *Engine) AddPhoto(ctx context.Context, photoID string) (models.LayoutItem, error) {
	if _, ok := e.sources.Lookup(photoID); !ok {
		return models.LayoutItem{}, fmt.Errorf("exhibition: work %s: %w", photoID, apperr.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, it := range e.items {
		if it.Type == models.ItemPhoto && it.PhotoID == photoID {
			return models.LayoutItem{}, fmt.Errorf("exhibition: work %s: %w", photoID, apperr.ErrAlreadyExists)
		}
	}
	item := models.LayoutItem{
		ID:           e.newID(),
		Type:         models.ItemPhoto,
		PhotoID:      photoID,
		XPercent:     PhotoX,
		YPercent:     PhotoY,
		WidthPercent: PhotoWidth,
	}
	if err := e.commit(ctx, append(cloneItems(e.items), item)); err != nil {
		return models.LayoutItem{}, err
	}
	return item, e.finish(ctx, Change{Kind: "added", ItemID: item.ID, Count: len(e.items)})
}

// AddText places a new text block with default content.
func (e *Engine) AddText(ctx context.Context) (models.LayoutItem, error) {
	return e.AddTextBlock(ctx, DefaultTextContent, models.FontMedium)
}

// AddTextBlock places a text block with content and size in one commit. An
// empty content or size takes the default; an unknown size is rejected
// before anything is placed.
func (e *Engine) AddTextBlock(ctx context.Context, content string, size models.FontSize) (models.LayoutItem, error) {
	if content == "" {
		content = DefaultTextContent
	}
	if size == "" {
		size = models.FontMedium
	}
	if !size.Valid() {
		return models.LayoutItem{}, fmt.Errorf("exhibition: font size %q: %w", size, apperr.ErrInvalid)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	item := models.LayoutItem{
		ID:           "text-" + e.newID(),
		Type:         models.ItemText,
		Content:      content,
		FontSize:     size,
		Align:        DefaultAlign,
		XPercent:     TextX,
		YPercent:     TextY,
		WidthPercent: TextWidth,
	}
	if err := e.commit(ctx, append(cloneItems(e.items), item)); err != nil {
		return models.LayoutItem{}, err
	}
	return item, e.finish(ctx, Change{Kind: "text_added", ItemID: item.ID, Count: len(e.items)})
}

// Resize changes an item's width by delta. A result outside
// [MinWidth, MaxWidth] is rejected with apperr.ErrOutOfRange and nothing
// changes.
func (e *Engine) Resize(ctx context.Context, itemID string, delta float64) (models.LayoutItem, error) {
	return e.update(ctx, itemID, "resized", func(it *models.LayoutItem) error {
		w := it.WidthPercent + delta
		if w < MinWidth || w > MaxWidth {
			return fmt.Errorf("exhibition: width %.1f outside [%.0f, %.0f]: %w", w, MinWidth, MaxWidth, apperr.ErrOutOfRange)
		}
		it.WidthPercent = w
		return nil
	})
}

// Reposition moves an item, clamping x to [0, 100-width] and y to
// [0, 100-assumedHeight].
func (e *Engine) Reposition(ctx context.Context, itemID string, x, y float64) (models.LayoutItem, error) {
	return e.update(ctx, itemID, "moved", func(it *models.LayoutItem) error {
		it.XPercent = clamp(x, 0, 100-it.WidthPercent)
		it.YPercent = clamp(y, 0, 100-e.cfg.AssumedHeight)
		return nil
	})
}

// SetCaption overrides a photo item's caption. An empty string is kept as
// a deliberate blank caption.
func (e *Engine) SetCaption(ctx context.Context, itemID, text string) (models.LayoutItem, error) {
	return e.update(ctx, itemID, "captioned", func(it *models.LayoutItem) error {
		if it.Type != models.ItemPhoto {
			return fmt.Errorf("exhibition: item %s is not a photo: %w", itemID, apperr.ErrInvalid)
		}
		it.Caption = &text
		return nil
	})
}

// SetTextContent overwrites a text item's content.
func (e *Engine) SetTextContent(ctx context.Context, itemID, text string) (models.LayoutItem, error) {
	return e.update(ctx, itemID, "content", func(it *models.LayoutItem) error {
		if it.Type != models.ItemText {
			return fmt.Errorf("exhibition: item %s is not text: %w", itemID, apperr.ErrInvalid)
		}
		it.Content = text
		return nil
	})
}

// SetFontSize changes a text item's size class.
func (e *Engine) SetFontSize(ctx context.Context, itemID string, size models.FontSize) (models.LayoutItem, error) {
	if !size.Valid() {
		return models.LayoutItem{}, fmt.Errorf("exhibition: font size %q: %w", size, apperr.ErrInvalid)
	}
	return e.update(ctx, itemID, "font", func(it *models.LayoutItem) error {
		if it.Type != models.ItemText {
			return fmt.Errorf("exhibition: item %s is not text: %w", itemID, apperr.ErrInvalid)
		}
		it.FontSize = size
		return nil
	})
}

// Remove deletes an item.
func (e *Engine) Remove(ctx context.Context, itemID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(itemID)
	if i < 0 {
		return fmt.Errorf("exhibition: item %s: %w", itemID, apperr.ErrNotFound)
	}
	next := slices.Delete(cloneItems(e.items), i, i+1)
	if err := e.commit(ctx, next); err != nil {
		return err
	}
	return e.finish(ctx, Change{Kind: "removed", ItemID: itemID, Count: len(e.items)})
}

// Clear removes every item. It requires confirmed and is a no-op on an
// empty layout.
func (e *Engine) Clear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("exhibition: clear: %w", apperr.ErrConfirmationRequired)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.items) == 0 {
		return nil
	}
	if err := e.commit(ctx, []models.LayoutItem{}); err != nil {
		return err
	}
	return e.finish(ctx, Change{Kind: "cleared", Count: 0})
}

// update applies fn to a copy of one item and commits it. fn returning an
// error leaves the layout untouched.
func (e *Engine) update(ctx context.Context, itemID, kind string, fn func(*models.LayoutItem) error) (models.LayoutItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.index(itemID)
	if i < 0 {
		return models.LayoutItem{}, fmt.Errorf("exhibition: item %s: %w", itemID, apperr.ErrNotFound)
	}
	next := cloneItems(e.items)
	if err := fn(&next[i]); err != nil {
		return models.LayoutItem{}, err
	}
	if err := e.commit(ctx, next); err != nil {
		return models.LayoutItem{}, err
	}
	return cloneItem(e.items[i]), e.finish(ctx, Change{Kind: kind, ItemID: itemID, Count: len(e.items)})
}

// commit persists next in full and adopts it. Caller holds e.mu.
func (e *Engine) commit(ctx context.Context, next []models.LayoutItem) error {
	if err := e.coll.Save(ctx, next); err != nil {
		return fmt.Errorf("exhibition: persist: %w", err)
	}
	e.items = next
	return nil
}

// finish reconciles flags and notifies the listener. Caller holds e.mu.
func (e *Engine) finish(ctx context.Context, c Change) error {
	if err := e.rec.Sync(ctx, cloneItems(e.items)); err != nil {
		return fmt.Errorf("exhibition: reconcile: %w", err)
	}
	if e.onChange != nil {
		e.onChange(c)
	}
	return nil
}

func (e *Engine) index(id string) int {
	for i, it := range e.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(hi, v))
}

func cloneItem(it models.LayoutItem) models.LayoutItem {
	if it.Caption != nil {
		c := *it.Caption
		it.Caption = &c
	}
	return it
}

func cloneItems(items []models.LayoutItem) []models.LayoutItem {
	out := make([]models.LayoutItem, len(items))
	for i, it := range items {
		out[i] = cloneItem(it)
	}
	return out
}
