// Package drag implements the pointer-driven move gesture for canvas items.
// A Controller tracks one pointer: idle, then dragging one item, then idle.
package drag

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/models"
)

// Point is a pointer position in client pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a client-space box in pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Target is the kind of element a pointer-down landed on.
type Target string

const (
	TargetBody     Target = "body"
	TargetButton   Target = "button"
	TargetInput    Target = "input"
	TargetTextArea Target = "textarea"
)

// Interactive reports whether t is a control that handles its own clicks.
func (t Target) Interactive() bool {
	switch t {
	case TargetButton, TargetInput, TargetTextArea:
		return true
	}
	return false
}

// Repositioner commits a clamped position for an item.
type Repositioner interface {
	Reposition(ctx context.Context, itemID string, x, y float64) (models.LayoutItem, error)
}

// Controller is the drag state machine for one client.
type Controller struct {
	mu     sync.Mutex
	engine Repositioner
	bound  map[string]struct{}

	dragging bool
	itemID   string
	offset   Point
}

// NewController creates an idle controller with no bindings.
func NewController(engine Repositioner) *Controller {
	return &Controller{engine: engine, bound: make(map[string]struct{})}
}

// Bind makes ids the set of draggable items. Ids already bound keep their
// binding; ids no longer present are released, ending any drag on them.
func (c *Controller) Bind(ids []string) (added, removed []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
		if _, ok := c.bound[id]; !ok {
			c.bound[id] = struct{}{}
			added = append(added, id)
		}
	}
	for id := range c.bound {
		if _, ok := want[id]; !ok {
			delete(c.bound, id)
			removed = append(removed, id)
			if c.dragging && c.itemID == id {
				c.reset()
			}
		}
	}
	return added, removed
}

// Bound reports whether id is currently draggable.
func (c *Controller) Bound(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.bound[id]
	return ok
}

// PointerDown starts dragging itemID when the press landed on the item body.
// The grab offset is the pointer relative to the element's top-left corner.
func (c *Controller) PointerDown(itemID string, target Target, pointer Point, element Rect) bool {
	if target.Interactive() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.bound[itemID]; !ok {
		return false
	}
	c.dragging = true
	c.itemID = itemID
	c.offset = Point{X: pointer.X - element.Left, Y: pointer.Y - element.Top}
	return true
}

// PointerMove converts pointer to canvas percentages and commits it through
// the engine, which clamps and persists. ok is false when idle.
func (c *Controller) PointerMove(ctx context.Context, pointer Point, canvas Rect) (item models.LayoutItem, ok bool, err error) {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return models.LayoutItem{}, false, nil
	}
	id, off := c.itemID, c.offset
	c.mu.Unlock()

	if canvas.Width <= 0 || canvas.Height <= 0 {
		return models.LayoutItem{}, true, fmt.Errorf("drag: empty canvas: %w", apperr.ErrInvalid)
	}
	x := (pointer.X - canvas.Left - off.X) / canvas.Width * 100
	y := (pointer.Y - canvas.Top - off.Y) / canvas.Height * 100
	item, err = c.engine.Reposition(ctx, id, x, y)
	if errors.Is(err, apperr.ErrNotFound) {
		// Removed elsewhere mid-gesture.
		c.mu.Lock()
		if c.itemID == id {
			c.reset()
		}
		delete(c.bound, id)
		c.mu.Unlock()
	}
	return item, true, err
}

// PointerUp ends the drag wherever the pointer is. It reports whether a
// drag was in progress. Committed positions stay.
func (c *Controller) PointerUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.dragging
	c.reset()
	return was
}

// SelectionSuppressed is true while a drag is in progress.
func (c *Controller) SelectionSuppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// Dragging returns the item being dragged, if any.
func (c *Controller) Dragging() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemID, c.dragging
}

func (c *Controller) reset() {
	c.dragging = false
	c.itemID = ""
	c.offset = Point{}
}
