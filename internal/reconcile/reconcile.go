// Package reconcile keeps the cached exhibition flags of every work and
// user photo equal to layout membership.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/starford/vitrine/internal/models"
)

// CatalogFlags is the fixed catalog's flag setter.
type CatalogFlags interface {
	SetExhibited(members map[string]struct{}) int
}

// LibraryFlags is the user collection's flag setter. It persists only when
// a flag changed.
type LibraryFlags interface {
	SetExhibited(ctx context.Context, members map[string]struct{}) (int, error)
}

// Reconciler recomputes flags from layout items.
type Reconciler struct {
	catalog CatalogFlags
	library LibraryFlags
	logger  *slog.Logger
}

// New creates a Reconciler over both sources.
func New(catalog CatalogFlags, library LibraryFlags, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{catalog: catalog, library: library, logger: logger}
}

// Sync sets every flag from scratch: true exactly when a photo item
// references the id. Calling it again with the same items changes nothing.
// The catalog is updated before the user collection.
func (r *Reconciler) Sync(ctx context.Context, items []models.LayoutItem) error {
	members := models.Membership(items)
	nc := r.catalog.SetExhibited(members)
	nl, err := r.library.SetExhibited(ctx, members)
	if err != nil {
		r.logger.Warn("reconcile: persist user collection failed", slog.String("error", err.Error()))
		return err
	}
	if nc+nl > 0 {
		r.logger.Debug("reconcile: flags updated",
			slog.Int("catalog", nc), slog.Int("library", nl), slog.Int("exhibited", len(members)))
	}
	return nil
}

// Button labels.
const (
	LabelAdd   = "Add to exhibition"
	LabelAdded = "Already added"
)

// ButtonState is the add-to-exhibition control for one photo.
type ButtonState struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// Button derives the control state for p given the current layout.
func Button(p models.Photo, items []models.LayoutItem) ButtonState {
	exhibited := p.InExhibition
	if !exhibited {
		_, exhibited = models.Membership(items)[p.ID]
	}
	if exhibited {
		return ButtonState{Label: LabelAdded, Disabled: true}
	}
	return ButtonState{Label: LabelAdd}
}
