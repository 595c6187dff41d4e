// Package catalog holds the fixed set of portfolio works. Identity is
// immutable; title and tags may be edited in memory and are lost on restart.
package catalog

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/models"
)

// Catalog is a concurrency-safe in-memory set of works in display order.
type Catalog struct {
	mu    sync.RWMutex
	works []models.Photo
}

// New creates a catalog from works. Every work is normalized and marked
// as a catalog source. Exhibition flags start cleared.
func New(works []models.Photo) *Catalog {
	c := &Catalog{}
	c.Replace(works)
	return c
}

// All returns a copy of every work in display order.
func (c *Catalog) All() []models.Photo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Photo, len(c.works))
	for i, w := range c.works {
		out[i] = clone(w)
	}
	return out
}

// Get returns the work with id.
func (c *Catalog) Get(id string) (models.Photo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, w := range c.works {
		if w.ID == id {
			return clone(w), true
		}
	}
	return models.Photo{}, false
}

// Edit overwrites the title and tags of a work. Both are required; tags is
// the comma-separated form typed into an edit form.
func (c *Catalog) Edit(id, title, tags string) (models.Photo, error) {
	title = strings.TrimSpace(title)
	parsed := models.ParseTagList(tags)
	if title == "" || len(parsed) == 0 {
		return models.Photo{}, fmt.Errorf("catalog: title and tag are required: %w", apperr.ErrInvalid)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.works {
		if c.works[i].ID == id {
			c.works[i].Title = title
			c.works[i].Tags = parsed
			return clone(c.works[i]), nil
		}
	}
	return models.Photo{}, fmt.Errorf("catalog: work %s: %w", id, apperr.ErrNotFound)
}

// SetExhibited sets each work's exhibition flag from membership and
// reports how many flags changed.
func (c *Catalog) SetExhibited(members map[string]struct{}) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := 0
	for i := range c.works {
		_, in := members[c.works[i].ID]
		if c.works[i].InExhibition != in {
			c.works[i].InExhibition = in
			changed++
		}
	}
	return changed
}

// Replace swaps the full set of works, e.g. after the catalog file changed.
func (c *Catalog) Replace(works []models.Photo) {
	next := make([]models.Photo, 0, len(works))
	for _, w := range works {
		w = clone(w)
		w.Tags = models.NormalizeTags(w.Tags)
		w.Source = models.SourceCatalog
		w.InExhibition = false
		next = append(next, w)
	}
	c.mu.Lock()
	c.works = next
	c.mu.Unlock()
}

// Len returns the number of works.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.works)
}

func clone(p models.Photo) models.Photo {
	p.Tags = append([]string(nil), p.Tags...)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

// fileWork is one entry in a catalog YAML file. The singular tag and image
// keys are accepted alongside tags and src.
type fileWork struct {
	models.Photo `yaml:",inline"`
	Tag          string `yaml:"tag"`
	Image        string `yaml:"image"`
}

type file struct {
	Works []fileWork `yaml:"works"`
}

// Parse decodes a catalog YAML document.
func Parse(data []byte) ([]models.Photo, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Works))
	out := make([]models.Photo, 0, len(f.Works))
	for i, fw := range f.Works {
		p := fw.Photo
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: work #%d has no id: %w", i+1, apperr.ErrInvalid)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate work id %s: %w", p.ID, apperr.ErrInvalid)
		}
		seen[p.ID] = struct{}{}
		if len(p.Tags) == 0 && fw.Tag != "" {
			p.Tags = []string{fw.Tag}
		}
		if p.Src == "" {
			p.Src = fw.Image
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadFile reads and parses a catalog YAML file.
func LoadFile(path string) ([]models.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}
