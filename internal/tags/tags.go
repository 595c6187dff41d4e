// Package tags collects tag vocabularies and applies AND-semantics tag
// filters with independent per-view selection state.
package tags

import (
	"slices"
	"strings"
	"sync"

	"github.com/starford/vitrine/internal/models"
)

// Tagged is anything carrying a tag list.
type Tagged interface {
	TagList() []string
}

// Collect returns the union of tags across sources: trimmed, empties
// dropped, deduplicated and sorted ascending.
func Collect(sources ...[]models.Photo) []string {
	seen := make(map[string]struct{})
	for _, src := range sources {
		for _, p := range src {
			for _, t := range p.Tags {
				if t = strings.TrimSpace(t); t != "" {
					seen[t] = struct{}{}
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Filter keeps the items whose tags include every selected tag. An empty
// selection returns items unchanged. Order is preserved.
func Filter[T Tagged](items []T, selected []string) []T {
	if len(selected) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if hasAll(it.TagList(), selected) {
			out = append(out, it)
		}
	}
	return out
}

func hasAll(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[strings.TrimSpace(t)] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

// Well-known filter instances.
const (
	InstanceLibrary    = "library"
	InstanceExhibition = "exhibition"
)

// Selections holds the selected-tag set of each filter instance.
// It is in-memory only.
type Selections struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

// NewSelections returns an empty selection registry.
func NewSelections() *Selections {
	return &Selections{sets: make(map[string]map[string]struct{})}
}

// Toggle flips tag in instance and reports whether it is now selected.
func (s *Selections) Toggle(instance, tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sets[instance]
	if set == nil {
		set = make(map[string]struct{})
		s.sets[instance] = set
	}
	if _, ok := set[tag]; ok {
		delete(set, tag)
		return false
	}
	set[tag] = struct{}{}
	return true
}

// Set replaces the selection of instance.
func (s *Selections) Set(instance string, selected []string) {
	set := make(map[string]struct{}, len(selected))
	for _, t := range selected {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = struct{}{}
		}
	}
	s.mu.Lock()
	s.sets[instance] = set
	s.mu.Unlock()
}

// Selected returns the sorted selection of instance.
func (s *Selections) Selected(instance string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sets[instance]))
	for t := range s.sets[instance] {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Clear empties the selection of instance.
func (s *Selections) Clear(instance string) {
	s.mu.Lock()
	delete(s.sets, instance)
	s.mu.Unlock()
}
