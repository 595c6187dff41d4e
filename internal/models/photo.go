// Package models defines the canonical domain records for Vitrine.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Source identifies which collection a Photo belongs to.
type Source string

const (
	SourceCatalog Source = "catalog"
	SourceLibrary Source = "library"
)

// Params holds the shooting parameters shown next to a work.
type Params struct {
	Camera   string `json:"camera,omitempty" yaml:"camera"`
	Lens     string `json:"lens,omitempty" yaml:"lens"`
	Aperture string `json:"aperture,omitempty" yaml:"aperture"`
	Shutter  string `json:"shutter,omitempty" yaml:"shutter"`
	ISO      string `json:"iso,omitempty" yaml:"iso"`
	Focal    string `json:"focal,omitempty" yaml:"focal"`
	Location string `json:"location,omitempty" yaml:"location"`
}

// Photo is the single internal shape for catalog works and user photos.
//
// InExhibition is a cache derived from the exhibition layout; only the
// reconciler writes it.
type Photo struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Tags         []string  `json:"tags" yaml:"tags"`
	Src          string    `json:"src" yaml:"src"`
	Lat          *float64  `json:"lat,omitempty" yaml:"lat"`
	Lng          *float64  `json:"lng,omitempty" yaml:"lng"`
	LocationName string    `json:"locationName,omitempty" yaml:"location_name"`
	Params       *Params   `json:"params,omitempty" yaml:"params"`
	InExhibition bool      `json:"inExhibition" yaml:"-"`
	Source       Source    `json:"source,omitempty" yaml:"-"`
	CreatedAt    time.Time `json:"createdAt,omitzero" yaml:"-"`
}

// TagList returns the photo's normalized tags.
func (p Photo) TagList() []string { return p.Tags }

// HasLocation reports whether both coordinates are set.
func (p Photo) HasLocation() bool { return p.Lat != nil && p.Lng != nil }

// UnmarshalJSON accepts the legacy record shapes still found in stored data:
// a singular "tag", "image" or "url" instead of "src", "name" instead of
// "title", and numeric ids.
func (p *Photo) UnmarshalJSON(data []byte) error {
	type plain Photo
	var raw struct {
		plain
		ID    json.RawMessage `json:"id"`
		Tag   string          `json:"tag"`
		Image string          `json:"image"`
		URL   string          `json:"url"`
		Name  string          `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := flexString(raw.ID)
	if err != nil {
		return fmt.Errorf("photo id: %w", err)
	}

	*p = Photo(raw.plain)
	p.ID = id
	if len(p.Tags) == 0 && raw.Tag != "" {
		p.Tags = []string{raw.Tag}
	}
	p.Tags = NormalizeTags(p.Tags)
	p.Src = firstNonEmpty(p.Src, raw.Image, raw.URL)
	if p.Title == "" {
		p.Title = raw.Name
	}
	return nil
}

// NormalizeTags trims every tag, drops empties and duplicates, and keeps the
// original order. It never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseTagList splits a comma-separated tag string as typed into an edit form.
func ParseTagList(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

// flexString decodes a JSON string or number into its string form.
func flexString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
