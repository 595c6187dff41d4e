package models

// ItemType distinguishes photo and text blocks on the exhibition canvas.
type ItemType string

const (
	ItemPhoto ItemType = "photo"
	ItemText  ItemType = "text"
)

// FontSize is the size class of a text block.
type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)

// Valid reports whether f is one of the known size classes.
func (f FontSize) Valid() bool {
	switch f {
	case FontSmall, FontMedium, FontLarge:
		return true
	}
	return false
}

// LayoutItem is one placed block on the exhibition canvas. Positions and
// width are percentages of the canvas.
type LayoutItem struct {
	ID      string   `json:"id"`
	Type    ItemType `json:"type"`
	PhotoID string   `json:"photoId,omitempty"`
	// Caption overrides the source title when non-nil. An empty string is a
	// deliberate blank caption.
	Caption      *string  `json:"caption,omitempty"`
	Content      string   `json:"content,omitempty"`
	FontSize     FontSize `json:"fontSize,omitempty"`
	Align        string   `json:"align,omitempty"`
	XPercent     float64  `json:"xPercent"`
	YPercent     float64  `json:"yPercent"`
	WidthPercent float64  `json:"widthPercent"`
}

// DisplayCaption returns the caption to render for a photo item whose
// source title is title.
func (it LayoutItem) DisplayCaption(title string) string {
	if it.Caption != nil {
		return *it.Caption
	}
	return title
}

// Membership returns the set of photo ids referenced by items.
func Membership(items []LayoutItem) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Type == ItemPhoto && it.PhotoID != "" {
			set[it.PhotoID] = struct{}{}
		}
	}
	return set
}
