package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AlbumPhoto is one image inside a map album.
type AlbumPhoto struct {
	ID  string `json:"id"`
	Src string `json:"src"`
}

// UnmarshalJSON accepts numeric ids written by older clients.
func (a *AlbumPhoto) UnmarshalJSON(data []byte) error {
	type plain AlbumPhoto
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := flexString(raw.ID)
	if err != nil {
		return fmt.Errorf("album photo id: %w", err)
	}
	*a = AlbumPhoto(raw.plain)
	a.ID = id
	return nil
}

// MapAlbum is a location-grouped set of photos shown as a map marker.
type MapAlbum struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Desc      string       `json:"desc,omitempty"`
	Lat       float64      `json:"lat"`
	Lng       float64      `json:"lng"`
	Photos    []AlbumPhoto `json:"photos"`
	CreatedAt time.Time    `json:"createdAt,omitzero"`
}

// UnmarshalJSON accepts numeric ids written by older clients.
func (m *MapAlbum) UnmarshalJSON(data []byte) error {
	type plain MapAlbum
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := flexString(raw.ID)
	if err != nil {
		return fmt.Errorf("album id: %w", err)
	}
	*m = MapAlbum(raw.plain)
	m.ID = id
	if m.Photos == nil {
		m.Photos = []AlbumPhoto{}
	}
	return nil
}

// Marker is a point on the shooting map: either an album or a located photo.
type Marker struct {
	Kind    string  `json:"kind"` // "album" or "photo"
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Src     string  `json:"src,omitempty"`
	Count   int     `json:"count,omitempty"`
	Caption string  `json:"caption,omitempty"`
}
