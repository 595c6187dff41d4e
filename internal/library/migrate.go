package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/starford/vitrine/internal/apperr"
)

// legacyKeys are record keys written by older clients.
var legacyKeys = []string{"tag", "url", "image", "name"}

// rawLegacy reports whether the stored collection contains any record in a
// pre-canonical shape.
func (l *Library) rawLegacy(ctx context.Context) (bool, error) {
	data, err := l.store.Get(ctx, l.coll.Key())
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		// Load already discarded it.
		return false, nil
	}
	for _, rec := range records {
		for _, k := range legacyKeys {
			if _, ok := rec[k]; ok {
				return true, nil
			}
		}
		if _, ok := rec["tags"]; !ok {
			return true, nil
		}
		if id, ok := rec["id"]; ok && !bytes.HasPrefix(bytes.TrimSpace(id), []byte(`"`)) {
			return true, nil
		}
	}
	return false, nil
}
