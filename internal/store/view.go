package store

import (
	"sort"

	"github.com/starford/murmur/internal/models"
)

// Active returns the display view of the active set: deduplicated by id
// (last write wins) and sorted by creation time, newest first. The view
// is a pure function of the collection, recomputed on every call.
func (s *Store) Active() []models.Recording {
	return s.view(false)
}

// Trashed returns the tombstoned recordings, newest first.
func (s *Store) Trashed() []models.Recording {
	return s.view(true)
}

func (s *Store) view(trashed bool) []models.Recording {
	s.mu.Lock()
	snapshot := make([]models.Recording, len(s.recordings))
	copy(snapshot, s.recordings)
	s.mu.Unlock()

	// Dedupe by id. The collection is newest-first, so walking backwards
	// makes later entries win on id collision.
	byID := make(map[string]models.Recording, len(snapshot))
	for i := len(snapshot) - 1; i >= 0; i-- {
		byID[snapshot[i].ID] = snapshot[i]
	}

	out := make([]models.Recording, 0, len(byID))
	for _, r := range byID {
		if r.Trashed() == trashed {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
