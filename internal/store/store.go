// Package store owns the process-wide recording collection.
//
// All mutation goes through Store methods; readers get value copies and
// must never write back directly. Every mutation synchronously mirrors
// the collection into a key-value slot so it survives a restart, but a
// failed mirror never rolls the in-memory change back: the session must
// see its own writes, durability is best-effort.
package store

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/kv"
	"github.com/starford/murmur/internal/models"
)

// SlotKey is the key-value slot holding the serialized collection.
const SlotKey = "recordings"

// Event kinds passed to the notifier.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventTrashed  = "trashed"
	EventRestored = "restored"
	EventDeleted  = "deleted"
)

// Notifier is called after each successful mutation, outside the store
// lock. It receives a value copy of the mutated recording.
type Notifier func(event string, rec models.Recording)

// Store is the shared mutable recording collection.
type Store struct {
	mu         sync.Mutex
	recordings []models.Recording // newest first
	db         *kv.DB
	logger     *slog.Logger
	notify     Notifier
}

// New creates a store mirroring into db. A nil db disables persistence
// (tests); a nil logger uses the default.
func New(db *kv.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// SetNotifier installs the mutation callback. Must be called before the
// store is shared.
func (s *Store) SetNotifier(n Notifier) {
	s.notify = n
}

// Load replaces the collection with the persisted snapshot. A missing
// slot is an empty collection.
func (s *Store) Load() error {
	if s.db == nil {
		return nil
	}
	var recs []models.Recording
	if _, err := s.db.GetJSON(SlotKey, &recs); err != nil {
		return err
	}
	s.mu.Lock()
	s.recordings = recs
	s.mu.Unlock()
	return nil
}

// persist mirrors the collection. Caller holds the lock. Failures are
// logged and swallowed.
func (s *Store) persist() {
	if s.db == nil {
		return
	}
	if err := s.db.PutJSON(SlotKey, s.recordings); err != nil {
		s.logger.Error("store: persist failed", slog.String("error", err.Error()))
	}
}

func (s *Store) emit(event string, rec models.Recording) {
	if s.notify != nil {
		s.notify(event, rec)
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.recordings {
		if s.recordings[i].ID == id {
			return i
		}
	}
	return -1
}

// Add prepends a recording. Reusing an existing id is a logic error and
// is surfaced as ErrDuplicateID, but the write still lands last-write-wins
// so the display view never shows a stale entry for the id.
func (s *Store) Add(rec models.Recording) error {
	s.mu.Lock()
	if i := s.indexOf(rec.ID); i >= 0 {
		s.recordings = append(s.recordings[:i], s.recordings[i+1:]...)
		s.recordings = append([]models.Recording{rec}, s.recordings...)
		s.persist()
		s.mu.Unlock()
		s.emit(EventUpdated, rec)
		return apperr.ErrDuplicateID
	}
	s.recordings = append([]models.Recording{rec}, s.recordings...)
	s.persist()
	s.mu.Unlock()

	s.emit(EventCreated, rec)
	return nil
}

// Get returns a copy of the recording with the given id.
func (s *Store) Get(id string) (models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Recording{}, apperr.ErrNotFound
	}
	return s.recordings[i], nil
}

// Rename replaces the base name of the recording's title, preserving its
// format suffix. An empty or whitespace-only base is rejected.
func (s *Store) Rename(id, newBase string) (models.Recording, error) {
	if strings.TrimSpace(newBase) == "" {
		return models.Recording{}, apperr.ErrValidation
	}
	return s.update(id, EventUpdated, func(r *models.Recording) error {
		r.Title = models.Retitle(r.Title, strings.TrimSpace(newBase))
		return nil
	})
}

// SetFavourite toggles the favourite flag.
func (s *Store) SetFavourite(id string, fav bool) (models.Recording, error) {
	return s.update(id, EventUpdated, func(r *models.Recording) error {
		r.IsFavourite = fav
		return nil
	})
}

// MoveToTrash tombstones the recording. Trashing a trashed recording is
// a no-op.
func (s *Store) MoveToTrash(id string) (models.Recording, error) {
	now := time.Now().UTC()
	return s.update(id, EventTrashed, func(r *models.Recording) error {
		if r.TrashedAt == nil {
			r.TrashedAt = &now
		}
		return nil
	})
}

// Restore clears the tombstone, returning the recording to the active set.
func (s *Store) Restore(id string) (models.Recording, error) {
	return s.update(id, EventRestored, func(r *models.Recording) error {
		r.TrashedAt = nil
		return nil
	})
}

// UpdateTranscription writes back a completed transcription stage.
func (s *Store) UpdateTranscription(id, text string) (models.Recording, error) {
	return s.update(id, EventUpdated, func(r *models.Recording) error {
		r.Transcription = text
		return nil
	})
}

// UpdateSummary writes back a completed summarization stage. A summary
// may never be set while the transcription is absent.
func (s *Store) UpdateSummary(id, text string) (models.Recording, error) {
	return s.update(id, EventUpdated, func(r *models.Recording) error {
		if r.Transcription == "" {
			return apperr.ErrNoTranscription
		}
		r.Summary = text
		return nil
	})
}

// PurgeTrash removes tombstones older than the cutoff and returns the
// purged recordings so the caller can release their audio blobs.
func (s *Store) PurgeTrash(cutoff time.Time) []models.Recording {
	s.mu.Lock()
	var kept, purged []models.Recording
	for _, r := range s.recordings {
		if r.TrashedAt != nil && r.TrashedAt.Before(cutoff) {
			purged = append(purged, r)
			continue
		}
		kept = append(kept, r)
	}
	if len(purged) > 0 {
		s.recordings = kept
		s.persist()
	}
	s.mu.Unlock()

	for _, r := range purged {
		s.emit(EventDeleted, r)
	}
	return purged
}

// update applies fn to the recording with the given id under the lock,
// mirrors the collection, then emits event. Mutations for the same id are
// applied in the order they are issued.
func (s *Store) update(id, event string, fn func(*models.Recording) error) (models.Recording, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Recording{}, apperr.ErrNotFound
	}
	if err := fn(&s.recordings[i]); err != nil {
		s.mu.Unlock()
		return models.Recording{}, err
	}
	rec := s.recordings[i]
	s.persist()
	s.mu.Unlock()

	s.emit(event, rec)
	return rec, nil
}
