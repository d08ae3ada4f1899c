// Package inbox ingests externally produced audio into the library,
// either through the upload API or from a watched drop directory.
package inbox

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/checksum"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/storage"
	"github.com/starford/murmur/internal/store"
)

// Ingestor turns a raw audio payload into a stored recording.
type Ingestor struct {
	store  *store.Store
	blobs  storage.Provider
	logger *slog.Logger
}

// NewIngestor wires an ingestor over the store and blob provider.
func NewIngestor(st *store.Store, blobs storage.Provider, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{store: st, blobs: blobs, logger: logger}
}

// Ingest stores the payload under a fresh id and adds a recording with
// the uploaded method. The file name becomes the title; its extension
// must be a recognized audio format.
func (i *Ingestor) Ingest(filename string, data []byte) (models.Recording, error) {
	if !storage.IsAudio(filename) {
		return models.Recording{}, fmt.Errorf("%w: unsupported audio format: %s", apperr.ErrValidation, filename)
	}
	if len(data) == 0 {
		return models.Recording{}, fmt.Errorf("%w: empty audio payload", apperr.ErrValidation)
	}

	id := uuid.NewString()
	_, suffix := models.SplitTitle(filename)
	ref := id + "." + suffix
	size, err := i.blobs.Write(ref, data)
	if err != nil {
		return models.Recording{}, fmt.Errorf("store upload: %w", err)
	}

	rec := models.Recording{
		ID:        id,
		Title:     filename,
		AudioRef:  ref,
		Checksum:  checksum.Sum(data),
		CreatedAt: time.Now().UTC(),
		Method:    models.MethodUploaded,
		FileSize:  size,
	}
	if err := i.store.Add(rec); err != nil {
		return models.Recording{}, err
	}
	i.logger.Info("audio ingested", "id", rec.ID, "title", rec.Title, "bytes", size)
	return rec, nil
}
