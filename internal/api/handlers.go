package api

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/murmur/internal/inbox"
	"github.com/starford/murmur/internal/process"
	"github.com/starford/murmur/internal/storage"
	"github.com/starford/murmur/internal/store"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Handler holds the recording route handlers.
type Handler struct {
	store    *store.Store
	pipeline *process.Orchestrator
	ingestor *inbox.Ingestor
	blobs    storage.Provider
}

// NewHandler creates a new Handler.
func NewHandler(st *store.Store, pipeline *process.Orchestrator, ing *inbox.Ingestor, blobs storage.Provider) *Handler {
	return &Handler{store: st, pipeline: pipeline, ingestor: ing, blobs: blobs}
}

// ListRecordings handles GET /recordings. The trash view is selected
// with ?view=trash.
func (h *Handler) ListRecordings(w http.ResponseWriter, r *http.Request) {
	recs := h.store.Active()
	if r.URL.Query().Get("view") == "trash" {
		recs = h.store.Trashed()
	}
	writeJSON(w, http.StatusOK, RecordingListResponse{
		Recordings: recs,
		Total:      len(recs),
	})
}

// GetRecording handles GET /recordings/{id}.
func (h *Handler) GetRecording(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Upload handles POST /recordings/upload (multipart/form-data, field
// "file").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	rec, err := h.ingestor.Ingest(filepath.Base(header.Filename), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Recording: rec})
}

// Rename handles PATCH /recordings/{id}/rename.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rec, err := h.store.Rename(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Favourite handles PUT /recordings/{id}/favourite.
func (h *Handler) Favourite(w http.ResponseWriter, r *http.Request) {
	var req FavouriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rec, err := h.store.SetFavourite(chi.URLParam(r, "id"), req.Favourite)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Trash handles POST /recordings/{id}/trash.
func (h *Handler) Trash(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.MoveToTrash(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Restore handles POST /recordings/{id}/restore.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Restore(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Transcribe handles POST /recordings/{id}/transcribe. Work runs in the
// background; progress is reported by the status endpoint.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.pipeline.StartTranscribe(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.pipeline.Stage(id))
}

// Summarize handles POST /recordings/{id}/summarize.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.pipeline.StartSummarize(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.pipeline.Stage(id))
}

// Status handles GET /recordings/{id}/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.Get(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.Stage(id))
}

// Audio handles GET /recordings/{id}/audio and streams the raw payload.
func (h *Handler) Audio(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := h.blobs.Read(rec.AudioRef)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", audioContentType(rec.AudioRef))
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.Title+`"`)
	_, _ = w.Write(data)
}

func audioContentType(ref string) string {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	default:
		return "audio/wav"
	}
}
