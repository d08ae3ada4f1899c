package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// capture, if non-nil, mounts the live capture routes (a headless
// deployment may run without a microphone).
// sseHandler, if non-nil, is mounted at GET /events inside the auth
// group.
func NewRouter(h *Handler, capture *CaptureHandler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Recording library.
	r.Get("/recordings", h.ListRecordings)
	r.Post("/recordings/upload", h.Upload)
	r.Get("/recordings/{id}", h.GetRecording)
	r.Get("/recordings/{id}/audio", h.Audio)
	r.Get("/recordings/{id}/status", h.Status)
	r.Patch("/recordings/{id}/rename", h.Rename)
	r.Put("/recordings/{id}/favourite", h.Favourite)
	r.Post("/recordings/{id}/trash", h.Trash)
	r.Post("/recordings/{id}/restore", h.Restore)
	r.Post("/recordings/{id}/transcribe", h.Transcribe)
	r.Post("/recordings/{id}/summarize", h.Summarize)

	// Live capture.
	if capture != nil {
		r.Get("/capture", capture.GetStatus)
		r.Post("/capture/start", capture.Start)
		r.Post("/capture/pause", capture.Pause)
		r.Post("/capture/resume", capture.Resume)
		r.Post("/capture/stop", capture.Stop)
		r.Post("/capture/save", capture.Save)
		r.Post("/capture/discard", capture.Discard)
	}

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
