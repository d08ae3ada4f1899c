package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/starford/murmur/internal/capture"
	"github.com/starford/murmur/internal/finalize"
)

// CaptureHandler exposes the live capture session over HTTP.
type CaptureHandler struct {
	session *capture.Session
	flow    *finalize.Flow
}

// NewCaptureHandler creates a handler over the session and its
// finalization flow.
func NewCaptureHandler(session *capture.Session, flow *finalize.Flow) *CaptureHandler {
	return &CaptureHandler{session: session, flow: flow}
}

func (h *CaptureHandler) status() CaptureStatus {
	return CaptureStatus{
		State:     string(h.session.State()),
		ElapsedMS: h.session.Elapsed().Milliseconds(),
		Chunks:    h.session.ChunkCount(),
		Bytes:     h.session.Bytes(),
		Dialog:    h.flow.Intent(),
	}
}

// GetStatus handles GET /capture.
func (h *CaptureHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// Start handles POST /capture/start. The session outlives the request,
// so the device is acquired on a detached context.
func (h *CaptureHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Start(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

// Pause handles POST /capture/pause.
func (h *CaptureHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Pause(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

// Resume handles POST /capture/resume.
func (h *CaptureHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Resume(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

// Stop handles POST /capture/stop. When audio was collected the save
// dialog opens; the response carries the dialog state.
func (h *CaptureHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Stop(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

// Save handles POST /capture/save.
func (h *CaptureHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rec, err := h.flow.Save(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Discard handles POST /capture/discard.
func (h *CaptureHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.flow.Discard()
	writeJSON(w, http.StatusOK, h.status())
}
