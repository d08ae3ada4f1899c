// Package finalize turns a finished capture into a stored recording. It
// owns the little confirmation dance around stopping and quitting: stop
// opens a save prompt, quitting mid-capture pauses first and asks
// whether to save before leaving.
package finalize

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/capture"
	"github.com/starford/murmur/internal/checksum"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/storage"
	"github.com/starford/murmur/internal/store"
)

// Intent names the pending confirmation, if any.
type Intent string

const (
	// IntentNone means no prompt is open.
	IntentNone Intent = "none"
	// IntentSave asks for a name after a deliberate stop.
	IntentSave Intent = "save"
	// IntentExit confirms leaving with an unsaved stopped buffer.
	IntentExit Intent = "exit"
	// IntentSaveAndExit asks for a name on the way out of the app.
	IntentSaveAndExit Intent = "saveAndExit"
)

// ExitFunc is invoked once the flow decides the application may quit.
type ExitFunc func()

// Flow coordinates stop, save, and exit for a capture session.
type Flow struct {
	mu      sync.Mutex
	session *capture.Session
	store   *store.Store
	blobs   storage.Provider
	logger  *slog.Logger
	intent  Intent
	onExit  ExitFunc
}

// NewFlow wires the flow over a session, the recording store, and the
// blob provider.
func NewFlow(session *capture.Session, st *store.Store, blobs storage.Provider, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		session: session,
		store:   st,
		blobs:   blobs,
		logger:  logger,
		intent:  IntentNone,
	}
}

// SetExitCallback installs the hook run when the flow allows the app to
// quit. Must be set before the flow is shared.
func (f *Flow) SetExitCallback(fn ExitFunc) {
	f.onExit = fn
}

// Intent reports the currently open confirmation.
func (f *Flow) Intent() Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.intent
}

// Stop ends the capture and, when any audio was collected, opens the
// save prompt. An empty capture is thrown away silently.
func (f *Flow) Stop() error {
	if _, err := f.session.Stop(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session.Bytes() == 0 {
		f.session.Reset()
		return nil
	}
	f.intent = IntentSave
	return nil
}

// CloseRequested handles a quit request. It returns true when the app
// may exit immediately; otherwise a confirmation was opened and the
// caller must wait for Save or Discard.
func (f *Flow) CloseRequested() bool {
	switch f.session.State() {
	case capture.StateRecording:
		// Freeze the capture first so nothing is lost while the user
		// decides.
		if err := f.session.Pause(); err != nil {
			f.logger.Warn("pause on close failed", "error", err)
		}
		f.setIntent(IntentSaveAndExit)
		return false
	case capture.StatePaused:
		f.setIntent(IntentSaveAndExit)
		return false
	case capture.StateStopped:
		if f.session.Bytes() > 0 {
			f.setIntent(IntentExit)
			return false
		}
	}
	f.exit()
	return true
}

func (f *Flow) setIntent(i Intent) {
	f.mu.Lock()
	f.intent = i
	f.mu.Unlock()
}

func (f *Flow) exit() {
	if f.onExit != nil {
		f.onExit()
	}
}

// Save names and persists the captured audio, then clears the session.
// A blank name is rejected and the prompt stays open. When the open
// confirmation was part of quitting, the exit hook fires after the
// recording is stored.
func (f *Flow) Save(name string) (models.Recording, error) {
	base := strings.TrimSpace(name)
	if err := validation.Validate(base,
		validation.Required,
		validation.Length(1, 255),
	); err != nil {
		return models.Recording{}, fmt.Errorf("%w: recording name: %v", apperr.ErrValidation, err)
	}

	state := f.session.State()
	if state != capture.StateStopped && state != capture.StatePaused {
		return models.Recording{}, fmt.Errorf("%w: nothing to save from %s", apperr.ErrConflict, state)
	}
	if state == capture.StatePaused {
		if _, err := f.session.Stop(); err != nil {
			return models.Recording{}, err
		}
	}

	buf := f.session.Buffer()
	if len(buf) == 0 {
		return models.Recording{}, fmt.Errorf("%w: capture buffer is empty", apperr.ErrConflict)
	}

	id := uuid.NewString()
	title := models.TitleWithSuffix(base, models.DefaultSuffix)
	ref := id + "." + models.DefaultSuffix
	size, err := f.blobs.Write(ref, buf)
	if err != nil {
		return models.Recording{}, fmt.Errorf("store audio: %w", err)
	}

	rec := models.Recording{
		ID:        id,
		Title:     title,
		AudioRef:  ref,
		Checksum:  checksum.Sum(buf),
		CreatedAt: time.Now().UTC(),
		Method:    models.MethodRecorded,
		FileSize:  size,
		Duration:  f.session.Elapsed().Milliseconds(),
	}
	if err := f.store.Add(rec); err != nil {
		return models.Recording{}, err
	}
	f.logger.Info("recording saved", "id", rec.ID, "title", rec.Title, "bytes", size)

	f.session.Reset()

	f.mu.Lock()
	leaving := f.intent == IntentSaveAndExit
	f.intent = IntentNone
	f.mu.Unlock()
	if leaving {
		f.exit()
	}
	return rec, nil
}

// Discard drops the captured audio and closes the prompt. When the
// prompt was part of quitting, the exit hook fires.
func (f *Flow) Discard() {
	f.session.Reset()

	f.mu.Lock()
	leaving := f.intent == IntentSaveAndExit || f.intent == IntentExit
	f.intent = IntentNone
	f.mu.Unlock()
	if leaving {
		f.exit()
	}
}

// Cancel closes the prompt without touching the captured audio, keeping
// the stopped buffer around for another attempt.
func (f *Flow) Cancel() {
	f.mu.Lock()
	f.intent = IntentNone
	f.mu.Unlock()
}
