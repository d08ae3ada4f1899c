// Package apperr defines the application error taxonomy.
//
// All sentinels are recoverable from the caller's point of view: a device
// error leaves the session idle, a validation error changes no state, and
// a busy error means the same stage is already in flight.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a recording id is not in the store.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when an Add reuses an existing id.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrValidation rejects empty filenames and empty buffers at the boundary.
	ErrValidation = errors.New("validation failed")
	// ErrBusy rejects a stage re-trigger while the same stage is in flight.
	ErrBusy = errors.New("stage already in flight")
	// ErrDeviceUnavailable is returned when the audio input cannot be acquired.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	// ErrNoTranscription rejects summarization before a transcription exists.
	ErrNoTranscription = errors.New("no transcription available")
	// ErrConflict is returned when the session state forbids a transition.
	ErrConflict = errors.New("conflict")
)
