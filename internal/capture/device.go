// Package capture manages the lifecycle of an in-progress audio capture:
// device acquisition, chunk accumulation, elapsed-time coordination, and
// the idle → recording → paused → stopped transitions.
package capture

import "context"

// Device is the audio input collaborator. Acquire either returns an
// exclusive capture stream or fails with a permission/device error.
type Device interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream delivers captured audio incrementally.
//
// Chunks is closed when the stream ends, either because the device
// finished or because Close released it. Close is the single release
// entry point and must be idempotent; every exit path of a session calls
// it. Err reports the terminal failure, if any, once Chunks is closed.
type Stream interface {
	Chunks() <-chan []byte
	Close() error
	Err() error
}
