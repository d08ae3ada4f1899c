package capture

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/stopwatch"
)

// State is the capture session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// StateCallback is invoked after every state transition.
type StateCallback func(state State)

// Session owns one in-progress audio capture. It acquires a stream from
// its device, accumulates chunks in capture order, and coordinates the
// stopwatch and its display signals.
//
// The device is released on every exit path: Stop, Reset, and stream
// failure all funnel through the same release, which is idempotent and
// safe even when no device was ever acquired.
type Session struct {
	mu      sync.Mutex
	state   State
	device  Device
	stream  Stream
	sw      *stopwatch.Stopwatch
	driver  *stopwatch.Driver
	chunks  [][]byte
	byteLen int64
	pumpWG  sync.WaitGroup
	logger  *slog.Logger
	onState StateCallback
}

// NewSession creates an idle session over the given device.
func NewSession(device Device, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		state:  StateIdle,
		device: device,
		sw:     stopwatch.New(nil),
		logger: logger,
	}
}

// SetStateCallback installs the transition observer. Must be set before
// the session is shared. The callback runs with the session lock held
// and must not call back into the session.
func (s *Session) SetStateCallback(cb StateCallback) {
	s.onState = cb
}

func (s *Session) transition(state State) {
	s.state = state
	if s.onState != nil {
		s.onState(state)
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed returns the accumulated recording time.
func (s *Session) Elapsed() time.Duration {
	return s.sw.Elapsed()
}

// Signals returns the active display driver, or nil while not recording.
func (s *Session) Signals() *stopwatch.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver
}

// ChunkCount returns the number of accumulated chunks.
func (s *Session) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// Bytes returns the accumulated payload size.
func (s *Session) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byteLen
}

// Start acquires the device and begins capturing. Only valid from idle;
// on device failure the session stays idle with no side effects.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("%w: cannot start from %s", apperr.ErrConflict, s.state)
	}

	stream, err := s.device.Acquire(ctx)
	if err != nil {
		return err
	}

	s.stream = stream
	s.chunks = nil
	s.byteLen = 0
	s.sw.Reset()
	s.sw.Start()
	s.driver = stopwatch.StartDriver(s.sw, 0, 0)
	s.transition(StateRecording)

	s.pumpWG.Add(1)
	go s.pump(stream)
	return nil
}

// pump appends delivered chunks in capture order. Chunks arriving while
// the session is paused are dropped: pause gates accumulation, the
// already-accumulated buffer is retained untouched.
func (s *Session) pump(stream Stream) {
	defer s.pumpWG.Done()
	for chunk := range stream.Chunks() {
		s.mu.Lock()
		if s.state == StateRecording {
			s.chunks = append(s.chunks, chunk)
			s.byteLen += int64(len(chunk))
		}
		s.mu.Unlock()
	}
	if err := stream.Err(); err != nil {
		s.logger.Warn("capture: stream ended with error", slog.String("error", err.Error()))
	}
}

// Pause freezes elapsed accounting and stops the display signals. Only
// valid while recording.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot pause from %s", apperr.ErrConflict, s.state)
	}
	s.sw.Pause()
	driver := s.driver
	s.driver = nil
	s.transition(StatePaused)
	s.mu.Unlock()

	// Stop outside the lock: it waits for the signal loop to exit.
	if driver != nil {
		driver.Stop()
	}
	return nil
}

// Resume continues elapsed accounting from where pause left it.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return fmt.Errorf("%w: cannot resume from %s", apperr.ErrConflict, s.state)
	}
	s.sw.Start()
	s.driver = stopwatch.StartDriver(s.sw, 0, 0)
	s.transition(StateRecording)
	return nil
}

// Stop finalizes the capture: releases the device, waits for the last
// chunk delivery, and returns the raw audio buffer. Terminal for this
// session instance until Reset.
func (s *Session) Stop() ([]byte, error) {
	s.mu.Lock()
	if s.state != StateRecording && s.state != StatePaused {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot stop from %s", apperr.ErrConflict, s.state)
	}
	s.sw.Pause()
	driver := s.driver
	s.driver = nil
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if driver != nil {
		driver.Stop()
	}
	// Close ends the producer; the pump then drains whatever the stream
	// already delivered. The state transition waits for the drain so a
	// stop from recording keeps every delivered chunk, while a stop from
	// paused still drops chunks buffered across the pause.
	if stream != nil {
		_ = stream.Close()
	}
	s.pumpWG.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transition(StateStopped)
	return bytes.Join(s.chunks, nil), nil
}

// Buffer returns the accumulated audio as one contiguous payload.
func (s *Session) Buffer() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Join(s.chunks, nil)
}

// Reset discards all accumulated data, releases the device, and clears
// the timers. Safe to call from any state, including when no device was
// ever acquired.
func (s *Session) Reset() {
	s.mu.Lock()
	driver := s.driver
	s.driver = nil
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if driver != nil {
		driver.Stop()
	}
	if stream != nil {
		_ = stream.Close()
	}
	s.pumpWG.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.byteLen = 0
	s.sw.Reset()
	s.transition(StateIdle)
}
