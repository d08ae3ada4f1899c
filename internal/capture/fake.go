package capture

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/starford/murmur/internal/apperr"
)

// FakeDevice is an in-memory Device for tests. It records acquire and
// release counts and lets the test push chunks by hand.
type FakeDevice struct {
	// FailAcquire makes Acquire return ErrDeviceUnavailable.
	FailAcquire bool

	mu       sync.Mutex
	acquires int
	releases int
	current  *FakeStream
}

// Acquire hands out a new fake stream, enforcing exclusivity like a real
// input device.
func (d *FakeDevice) Acquire(_ context.Context) (Stream, error) {
	if d.FailAcquire {
		return nil, apperr.ErrDeviceUnavailable
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil && !d.current.closed.Load() {
		return nil, apperr.ErrDeviceUnavailable
	}
	d.acquires++
	s := &FakeStream{device: d, chunks: make(chan []byte, 64)}
	d.current = s
	return s, nil
}

// Acquires returns how many times the device was acquired.
func (d *FakeDevice) Acquires() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acquires
}

// Releases returns how many times a stream was released.
func (d *FakeDevice) Releases() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releases
}

// Stream returns the most recently acquired fake stream.
func (d *FakeDevice) Stream() *FakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// FakeStream is the Stream handed out by FakeDevice.
type FakeStream struct {
	device *FakeDevice
	chunks chan []byte
	closed atomic.Bool
}

// Push delivers a chunk to the consumer. Returns false once closed.
func (s *FakeStream) Push(chunk []byte) bool {
	if s.closed.Load() {
		return false
	}
	s.chunks <- chunk
	return true
}

func (s *FakeStream) Chunks() <-chan []byte {
	return s.chunks
}

// Close releases the stream. Idempotent.
func (s *FakeStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.chunks)
	s.device.mu.Lock()
	s.device.releases++
	s.device.mu.Unlock()
	return nil
}

func (s *FakeStream) Err() error {
	return nil
}
