package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/murmur/internal/apperr"
)

func waitForChunks(t *testing.T, s *Session, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.ChunkCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %d chunks, have %d", n, s.ChunkCount())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartAcquiresDevice(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Reset()

	if s.State() != StateRecording {
		t.Errorf("state = %s, want recording", s.State())
	}
	if dev.Acquires() != 1 {
		t.Errorf("acquires = %d, want 1", dev.Acquires())
	}
	if s.Signals() == nil {
		t.Error("expected display driver while recording")
	}
}

func TestStartDeniedLeavesIdle(t *testing.T) {
	dev := &FakeDevice{FailAcquire: true}
	s := NewSession(dev, nil)

	err := s.Start(context.Background())
	if !errors.Is(err, apperr.ErrDeviceUnavailable) {
		t.Fatalf("Start = %v, want ErrDeviceUnavailable", err)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %s, want idle after denied start", s.State())
	}
	if s.Elapsed() != 0 {
		t.Errorf("elapsed = %v, want 0", s.Elapsed())
	}
}

func TestStartTwiceRejected(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)
	_ = s.Start(context.Background())
	defer s.Reset()

	if err := s.Start(context.Background()); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second Start = %v, want ErrConflict", err)
	}
	if dev.Acquires() != 1 {
		t.Errorf("acquires = %d after rejected start, want 1", dev.Acquires())
	}
}

func TestChunksAccumulateInOrder(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)
	_ = s.Start(context.Background())

	stream := dev.Stream()
	stream.Push([]byte("aa"))
	stream.Push([]byte("bb"))
	stream.Push([]byte("cc"))
	waitForChunks(t, s, 3)

	buf, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if string(buf) != "aabbcc" {
		t.Errorf("buffer = %q, want aabbcc", buf)
	}
	if s.Bytes() != 6 {
		t.Errorf("bytes = %d, want 6", s.Bytes())
	}
}

func TestPauseRetainsBufferAndDropsNewChunks(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)
	_ = s.Start(context.Background())

	stream := dev.Stream()
	stream.Push([]byte("keep"))
	waitForChunks(t, s, 1)

	if err := s.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if s.State() != StatePaused {
		t.Errorf("state = %s, want paused", s.State())
	}
	if s.Signals() != nil {
		t.Error("display driver must be stopped while paused")
	}

	stream.Push([]byte("dropped"))
	time.Sleep(10 * time.Millisecond)
	if got := s.Buffer(); string(got) != "keep" {
		t.Errorf("buffer = %q, want only pre-pause data", got)
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	stream.Push([]byte("more"))
	waitForChunks(t, s, 2)
	s.Reset()
}

func TestStopReleasesDevice(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)
	_ = s.Start(context.Background())

	if _, err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.State() != StateStopped {
		t.Errorf("state = %s, want stopped", s.State())
	}
	if dev.Releases() != 1 {
		t.Errorf("releases = %d, want 1", dev.Releases())
	}
}

func TestResetReleasesDeviceFromAnyState(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)
	_ = s.Start(context.Background())
	_ = s.Pause()

	s.Reset()
	if s.State() != StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
	if dev.Releases() != 1 {
		t.Errorf("releases = %d, want 1", dev.Releases())
	}
	if s.ChunkCount() != 0 || s.Elapsed() != 0 {
		t.Error("reset must discard buffer and zero elapsed")
	}
	if s.Signals() != nil {
		t.Error("no display driver may survive reset")
	}
}

func TestResetIdempotentWithoutDevice(t *testing.T) {
	s := NewSession(&FakeDevice{}, nil)
	s.Reset()
	s.Reset()
	if s.State() != StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
}

func TestDeviceAcquiredAtMostOnce(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)

	// Full lifecycle with pause/resume: device must be acquired exactly
	// once and released exactly once.
	_ = s.Start(context.Background())
	_ = s.Pause()
	_ = s.Resume()
	_, _ = s.Stop()
	s.Reset()

	if dev.Acquires() != 1 {
		t.Errorf("acquires = %d, want 1", dev.Acquires())
	}
	if dev.Releases() != 1 {
		t.Errorf("releases = %d, want 1", dev.Releases())
	}
}

func TestElapsedFrozenAcrossPause(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)
	_ = s.Start(context.Background())

	time.Sleep(20 * time.Millisecond)
	_ = s.Pause()
	frozen := s.Elapsed()
	if frozen == 0 {
		t.Fatal("elapsed should be non-zero after recording")
	}

	time.Sleep(20 * time.Millisecond)
	if got := s.Elapsed(); got != frozen {
		t.Errorf("elapsed moved while paused: %v != %v", got, frozen)
	}

	_ = s.Resume()
	time.Sleep(10 * time.Millisecond)
	if got := s.Elapsed(); got <= frozen {
		t.Errorf("elapsed = %v, want > %v after resume", got, frozen)
	}
	s.Reset()
}

func TestStateCallbackSequence(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)
	var states []State
	s.SetStateCallback(func(st State) {
		states = append(states, st)
	})

	_ = s.Start(context.Background())
	_ = s.Pause()
	_ = s.Resume()
	_, _ = s.Stop()
	s.Reset()

	want := []State{StateRecording, StatePaused, StateRecording, StateStopped, StateIdle}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %s, want %s", i, states[i], want[i])
		}
	}
}

func TestStopKeepsDeliveredUnconsumedChunks(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)
	_ = s.Start(context.Background())

	// Deliver chunks and stop immediately, without waiting for the pump
	// to consume them. Everything the stream delivered belongs in the
	// final buffer.
	dev.Stream().Push([]byte("aa"))
	dev.Stream().Push([]byte("tail"))

	buf, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := string(buf); got != "aatail" {
		t.Errorf("buffer = %q, want %q", got, "aatail")
	}
	s.Reset()
}

func TestElapsedConcurrentWithPauseResume(t *testing.T) {
	dev := &FakeDevice{}
	s := NewSession(dev, nil)
	_ = s.Start(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_ = s.Elapsed()
		}
	}()

	for i := 0; i < 50; i++ {
		_ = s.Pause()
		_ = s.Resume()
	}
	<-done
	s.Reset()
}
