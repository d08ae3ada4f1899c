package capture

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync/atomic"

	"github.com/starford/murmur/internal/apperr"
)

// chunkSize is the read granularity of the ffmpeg stdout pump.
const chunkSize = 4096

// Mic captures from the default input device by shelling out to ffmpeg
// and streaming mono 16 kHz WAV from its stdout. At most one stream may
// be held at a time; a second Acquire fails until the first is released.
type Mic struct {
	format string // ffmpeg input format, e.g. "avfoundation", "alsa", "pulse"
	input  string // ffmpeg input spec, e.g. ":default", "default"
	inUse  atomic.Bool
}

// NewMic creates a microphone device. Empty format/input fall back to
// pulse/default, which covers most Linux desktops.
func NewMic(format, input string) *Mic {
	if format == "" {
		format = "pulse"
	}
	if input == "" {
		input = "default"
	}
	return &Mic{format: format, input: input}
}

// Acquire starts ffmpeg and returns the chunk stream. The device is held
// exclusively until Stream.Close.
func (m *Mic) Acquire(ctx context.Context) (Stream, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found", apperr.ErrDeviceUnavailable)
	}
	if !m.inUse.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: input already held by another session", apperr.ErrDeviceUnavailable)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", m.format,
		"-i", m.input,
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		"-loglevel", "error",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		m.inUse.Store(false)
		return nil, fmt.Errorf("%w: %v", apperr.ErrDeviceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		m.inUse.Store(false)
		return nil, fmt.Errorf("%w: %v", apperr.ErrDeviceUnavailable, err)
	}

	s := &micStream{
		mic:    m,
		cmd:    cmd,
		chunks: make(chan []byte, 16),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.pump(stdout)
	return s, nil
}

type micStream struct {
	mic    *Mic
	cmd    *exec.Cmd
	chunks chan []byte
	quit   chan struct{}
	done   chan struct{}
	err    error
	closed atomic.Bool
}

func (s *micStream) pump(r io.Reader) {
	defer close(s.chunks)
	defer close(s.done)
	for {
		buf := make([]byte, chunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case s.chunks <- buf[:n]:
			case <-s.quit:
				return
			}
		}
		if err != nil {
			if err != io.EOF && !s.closed.Load() {
				s.err = err
			}
			return
		}
	}
}

func (s *micStream) Chunks() <-chan []byte {
	return s.chunks
}

// Close terminates ffmpeg and releases the device. Idempotent.
func (s *micStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.quit)
	_ = s.cmd.Process.Kill()
	<-s.done
	_ = s.cmd.Wait()
	s.mic.inUse.Store(false)
	return nil
}

func (s *micStream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
