package internal

import "github.com/starford/murmur/internal/capture"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	device capture.Device
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithDevice overrides the capture device. Defaults to the ffmpeg
// microphone; tests substitute a fake.
func WithDevice(d capture.Device) Option {
	return func(a *application) {
		a.device = d
	}
}
