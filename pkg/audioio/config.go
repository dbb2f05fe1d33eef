// Package audioio provides microphone capture for the assistant engine.
//
// This package supports multiple backends:
//   - Exec - drives an external capture tool (arecord/rec) over a pipe
//   - Mock - CI/Testing without hardware
//
// The backend is selected automatically based on platform, or can be
// explicitly specified via configuration.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio capture backend type.
type Backend string

const (
	// BackendAuto automatically selects the best available backend.
	BackendAuto Backend = "auto"
	// BackendExec captures through an external recorder process.
	BackendExec Backend = "exec"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds capture configuration.
type Config struct {
	// Backend specifies which capture backend to use.
	// Default: "auto" (selects best available for platform)
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate is the capture sample rate in Hz.
	// Default: 16000 (the rate the remote service expects)
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of audio channels.
	// Default: 1 (mono)
	Channels int `yaml:"channels" json:"channels"`

	// WindowSize is the number of samples per capture window.
	// Default: 4096 (256ms at 16kHz)
	WindowSize int `yaml:"window_size" json:"window_size"`

	// Device is the platform-specific device identifier.
	// Examples: "hw:0,0", "default", or empty for system default.
	Device string `yaml:"device" json:"device"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendAuto,
		SampleRate: 16000,
		Channels:   1,
		WindowSize: 4096,
		Device:     "",
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	return nil
}

// WindowDuration returns the playback duration of one capture window.
func (c *Config) WindowDuration() time.Duration {
	return time.Duration(float64(c.WindowSize) / float64(c.SampleRate) * float64(time.Second))
}

// WindowBytes returns the size of one window in bytes (int16 samples).
func (c *Config) WindowBytes() int {
	return c.WindowSize * c.Channels * 2
}
