package audioio

import (
	"context"
	"errors"
	"io"

	"github.com/kinglabs/go-king/pkg/pcm"
)

// ErrPermission indicates the capture device could not be opened.
var ErrPermission = errors.New("audioio: microphone access denied")

// AudioChunk represents one fixed-size window of captured audio.
type AudioChunk struct {
	// Samples contains PCM16 audio samples (little-endian).
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Bytes returns the raw PCM16 bytes of the audio chunk.
func (c *AudioChunk) Bytes() []byte {
	return pcm.SamplesToBytes(c.Samples)
}

// Blob encodes the chunk for transport.
func (c *AudioChunk) Blob() pcm.Blob {
	return pcm.EncodeSamples(c.Samples, c.SampleRate)
}

// Duration returns the playback duration of this chunk.
func (c *AudioChunk) Duration() float64 {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate*c.Channels)
}

// Source captures audio from a microphone or other input device.
//
// A stopped source can be restarted with Start; Close releases the
// device permanently. Stop must free the hardware even after an
// abnormal session end.
type Source interface {
	// Start begins audio capture.
	// After calling Start, windows are available via Stream.
	Start(ctx context.Context) error

	// Stop halts audio capture and releases the device.
	// It is safe to call Stop multiple times.
	Stop() error

	// Stream returns a channel that receives capture windows.
	// The channel is closed when the source is stopped.
	Stream() <-chan AudioChunk

	// Config returns the current capture configuration.
	Config() Config

	// Name returns the backend name (e.g., "exec", "mock").
	Name() string

	// Close releases all resources.
	// After Close, the source cannot be restarted.
	io.Closer
}
