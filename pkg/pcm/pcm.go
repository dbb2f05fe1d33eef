// Package pcm converts between floating-point audio samples, 16-bit
// little-endian PCM byte buffers, and the base64 representation used
// on the wire. All functions are pure; the package holds no state.
package pcm

import (
	"encoding/base64"
	"fmt"
	"time"
)

// BytesPerSample is the width of one PCM16 sample.
const BytesPerSample = 2

// Blob is a transport-safe encoded audio or image payload.
type Blob struct {
	// Data is the base64-encoded payload.
	Data string `json:"data"`

	// MIMEType declares the payload format, including the sample
	// rate for raw PCM (e.g. "audio/pcm;rate=16000").
	MIMEType string `json:"mimeType"`
}

// AudioMIME returns the mime type for raw PCM at the given rate.
func AudioMIME(rate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", rate)
}

// DecodeError reports a payload that could not be decoded.
// It is chunk-local: callers drop the chunk and carry on.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("pcm: decode failed: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// FloatToPCM16 converts float32 samples in [-1, 1] to PCM16 bytes.
// Out-of-range samples are clamped rather than wrapped.
func FloatToPCM16(samples []float32) []byte {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, f := range samples {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		s := int16(f * 32767)
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

// PCM16ToFloat converts PCM16 bytes to float32 samples in [-1, 1].
func PCM16ToFloat(data []byte) []float32 {
	samples := make([]float32, len(data)/BytesPerSample)
	for i := range samples {
		s := int16(data[i*2]) | int16(data[i*2+1])<<8
		samples[i] = float32(s) / 32768
	}
	return samples
}

// BytesToSamples converts raw PCM16 little-endian bytes to int16 samples.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// SamplesToBytes converts int16 samples to raw PCM16 little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

// Encode wraps PCM16 bytes in a transport Blob at the given rate.
func Encode(data []byte, rate int) Blob {
	return Blob{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: AudioMIME(rate),
	}
}

// EncodeSamples encodes int16 samples into a transport Blob.
func EncodeSamples(samples []int16, rate int) Blob {
	return Encode(SamplesToBytes(samples), rate)
}

// Decode converts a base64 payload back into PCM16 bytes.
// A malformed payload returns a *DecodeError.
func Decode(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &DecodeError{Cause: err}
	}
	return raw, nil
}

// Duration returns the playback duration of sampleCount samples at
// the given rate.
func Duration(sampleCount, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(sampleCount) / float64(rate) * float64(time.Second))
}

// BytesDuration returns the playback duration of a PCM16 byte buffer.
func BytesDuration(data []byte, rate int) time.Duration {
	return Duration(len(data)/BytesPerSample, rate)
}
