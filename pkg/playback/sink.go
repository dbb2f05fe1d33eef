// Package playback schedules decoded PCM chunks onto a gapless
// timeline and feeds them to an output sink at their start times.
package playback

import "sync"

// Sink consumes raw PCM16 audio. Write delivers one chunk at its
// scheduled start; Reset discards anything buffered downstream after
// an interruption.
type Sink interface {
	Write(pcm []byte) error
	Reset() error
	Close() error
}

// BufferSink collects written chunks in memory. It backs tests and
// headless runs where no audio device exists.
type BufferSink struct {
	mu     sync.Mutex
	chunks [][]byte
	resets int
	closed bool
}

// NewBufferSink returns an empty in-memory sink.
func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (b *BufferSink) Write(pcm []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := make([]byte, len(pcm))
	copy(cp, pcm)
	b.chunks = append(b.chunks, cp)
	return nil
}

func (b *BufferSink) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = nil
	b.resets++
	return nil
}

func (b *BufferSink) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Chunks returns the chunks written since the last reset.
func (b *BufferSink) Chunks() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.chunks))
	copy(out, b.chunks)
	return out
}

// Resets returns how many times the sink was reset.
func (b *BufferSink) Resets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resets
}

var _ Sink = (*BufferSink)(nil)
