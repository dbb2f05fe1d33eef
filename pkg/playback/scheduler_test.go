package playback

import (
	"encoding/base64"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/kinglabs/go-king/pkg/pcm"
)

// oneSecondChunk is 24000 zero samples at 24kHz, base64 encoded.
func oneSecondChunk() string {
	return base64.StdEncoding.EncodeToString(make([]byte, 24000*2))
}

func newTestScheduler(t *testing.T) (*Scheduler, *clock.Mock, *BufferSink, *atomic.Int32) {
	t.Helper()
	mock := clock.NewMock()
	sink := NewBufferSink()
	var drained atomic.Int32
	s := NewScheduler(Config{
		SampleRate: 24000,
		Sink:       sink,
		Clock:      mock,
		OnDrained:  func() { drained.Add(1) },
	})
	return s, mock, sink, &drained
}

func TestSchedulerGaplessTimeline(t *testing.T) {
	s, mock, sink, drained := newTestScheduler(t)
	start := mock.Now()

	for i := 0; i < 3; i++ {
		if err := s.Enqueue(oneSecondChunk()); err != nil {
			t.Fatalf("enqueue %d failed: %v", i, err)
		}
	}

	if got := s.Outstanding(); got != 3 {
		t.Fatalf("expected 3 outstanding units, got %d", got)
	}
	// Three one-second chunks lay out back to back: 0-1s, 1-2s, 2-3s.
	if want := start.Add(3 * time.Second); !s.NextFree().Equal(want) {
		t.Errorf("next free = %v, want %v", s.NextFree(), want)
	}

	mock.Add(500 * time.Millisecond)
	if got := len(sink.Chunks()); got != 1 {
		t.Errorf("at 0.5s expected 1 chunk delivered, got %d", got)
	}
	if got := drained.Load(); got != 0 {
		t.Errorf("drained fired early: %d", got)
	}

	mock.Add(600 * time.Millisecond) // t=1.1s
	if got := len(sink.Chunks()); got != 2 {
		t.Errorf("at 1.1s expected 2 chunks delivered, got %d", got)
	}
	if got := s.Outstanding(); got != 2 {
		t.Errorf("at 1.1s expected 2 outstanding, got %d", got)
	}

	mock.Add(2 * time.Second) // t=3.1s
	if got := s.Outstanding(); got != 0 {
		t.Errorf("expected empty outstanding set, got %d", got)
	}
	if got := drained.Load(); got != 1 {
		t.Errorf("expected drained once, got %d", got)
	}
}

func TestSchedulerStartsImmediatelyAfterSilence(t *testing.T) {
	s, mock, _, drained := newTestScheduler(t)

	if err := s.Enqueue(oneSecondChunk()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	mock.Add(2 * time.Second)
	if got := drained.Load(); got != 1 {
		t.Fatalf("expected drained once, got %d", got)
	}

	// The old timeline ended in the past; the new chunk starts now.
	if err := s.Enqueue(oneSecondChunk()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if want := mock.Now().Add(time.Second); !s.NextFree().Equal(want) {
		t.Errorf("next free = %v, want %v", s.NextFree(), want)
	}
}

func TestSchedulerCancelAll(t *testing.T) {
	s, mock, sink, drained := newTestScheduler(t)

	for i := 0; i < 3; i++ {
		if err := s.Enqueue(oneSecondChunk()); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}
	mock.Add(500 * time.Millisecond)

	s.CancelAll()

	if got := s.Outstanding(); got != 0 {
		t.Errorf("expected empty outstanding set after cancel, got %d", got)
	}
	if !s.NextFree().IsZero() {
		t.Errorf("expected timeline reset, next free = %v", s.NextFree())
	}
	if got := sink.Resets(); got != 1 {
		t.Errorf("expected 1 sink reset, got %d", got)
	}
	if got := drained.Load(); got != 0 {
		t.Errorf("cancellation must not report drained, got %d", got)
	}

	// Stale timers must not fire after cancellation.
	before := len(sink.Chunks())
	mock.Add(5 * time.Second)
	if got := len(sink.Chunks()); got != before {
		t.Errorf("cancelled units still delivered: %d -> %d", before, got)
	}
	if got := drained.Load(); got != 0 {
		t.Errorf("drained fired for cancelled units: %d", got)
	}

	// The next chunk starts at now, not on the old timeline.
	if err := s.Enqueue(oneSecondChunk()); err != nil {
		t.Fatalf("enqueue after cancel failed: %v", err)
	}
	if want := mock.Now().Add(time.Second); !s.NextFree().Equal(want) {
		t.Errorf("next free = %v, want %v", s.NextFree(), want)
	}
	mock.Add(1100 * time.Millisecond)
	if got := drained.Load(); got != 1 {
		t.Errorf("expected drained once after post-cancel unit, got %d", got)
	}
}

func TestSchedulerDecodeErrorIsChunkLocal(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)

	if err := s.Enqueue(oneSecondChunk()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	before := s.NextFree()

	err := s.Enqueue("!!! not base64 !!!")
	var decodeErr *pcm.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *pcm.DecodeError, got %v", err)
	}

	if got := s.Outstanding(); got != 1 {
		t.Errorf("bad chunk altered outstanding set: %d", got)
	}
	if !s.NextFree().Equal(before) {
		t.Errorf("bad chunk moved the timeline: %v -> %v", before, s.NextFree())
	}

	// A good chunk still schedules after the failure.
	if err := s.Enqueue(oneSecondChunk()); err != nil {
		t.Fatalf("enqueue after bad chunk failed: %v", err)
	}
	if got := s.Outstanding(); got != 2 {
		t.Errorf("expected 2 outstanding, got %d", got)
	}
}

func TestSchedulerEmptyChunk(t *testing.T) {
	s, _, _, _ := newTestScheduler(t)

	if err := s.Enqueue(""); err != nil {
		t.Fatalf("empty chunk should be a no-op, got %v", err)
	}
	if got := s.Outstanding(); got != 0 {
		t.Errorf("empty chunk scheduled a unit: %d", got)
	}
}
