package vision

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

type fakeGrabber struct {
	mu     sync.Mutex
	frames int
	fail   bool
	closed bool
}

func (f *fakeGrabber) Grab() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("sensor glitch")
	}
	f.frames++
	return []byte{0xff, 0xd8, byte(f.frames)}, nil
}

func (f *fakeGrabber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeGrabber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type frameCollector struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *frameCollector) forward(jpeg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, jpeg)
}

func (c *frameCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func newTestSampler(grabber *fakeGrabber) (*Sampler, *clock.Mock, *frameCollector) {
	mock := clock.NewMock()
	collector := &frameCollector{}
	s := NewSampler(Config{
		Interval:    time.Second,
		OpenGrabber: func() (FrameGrabber, error) { return grabber, nil },
		Forward:     collector.forward,
		Clock:       mock,
	})
	return s, mock, collector
}

func waitForFrames(t *testing.T, c *frameCollector, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("got %d frames, want at least %d", c.count(), want)
}

func TestSamplerForwardsAtInterval(t *testing.T) {
	grabber := &fakeGrabber{}
	s, mock, collector := newTestSampler(grabber)

	if err := s.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	defer s.Disable()

	time.Sleep(20 * time.Millisecond) // let the loop arm its ticker
	mock.Add(3 * time.Second)
	waitForFrames(t, collector, 3)
}

func TestSamplerSkipsFailedGrabs(t *testing.T) {
	grabber := &fakeGrabber{fail: true}
	s, mock, collector := newTestSampler(grabber)

	if err := s.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	defer s.Disable()

	time.Sleep(20 * time.Millisecond)
	mock.Add(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if got := collector.count(); got != 0 {
		t.Errorf("failed grabs forwarded %d frames", got)
	}
}

func TestSamplerLifecycle(t *testing.T) {
	grabber := &fakeGrabber{}
	s, mock, collector := newTestSampler(grabber)

	if s.Enabled() {
		t.Fatal("sampler enabled before Enable")
	}
	if err := s.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if err := s.Enable(); err != nil {
		t.Fatalf("second enable should be a no-op: %v", err)
	}
	if !s.Enabled() {
		t.Fatal("sampler not enabled")
	}

	time.Sleep(20 * time.Millisecond)
	mock.Add(time.Second)
	waitForFrames(t, collector, 1)

	s.Disable()
	if s.Enabled() {
		t.Error("sampler still enabled after Disable")
	}
	if !grabber.isClosed() {
		t.Error("camera not released on Disable")
	}

	// No new frames after disable.
	before := collector.count()
	mock.Add(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if got := collector.count(); got != before {
		t.Errorf("frames forwarded after disable: %d -> %d", before, got)
	}

	// Disabling twice must not panic.
	s.Disable()
}

func TestSamplerEnableFailure(t *testing.T) {
	s := NewSampler(Config{
		OpenGrabber: func() (FrameGrabber, error) { return nil, errors.New("camera busy") },
		Forward:     func([]byte) {},
	})

	if err := s.Enable(); err == nil {
		t.Fatal("expected error when camera open fails")
	}
	if s.Enabled() {
		t.Error("sampler enabled despite open failure")
	}
}

func TestSamplerLastFrame(t *testing.T) {
	grabber := &fakeGrabber{}
	s, mock, collector := newTestSampler(grabber)

	if _, ok := s.LastFrame(); ok {
		t.Error("LastFrame before enable should report no frame")
	}

	if err := s.Enable(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	mock.Add(2 * time.Second)
	waitForFrames(t, collector, 2)

	frame, ok := s.LastFrame()
	if !ok || len(frame) == 0 {
		t.Fatal("expected a cached frame while sampling")
	}

	s.Disable()
	if _, ok := s.LastFrame(); ok {
		t.Error("LastFrame after disable should report no frame")
	}
}
