package vision

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultInterval is one frame per second.
const DefaultInterval = time.Second

// Config wires a Sampler. OpenGrabber and Forward are required.
type Config struct {
	// Interval between frames; zero means DefaultInterval.
	Interval time.Duration

	// OpenGrabber acquires the camera. Called on Enable so the device
	// stays free while sampling is off.
	OpenGrabber func() (FrameGrabber, error)

	// Forward receives each encoded frame. The receiver decides
	// whether a session is open; the sampler never queues.
	Forward func(jpeg []byte)

	Clock  clock.Clock
	Logger *slog.Logger
}

// Sampler grabs a frame every interval and hands it to Forward. Its
// lifecycle is independent of the session's: Enable/Disable at any
// time, Disable releases the camera.
type Sampler struct {
	cfg    Config
	clk    clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	grabber FrameGrabber
	stop    chan struct{}
	done    chan struct{}

	frameMu sync.Mutex
	last    []byte
}

// NewSampler creates a disabled sampler.
func NewSampler(cfg Config) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{cfg: cfg, clk: clk, logger: logger}
}

// Enable acquires the camera and starts sampling. Enabling twice is a
// no-op.
func (s *Sampler) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grabber != nil {
		return nil
	}
	grabber, err := s.cfg.OpenGrabber()
	if err != nil {
		return fmt.Errorf("vision: enable: %w", err)
	}

	s.grabber = grabber
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(grabber, s.stop, s.done)

	s.logger.Debug("vision sampling enabled", "interval", s.cfg.Interval)
	return nil
}

// Disable stops sampling and releases the camera. Safe to call when
// already disabled.
func (s *Sampler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grabber == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.grabber.Close()
	s.grabber = nil
	s.stop = nil
	s.done = nil

	s.frameMu.Lock()
	s.last = nil
	s.frameMu.Unlock()

	s.logger.Debug("vision sampling disabled")
}

// LastFrame returns the most recent frame, or false before the first
// grab or while sampling is off.
func (s *Sampler) LastFrame() ([]byte, bool) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	if s.last == nil {
		return nil, false
	}
	out := make([]byte, len(s.last))
	copy(out, s.last)
	return out, true
}

// Enabled reports whether the sampler holds the camera.
func (s *Sampler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grabber != nil
}

func (s *Sampler) loop(grabber FrameGrabber, stop, done chan struct{}) {
	defer close(done)
	ticker := s.clk.Ticker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame, err := grabber.Grab()
			if err != nil {
				s.logger.Debug("frame grab failed", "error", err)
				continue
			}
			s.frameMu.Lock()
			s.last = frame
			s.frameMu.Unlock()
			s.cfg.Forward(frame)
		}
	}
}
