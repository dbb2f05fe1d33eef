package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/kinglabs/go-king/pkg/pcm"
)

// DefaultSampleRate is the inbound model audio rate.
const DefaultSampleRate = 24000

// Config configures a Scheduler. Sink is required; a nil Clock uses
// the wall clock.
type Config struct {
	SampleRate int
	Sink       Sink
	Clock      clock.Clock
	Logger     *slog.Logger

	// OnDrained fires once each time the outstanding set empties by
	// units finishing naturally. Cancellation never fires it.
	OnDrained func()
}

type unit struct {
	id      uuid.UUID
	startAt time.Time
	endAt   time.Time
	play    *clock.Timer
	done    *clock.Timer
}

// Scheduler lays decoded chunks end to end on a virtual timeline: each
// chunk starts at max(now, end of the previous chunk), so consecutive
// chunks play gaplessly and a chunk arriving after a silence starts
// immediately.
type Scheduler struct {
	sampleRate int
	sink       Sink
	clk        clock.Clock
	logger     *slog.Logger
	onDrained  func()

	mu          sync.Mutex
	gen         uint64
	outstanding map[uuid.UUID]*unit
	nextFree    time.Time
}

// NewScheduler creates a scheduler with an empty timeline.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		sampleRate:  cfg.SampleRate,
		sink:        cfg.Sink,
		clk:         cfg.Clock,
		logger:      cfg.Logger,
		onDrained:   cfg.OnDrained,
		outstanding: make(map[uuid.UUID]*unit),
	}
}

// Enqueue decodes one base64 chunk and schedules it. A decode failure
// is returned as *pcm.DecodeError and affects only that chunk; the
// timeline is untouched.
func (s *Scheduler) Enqueue(data string) error {
	decoded, err := pcm.Decode(data)
	if err != nil {
		return err
	}
	if len(decoded) == 0 {
		return nil
	}
	dur := pcm.BytesDuration(decoded, s.sampleRate)

	s.mu.Lock()
	now := s.clk.Now()
	startAt := now
	if s.nextFree.After(now) {
		startAt = s.nextFree
	}
	endAt := startAt.Add(dur)
	s.nextFree = endAt

	gen := s.gen
	u := &unit{id: uuid.New(), startAt: startAt, endAt: endAt}
	s.outstanding[u.id] = u

	u.play = s.clk.AfterFunc(startAt.Sub(now), func() {
		s.deliver(gen, decoded)
	})
	u.done = s.clk.AfterFunc(endAt.Sub(now), func() {
		s.finish(gen, u.id)
	})
	s.mu.Unlock()

	s.logger.Debug("chunk scheduled",
		"unit", u.id, "start_in", startAt.Sub(now), "duration", dur)
	return nil
}

func (s *Scheduler) deliver(gen uint64, pcmData []byte) {
	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return
	}
	if err := s.sink.Write(pcmData); err != nil {
		s.logger.Warn("playback sink write failed", "error", err)
	}
}

func (s *Scheduler) finish(gen uint64, id uuid.UUID) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	delete(s.outstanding, id)
	drained := len(s.outstanding) == 0
	s.mu.Unlock()

	if drained && s.onDrained != nil {
		s.onDrained()
	}
}

// CancelAll empties the outstanding set and resets the timeline, so
// the next chunk starts at now. It never reports drained; the caller
// decided to interrupt and already knows playback stopped.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	s.gen++
	for _, u := range s.outstanding {
		u.play.Stop()
		u.done.Stop()
	}
	n := len(s.outstanding)
	s.outstanding = make(map[uuid.UUID]*unit)
	s.nextFree = time.Time{}
	s.mu.Unlock()

	if err := s.sink.Reset(); err != nil {
		s.logger.Warn("playback sink reset failed", "error", err)
	}
	if n > 0 {
		s.logger.Debug("playback cancelled", "units", n)
	}
}

// Outstanding returns the number of scheduled units not yet finished.
func (s *Scheduler) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outstanding)
}

// NextFree returns the end of the last scheduled unit, or the zero
// time when the timeline is empty.
func (s *Scheduler) NextFree() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextFree
}

// Close cancels pending playback and closes the sink.
func (s *Scheduler) Close() error {
	s.CancelAll()
	return s.sink.Close()
}
