package audioio

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MockSource is a mock audio source for testing.
// It generates synthetic audio (silence or sine wave) at the
// configured window cadence.
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan AudioChunk
	stopCh   chan struct{}

	// Stats
	chunksRead  atomic.Int64
	samplesRead atomic.Int64

	// Synthetic audio generation
	phase     float64
	frequency float64 // Hz, 0 = silence
	amplitude float64 // 0.0 to 1.0

	// Realtime controls pacing. When false, windows are produced as
	// fast as the consumer drains them (useful in tests).
	realtime bool
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithSineWave configures the mock to generate a sine wave.
func WithSineWave(frequency, amplitude float64) MockSourceOption {
	return func(m *MockSource) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithoutPacing disables realtime pacing so windows are produced
// back-to-back.
func WithoutPacing() MockSourceOption {
	return func(m *MockSource) {
		m.realtime = false
	}
}

// NewMockSource creates a new mock audio source.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MockSource{
		cfg:       cfg,
		logger:    logger,
		streamCh:  make(chan AudioChunk, 10),
		stopCh:    make(chan struct{}),
		frequency: 0, // Silence by default
		amplitude: 0.5,
		realtime:  true,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start begins generating capture windows.
func (m *MockSource) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if m.running {
		return nil
	}

	m.running = true
	m.stopCh = make(chan struct{})
	m.streamCh = make(chan AudioChunk, 10)

	go m.generateLoop(ctx)

	return nil
}

func (m *MockSource) generateLoop(ctx context.Context) {
	out := m.streamCh
	defer close(out)

	var tick <-chan time.Time
	var ticker *time.Ticker
	if m.realtime {
		ticker = time.NewTicker(m.cfg.WindowDuration())
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if m.realtime {
			select {
			case <-ctx.Done():
				m.Stop()
				return
			case <-m.stopCh:
				return
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				m.Stop()
				return
			case <-m.stopCh:
				return
			default:
			}
		}

		chunk := m.nextWindow()
		select {
		case out <- chunk:
			m.chunksRead.Add(1)
			m.samplesRead.Add(int64(len(chunk.Samples)))
		case <-m.stopCh:
			return
		}
	}
}

// nextWindow generates one window of synthetic audio.
func (m *MockSource) nextWindow() AudioChunk {
	samples := make([]int16, m.cfg.WindowSize*m.cfg.Channels)

	if m.frequency > 0 {
		step := 2 * math.Pi * m.frequency / float64(m.cfg.SampleRate)
		for i := 0; i < m.cfg.WindowSize; i++ {
			v := int16(m.amplitude * 32767 * math.Sin(m.phase))
			for ch := 0; ch < m.cfg.Channels; ch++ {
				samples[i*m.cfg.Channels+ch] = v
			}
			m.phase += step
			if m.phase > 2*math.Pi {
				m.phase -= 2 * math.Pi
			}
		}
	}

	return AudioChunk{
		Samples:    samples,
		SampleRate: m.cfg.SampleRate,
		Channels:   m.cfg.Channels,
	}
}

// Stop halts generation.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	close(m.stopCh)
	return nil
}

// Stream returns the window channel.
func (m *MockSource) Stream() <-chan AudioChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCh
}

// Config returns the capture configuration.
func (m *MockSource) Config() Config {
	return m.cfg
}

// Name returns the backend name.
func (m *MockSource) Name() string {
	return string(BackendMock)
}

// Close releases the source permanently.
func (m *MockSource) Close() error {
	m.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// ChunksRead returns the number of windows produced so far.
func (m *MockSource) ChunksRead() int64 {
	return m.chunksRead.Load()
}

var _ Source = (*MockSource)(nil)
