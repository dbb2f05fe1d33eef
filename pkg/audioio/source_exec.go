package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/kinglabs/go-king/pkg/pcm"
)

// ExecSource captures audio by running an external recorder process
// (arecord on Linux, sox's rec elsewhere) and slicing its raw PCM
// output into fixed-size windows.
type ExecSource struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool

	cmd      *exec.Cmd
	stdout   io.ReadCloser
	streamCh chan AudioChunk
	stopCh   chan struct{}

	chunksRead atomic.Int64
	overruns   atomic.Int64
}

// NewExecSource creates an exec-backed audio source.
func NewExecSource(cfg Config, logger *slog.Logger) (*ExecSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	return &ExecSource{
		cfg:      cfg,
		logger:   logger,
		streamCh: make(chan AudioChunk, 10),
		stopCh:   make(chan struct{}),
	}, nil
}

// recorderCommand builds the capture command for the current platform.
func (s *ExecSource) recorderCommand() *exec.Cmd {
	rate := fmt.Sprintf("%d", s.cfg.SampleRate)
	channels := fmt.Sprintf("%d", s.cfg.Channels)

	if runtime.GOOS == "linux" {
		args := []string{"-q", "-f", "S16_LE", "-r", rate, "-c", channels, "-t", "raw"}
		if s.cfg.Device != "" {
			args = append(args, "-D", s.cfg.Device)
		}
		return exec.Command("arecord", args...)
	}

	// sox `rec` with raw signed 16-bit output on stdout.
	return exec.Command("rec", "-q", "-t", "raw", "-b", "16", "-e", "signed",
		"-r", rate, "-c", channels, "-")
}

// Start launches the recorder and begins producing windows.
// A failure to launch or open the device maps to ErrPermission so the
// caller can surface it as a microphone-access problem.
func (s *ExecSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}

	cmd := s.recorderCommand()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermission, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrPermission, err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.running = true
	s.stopCh = make(chan struct{})
	s.streamCh = make(chan AudioChunk, 10)

	go s.captureLoop(ctx)

	s.logger.Info("capture started",
		"backend", "exec",
		"sample_rate", s.cfg.SampleRate,
		"window_samples", s.cfg.WindowSize,
	)

	return nil
}

func (s *ExecSource) captureLoop(ctx context.Context) {
	out := s.streamCh
	defer close(out)

	buf := make([]byte, s.cfg.WindowBytes())

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.stopCh:
			return
		default:
		}

		if _, err := io.ReadFull(s.stdout, buf); err != nil {
			select {
			case <-s.stopCh:
			default:
				s.logger.Warn("capture stream ended", "err", err)
			}
			return
		}

		chunk := AudioChunk{
			Samples:    pcm.BytesToSamples(buf),
			SampleRate: s.cfg.SampleRate,
			Channels:   s.cfg.Channels,
		}
		buf = make([]byte, s.cfg.WindowBytes())

		select {
		case out <- chunk:
			s.chunksRead.Add(1)
		default:
			s.overruns.Add(1)
			s.logger.Debug("capture buffer full, dropping window")
		}
	}
}

// Stop halts capture and releases the device.
func (s *ExecSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopCh)

	if s.stdout != nil {
		s.stdout.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.cmd = nil
	s.stdout = nil
	return nil
}

// Stream returns the window channel.
func (s *ExecSource) Stream() <-chan AudioChunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamCh
}

// Config returns the capture configuration.
func (s *ExecSource) Config() Config {
	return s.cfg
}

// Name returns the backend name.
func (s *ExecSource) Name() string {
	return string(BackendExec)
}

// Close releases the source permanently.
func (s *ExecSource) Close() error {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Source = (*ExecSource)(nil)
