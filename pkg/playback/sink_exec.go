package playback

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
)

// ExecSink plays PCM16 by piping it into an external player process
// (aplay on linux, sox's play elsewhere). The process is started
// lazily on the first write and killed on Reset so an interruption
// drops the player's internal buffer too.
type ExecSink struct {
	sampleRate int
	channels   int
	logger     *slog.Logger

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewExecSink creates a sink playing mono PCM16 at the given rate.
func NewExecSink(sampleRate int, logger *slog.Logger) *ExecSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecSink{
		sampleRate: sampleRate,
		channels:   1,
		logger:     logger,
	}
}

func (s *ExecSink) playerCommand() *exec.Cmd {
	rate := fmt.Sprintf("%d", s.sampleRate)
	ch := fmt.Sprintf("%d", s.channels)

	if runtime.GOOS == "linux" {
		return exec.Command("aplay", "-q", "-f", "S16_LE", "-r", rate, "-c", ch, "-t", "raw")
	}
	// sox: play from stdin as raw signed 16-bit little-endian
	return exec.Command("play", "-q",
		"-t", "raw", "-r", rate, "-e", "signed", "-b", "16", "-c", ch, "-")
}

func (s *ExecSink) startLocked() error {
	cmd := s.playerCommand()
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("playback: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("playback: start player: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.logger.Debug("playback sink started", "player", cmd.Path, "rate", s.sampleRate)
	return nil
}

func (s *ExecSink) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		if err := s.startLocked(); err != nil {
			return err
		}
	}

	if _, err := s.stdin.Write(pcm); err != nil {
		// Player died mid-stream; tear down so the next write restarts it.
		s.stopLocked()
		return fmt.Errorf("playback: write: %w", err)
	}
	return nil
}

func (s *ExecSink) stopLocked() {
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.cmd = nil
}

// Reset kills the player process, discarding buffered audio.
func (s *ExecSink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

func (s *ExecSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

var _ Sink = (*ExecSink)(nil)
