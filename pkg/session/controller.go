package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	"github.com/kinglabs/go-king/pkg/audioio"
	"github.com/kinglabs/go-king/pkg/live"
	"github.com/kinglabs/go-king/pkg/pcm"
	"github.com/kinglabs/go-king/pkg/playback"
	"github.com/kinglabs/go-king/pkg/toolbridge"
)

// ErrClosed is returned by Start and Stop after Close.
var ErrClosed = errors.New("session: controller closed")

// Remote is the session's connection to the model service. live.Client
// is the production implementation; tests substitute their own.
type Remote interface {
	Dial(ctx context.Context) error
	SendMedia(data []byte, mimeType string) error
	SendImage(jpeg []byte) error
	SendToolResponses(responses []live.FunctionResponse) error
	Close() error

	OnAudio(fn func(data string, mimeType string))
	OnTranscript(fn func(text string))
	OnInterrupted(fn func())
	OnToolCall(fn func(calls []live.FunctionCall))
	OnError(fn func(err error))
	OnClose(fn func(err error))
}

// RemoteFactory builds the remote for one session.
type RemoteFactory func(cfg live.Config) (Remote, error)

func defaultRemoteFactory(cfg live.Config) (Remote, error) {
	return live.NewClient(cfg)
}

// Config wires a Controller. Source, Sink and Bridge are required.
type Config struct {
	Source audioio.Source
	Sink   playback.Sink
	Bridge *toolbridge.Bridge

	// PlaybackRate is the inbound audio rate. Zero means
	// playback.DefaultSampleRate.
	PlaybackRate int

	// Clock drives playback scheduling; nil means the wall clock.
	Clock clock.Clock

	// NewRemote overrides the live.Client factory.
	NewRemote RemoteFactory

	Logger *slog.Logger

	// OnStateChange fires on every transition, from the run loop. It
	// must not call back into the controller.
	OnStateChange func(State)

	// OnError fires when an open session ends on a transport error.
	OnError func(err error)

	// OnTranscript fires when the service transcribes a stretch of the
	// user's speech. Called from the run loop.
	OnTranscript func(text string)
}

// Controller runs the session state machine. All lifecycle state and
// the connection handle are owned by a single run loop; capture, the
// websocket reader and scheduler timers only post events into it.
type Controller struct {
	source    audioio.Source
	sched     *playback.Scheduler
	bridge    *toolbridge.Bridge
	newRemote RemoteFactory
	logger    *slog.Logger

	onStateChange func(State)
	onError       func(err error)
	onTranscript  func(text string)

	transcript atomic.Value // string

	state  atomic.Int32
	events chan event
	quit   chan struct{}
	once   sync.Once
	done   chan struct{}

	// Owned by the run loop.
	gen      uint64
	remote   Remote
	pumpStop chan struct{}
}

// NewController creates a controller in Idle and starts its run loop.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newRemote := cfg.NewRemote
	if newRemote == nil {
		newRemote = defaultRemoteFactory
	}

	c := &Controller{
		source:        cfg.Source,
		bridge:        cfg.Bridge,
		newRemote:     newRemote,
		logger:        logger,
		onStateChange: cfg.OnStateChange,
		onError:       cfg.OnError,
		onTranscript:  cfg.OnTranscript,
		events:        make(chan event, 64),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	c.sched = playback.NewScheduler(playback.Config{
		SampleRate: cfg.PlaybackRate,
		Sink:       cfg.Sink,
		Clock:      cfg.Clock,
		Logger:     logger,
		OnDrained:  func() { c.post(event{kind: evDrained}) },
	})

	c.transcript.Store("")

	go c.run()
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Transcript returns the most recent transcription of the user's
// speech, empty until the open session produces one. A new session
// starts with an empty transcript.
func (c *Controller) Transcript() string {
	return c.transcript.Load().(string)
}

// Start opens a session. An already-open session is stopped first.
// The returned error is nil or wraps exactly one of
// ErrPermissionDenied, ErrAuthentication, ErrConnection.
func (c *Controller) Start(ctx context.Context, cfg StartConfig) error {
	reply := make(chan error, 1)
	if !c.post(event{kind: evStart, ctx: ctx, start: cfg, reply: reply}) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.quit:
		return ErrClosed
	}
}

// Stop tears the session down: capture detached, playback cancelled,
// connection closed. Safe to call in any state.
func (c *Controller) Stop() error {
	reply := make(chan error, 1)
	if !c.post(event{kind: evStop, reply: reply}) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.quit:
		return ErrClosed
	}
}

// SendFrame forwards one JPEG frame to the open session. Frames are
// silently dropped while no session is open.
func (c *Controller) SendFrame(jpeg []byte) {
	c.post(event{kind: evFrame, frame: jpeg})
}

// Close stops any open session and shuts the run loop down.
func (c *Controller) Close() error {
	c.Stop()
	c.once.Do(func() { close(c.quit) })
	<-c.done
	return c.sched.Close()
}

func (c *Controller) post(ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.quit:
		return false
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

func (c *Controller) handle(ev event) {
	switch ev.kind {
	case evStart:
		ev.reply <- c.handleStart(ev.ctx, ev.start)

	case evStop:
		c.teardown()
		c.setState(StateIdle)
		ev.reply <- nil

	case evAudio:
		if ev.gen != c.gen {
			return
		}
		if err := c.sched.Enqueue(ev.data); err != nil {
			c.logger.Warn("dropping undecodable audio chunk", "error", err)
			return
		}
		if c.State() == StateListening && c.sched.Outstanding() > 0 {
			c.setState(StateSpeaking)
		}

	case evInterrupted:
		if ev.gen != c.gen {
			return
		}
		c.sched.CancelAll()
		if c.State() == StateSpeaking {
			c.setState(StateListening)
		}

	case evDrained:
		if c.State() == StateSpeaking && c.sched.Outstanding() == 0 {
			c.setState(StateListening)
		}

	case evTranscript:
		if ev.gen != c.gen {
			return
		}
		c.transcript.Store(ev.data)
		if c.onTranscript != nil {
			c.onTranscript(ev.data)
		}

	case evToolCall:
		if ev.gen != c.gen || c.remote == nil {
			return
		}
		responses := c.bridge.HandleBatch(ev.calls)
		if err := c.remote.SendToolResponses(responses); err != nil {
			c.logger.Warn("tool responses not delivered", "error", err)
		}

	case evFrame:
		if c.remote == nil || !c.State().Open() {
			return
		}
		if err := c.remote.SendImage(ev.frame); err != nil {
			c.logger.Debug("frame dropped", "error", err)
		}

	case evRemoteClosed:
		if ev.gen != c.gen {
			return
		}
		c.teardown()
		if ev.err != nil {
			c.setState(StateError)
			c.logger.Error("session ended on transport error", "error", ev.err)
			if c.onError != nil {
				c.onError(fatal(ErrConnection, ev.err))
			}
		} else {
			c.setState(StateIdle)
		}
	}
}

func (c *Controller) handleStart(ctx context.Context, cfg StartConfig) error {
	// One session at a time: an open one goes down first.
	c.teardown()

	c.gen++
	gen := c.gen
	c.transcript.Store("")
	c.setState(StateConnecting)

	if err := c.source.Start(ctx); err != nil {
		c.setState(StateError)
		if errors.Is(err, audioio.ErrPermission) {
			return fatal(ErrPermissionDenied, err)
		}
		return fatal(ErrConnection, err)
	}

	remote, err := c.newRemote(cfg.liveConfig())
	if err != nil {
		c.source.Stop()
		c.setState(StateError)
		return fatal(ErrAuthentication, err)
	}

	remote.OnAudio(func(data, mimeType string) {
		c.post(event{kind: evAudio, gen: gen, data: data, mimeType: mimeType})
	})
	remote.OnTranscript(func(text string) {
		c.post(event{kind: evTranscript, gen: gen, data: text})
	})
	remote.OnInterrupted(func() {
		c.post(event{kind: evInterrupted, gen: gen})
	})
	remote.OnToolCall(func(calls []live.FunctionCall) {
		c.post(event{kind: evToolCall, gen: gen, calls: calls})
	})
	remote.OnClose(func(err error) {
		c.post(event{kind: evRemoteClosed, gen: gen, err: err})
	})
	remote.OnError(func(err error) {
		c.logger.Debug("remote message error", "error", err)
	})

	if err := remote.Dial(ctx); err != nil {
		c.source.Stop()
		c.setState(StateError)
		if errors.Is(err, live.ErrUnauthorized) {
			return fatal(ErrAuthentication, err)
		}
		return fatal(ErrConnection, err)
	}

	c.remote = remote
	c.pumpStop = make(chan struct{})
	go c.pump(remote, c.source.Stream(), c.pumpStop)

	c.setState(StateListening)
	return nil
}

// teardown closes whatever is open. Run-loop only. Increments the
// generation so queued events from the old session are dropped.
func (c *Controller) teardown() {
	if c.pumpStop != nil {
		close(c.pumpStop)
		c.pumpStop = nil
	}
	c.sched.CancelAll()
	if c.remote != nil {
		c.remote.Close()
		c.remote = nil
	}
	c.source.Stop()
	c.gen++
}

// pump forwards capture windows to the remote until detached. A send
// failure drops the window; session-ending errors surface through the
// remote's close callback instead.
func (c *Controller) pump(remote Remote, stream <-chan audioio.AudioChunk, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case chunk, ok := <-stream:
			if !ok {
				return
			}
			mime := pcm.AudioMIME(chunk.SampleRate)
			if err := remote.SendMedia(chunk.Bytes(), mime); err != nil {
				c.logger.Debug("capture window dropped", "error", err)
			}
		}
	}
}

func (c *Controller) setState(next State) {
	prev := State(c.state.Swap(int32(next)))
	if prev == next {
		return
	}
	c.logger.Debug("session state", "from", prev.String(), "to", next.String())
	if c.onStateChange != nil {
		c.onStateChange(next)
	}
}
