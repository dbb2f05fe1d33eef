package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/oauth2"
)

const (
	// BidiGenerateContent websocket endpoint.
	liveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultModel is used when the config leaves Model empty.
	DefaultModel = "models/gemini-2.0-flash-exp"

	handshakeTimeout = 10 * time.Second
	keepAliveEvery   = 30 * time.Second
	readDeadline     = 120 * time.Second
	writeDeadline    = 10 * time.Second
)

var (
	// ErrUnauthorized is returned by Dial when the server rejects the
	// credential during the websocket handshake.
	ErrUnauthorized = errors.New("live: unauthorized")

	// ErrNotConnected is returned when sending on a client that has no
	// open connection.
	ErrNotConnected = errors.New("live: not connected")

	// ErrMissingCredential is returned when neither an API key nor a
	// token source is configured.
	ErrMissingCredential = errors.New("live: missing credential")
)

// Config describes one Live session. Either APIKey or TokenSource must
// be set; when both are set the API key wins.
type Config struct {
	Model             string
	SystemInstruction string
	Voice             string
	ThinkingBudget    *int
	Tools             []Tool

	APIKey      string
	TokenSource oauth2.TokenSource

	Logger *slog.Logger
}

// Client is a websocket client for the Gemini Live API. Callbacks must
// be registered before Dial; they are invoked from the read goroutine
// and must not block.
type Client struct {
	cfg    Config
	logger *slog.Logger

	ws   *websocket.Conn
	wsMu sync.Mutex

	mu        sync.RWMutex
	connected bool
	closed    bool

	onAudio       func(data string, mimeType string)
	onTranscript  func(text string)
	onInterrupted func()
	onToolCall    func(calls []FunctionCall)
	onError       func(err error)
	onClose       func(err error)
}

// NewClient creates a client for one session. Dial opens the
// connection; a client is single-use.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" && cfg.TokenSource == nil {
		return nil, ErrMissingCredential
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

// OnAudio sets the callback for inbound audio parts. Data is the raw
// base64 payload; decoding is the caller's concern so that a corrupt
// chunk can be dropped without touching the connection.
func (c *Client) OnAudio(fn func(data string, mimeType string)) { c.onAudio = fn }

// OnTranscript sets the callback for input speech transcriptions.
func (c *Client) OnTranscript(fn func(text string)) { c.onTranscript = fn }

// OnInterrupted sets the callback for barge-in notifications.
func (c *Client) OnInterrupted(fn func()) { c.onInterrupted = fn }

// OnToolCall sets the callback for function call batches.
func (c *Client) OnToolCall(fn func(calls []FunctionCall)) { c.onToolCall = fn }

// OnError sets the callback for chunk-level protocol errors.
func (c *Client) OnError(fn func(err error)) { c.onError = fn }

// OnClose sets the callback invoked once when the connection drops.
// err is nil after a local Close.
func (c *Client) OnClose(fn func(err error)) { c.onClose = fn }

// Dial opens the websocket, sends the session setup, and starts the
// read and keepalive goroutines. A 401 or 403 handshake response is
// reported as ErrUnauthorized.
func (c *Client) Dial(ctx context.Context) error {
	c.mu.Lock()
	if c.connected || c.closed {
		c.mu.Unlock()
		return fmt.Errorf("live: client already used")
	}
	c.mu.Unlock()

	url := liveURL
	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	if c.cfg.APIKey != "" {
		url = fmt.Sprintf("%s?key=%s", liveURL, c.cfg.APIKey)
	} else {
		token, err := c.cfg.TokenSource.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		token.SetAuthHeader(&http.Request{Header: header})
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	ws, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: handshake status %d", ErrUnauthorized, resp.StatusCode)
		}
		return fmt.Errorf("live: dial: %w", err)
	}

	c.mu.Lock()
	c.ws = ws
	c.connected = true
	c.mu.Unlock()

	ws.SetPingHandler(func(appData string) error {
		c.wsMu.Lock()
		defer c.wsMu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})
	ws.SetReadDeadline(time.Now().Add(readDeadline))

	if err := c.sendSetup(); err != nil {
		c.Close()
		return fmt.Errorf("live: setup: %w", err)
	}

	go c.readLoop()
	go c.keepAlive()

	c.logger.Debug("live session connected", "model", c.cfg.Model)
	return nil
}

func (c *Client) sendSetup() error {
	setup := &Setup{
		Model: c.cfg.Model,
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if c.cfg.Voice != "" {
		setup.GenerationConfig.SpeechConfig = &SpeechConfig{
			VoiceConfig: VoiceConfig{
				PrebuiltVoiceConfig: PrebuiltVoiceConfig{VoiceName: c.cfg.Voice},
			},
		}
	}
	if c.cfg.ThinkingBudget != nil {
		setup.GenerationConfig.ThinkingConfig = &ThinkingConfig{ThinkingBudget: *c.cfg.ThinkingBudget}
	}
	if c.cfg.SystemInstruction != "" {
		setup.SystemInstruction = &Content{
			Parts: []Part{{Text: c.cfg.SystemInstruction}},
		}
	}
	if len(c.cfg.Tools) > 0 {
		setup.Tools = c.cfg.Tools
	}
	return c.sendJSON(ClientMessage{Setup: setup})
}

// IsConnected reports whether the connection is open.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && !c.closed
}

// SendMedia streams one audio chunk to the model.
func (c *Client) SendMedia(data []byte, mimeType string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.sendJSON(ClientMessage{
		RealtimeInput: &RealtimeInput{
			MediaChunks: []MediaChunk{{
				Data:     base64.StdEncoding.EncodeToString(data),
				MIMEType: mimeType,
			}},
		},
	})
}

// SendImage streams one JPEG frame to the model.
func (c *Client) SendImage(jpeg []byte) error {
	return c.SendMedia(jpeg, "image/jpeg")
}

// SendToolResponses returns a batch of tool results to the model.
func (c *Client) SendToolResponses(responses []FunctionResponse) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if len(responses) == 0 {
		return nil
	}
	return c.sendJSON(ClientMessage{
		ToolResponse: &ToolResponse{FunctionResponses: responses},
	})
}

// Close tears down the connection. Safe to call more than once; only
// the first call closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		return ws.Close()
	}
	return nil
}

func (c *Client) readLoop() {
	for {
		c.mu.RLock()
		closed := c.closed
		ws := c.ws
		c.mu.RUnlock()
		if closed {
			return
		}

		ws.SetReadDeadline(time.Now().Add(readDeadline))
		_, raw, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			wasClosed := c.closed
			c.closed = true
			c.connected = false
			c.mu.Unlock()

			if wasClosed {
				err = nil
			}
			if c.onClose != nil {
				c.onClose(err)
			}
			return
		}

		var msg ServerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Debug("live: unparseable message", "error", err)
			if c.onError != nil {
				c.onError(fmt.Errorf("live: parse message: %w", err))
			}
			continue
		}
		c.dispatch(&msg)
	}
}

func (c *Client) dispatch(msg *ServerMessage) {
	switch {
	case msg.SetupComplete != nil:
		c.logger.Debug("live session ready")

	case msg.ServerContent != nil:
		c.dispatchContent(msg.ServerContent)

	case msg.ToolCall != nil:
		if len(msg.ToolCall.FunctionCalls) > 0 && c.onToolCall != nil {
			c.onToolCall(msg.ToolCall.FunctionCalls)
		}
	}
}

func (c *Client) dispatchContent(content *ServerContent) {
	if content.Interrupted {
		if c.onInterrupted != nil {
			c.onInterrupted()
		}
		return
	}

	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			inline := part.InlineData
			if inline == nil || inline.Data == "" {
				continue
			}
			if c.onAudio != nil {
				c.onAudio(inline.Data, inline.MIMEType)
			}
		}
	}

	if content.InputTranscription != nil && content.InputTranscription.Text != "" {
		if c.onTranscript != nil {
			c.onTranscript(content.InputTranscription.Text)
		}
	}

	if content.TurnComplete {
		c.logger.Debug("model turn complete")
	}
}

// keepAlive pings the server until the connection closes so idle
// listening stretches do not trip intermediary timeouts.
func (c *Client) keepAlive() {
	ticker := time.NewTicker(keepAliveEvery)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.RLock()
		closed := c.closed
		ws := c.ws
		c.mu.RUnlock()
		if closed {
			return
		}

		c.wsMu.Lock()
		err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline))
		c.wsMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (c *Client) sendJSON(v any) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		return ErrNotConnected
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.ws.WriteJSON(v)
}
