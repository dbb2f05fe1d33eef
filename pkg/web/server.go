// Package web serves the dashboard surface: session and device state
// as JSON, assistant start/stop controls, and a websocket push feed.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/kinglabs/go-king/pkg/devicestate"
	"github.com/kinglabs/go-king/pkg/hub"
	"github.com/kinglabs/go-king/pkg/session"
	"github.com/kinglabs/go-king/pkg/vision"
)

// Status is the dashboard's view of the engine.
type Status struct {
	SessionState  string            `json:"session_state"`
	VisionEnabled bool              `json:"vision_enabled"`
	Transcript    string            `json:"transcript"`
	Devices       devicestate.State `json:"devices"`
}

// SceneDescriber answers a one-shot question about a frame.
// vision.Describer is the production implementation.
type SceneDescriber interface {
	Describe(ctx context.Context, jpeg []byte, prompt string) (string, error)
}

// Config wires a Server. Controller and Devices are required; Sampler
// is optional.
type Config struct {
	Port        string
	Controller  *session.Controller
	Devices     *devicestate.Store
	Sampler     *vision.Sampler
	Describer   SceneDescriber
	StartConfig func() session.StartConfig
	Logger      *slog.Logger
}

// Server is the fiber app plus the broadcast hub behind /ws/status.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	stateHub *hub.Hub

	stopOnce sync.Once
	stopSub  func()
}

// NewServer builds the app and its routes.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		stateHub: hub.New("status", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "King Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/devices", s.handleDevices)
	api.Post("/assistant/start", s.handleAssistantStart)
	api.Post("/assistant/stop", s.handleAssistantStop)
	api.Post("/vision/enable", s.handleVisionEnable)
	api.Post("/vision/disable", s.handleVisionDisable)
	api.Post("/vision/describe", s.handleVisionDescribe)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hub, subscribes to device changes, and listens.
// Blocks until Shutdown.
func (s *Server) Start() error {
	go s.stateHub.Run()

	changes, cancel := s.cfg.Devices.Subscribe()
	s.stopSub = cancel
	go func() {
		for range changes {
			s.PushStatus()
		}
	}()

	s.logger.Info("dashboard listening", "port", s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

// StartAsync runs Start in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server failed", "error", err)
		}
	}()
}

// PushStatus broadcasts the current status to websocket clients. Wire
// it to the controller's state-change callback.
func (s *Server) PushStatus() {
	if err := s.stateHub.BroadcastJSON(s.status()); err != nil {
		s.logger.Warn("status broadcast failed", "error", err)
	}
}

func (s *Server) status() Status {
	st := Status{
		SessionState: s.cfg.Controller.State().String(),
		Transcript:   s.cfg.Controller.Transcript(),
		Devices:      s.cfg.Devices.Snapshot(),
	}
	if s.cfg.Sampler != nil {
		st.VisionEnabled = s.cfg.Sampler.Enabled()
	}
	return st
}

// Shutdown stops the listener and the device subscription.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() {
		if s.stopSub != nil {
			s.stopSub()
		}
	})
	return s.app.Shutdown()
}
