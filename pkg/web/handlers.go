package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/kinglabs/go-king/pkg/hub"
	"github.com/kinglabs/go-king/pkg/session"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

func (s *Server) handleDevices(c *fiber.Ctx) error {
	return c.JSON(s.cfg.Devices.Snapshot())
}

func (s *Server) handleAssistantStart(c *fiber.Ctx) error {
	if s.cfg.StartConfig == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "assistant start not configured",
		})
	}

	err := s.cfg.Controller.Start(context.Background(), s.cfg.StartConfig())
	if err != nil {
		status := fiber.StatusBadGateway
		switch {
		case errors.Is(err, session.ErrAuthentication):
			status = fiber.StatusUnauthorized
		case errors.Is(err, session.ErrPermissionDenied):
			status = fiber.StatusForbidden
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	s.PushStatus()
	return c.JSON(s.status())
}

func (s *Server) handleAssistantStop(c *fiber.Ctx) error {
	if err := s.cfg.Controller.Stop(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	s.PushStatus()
	return c.JSON(s.status())
}

func (s *Server) handleVisionEnable(c *fiber.Ctx) error {
	if s.cfg.Sampler == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "vision not configured",
		})
	}
	if err := s.cfg.Sampler.Enable(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	s.PushStatus()
	return c.JSON(s.status())
}

func (s *Server) handleVisionDisable(c *fiber.Ctx) error {
	if s.cfg.Sampler == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "vision not configured",
		})
	}
	s.cfg.Sampler.Disable()
	s.PushStatus()
	return c.JSON(s.status())
}

// handleVisionDescribe grabs the latest sampled frame and asks the
// describer what it shows. Sampling must be on so a frame exists.
func (s *Server) handleVisionDescribe(c *fiber.Ctx) error {
	if s.cfg.Sampler == nil || s.cfg.Describer == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "scene description not configured",
		})
	}
	frame, ok := s.cfg.Sampler.LastFrame()
	if !ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "no frame available; enable vision first",
		})
	}

	var body struct {
		Prompt string `json:"prompt"`
	}
	c.BodyParser(&body) // empty body means the default prompt

	text, err := s.cfg.Describer.Describe(c.Context(), frame, body.Prompt)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"description": text})
}

// handleStatusWS streams status updates. The current status is sent
// immediately, then every change is pushed through the hub.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	c.WriteJSON(s.status())

	client := hub.NewClient(s.stateHub, c)
	client.Run()
}
