// Package config loads application configuration from environment
// variables, with struct-tag validation.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config is the application configuration. GEMINI_API_KEY is the only
// required setting; everything else has a default.
type Config struct {
	// APIKey authenticates against the Live API. Env: GEMINI_API_KEY.
	APIKey string `validate:"required"`

	// Model is the Live model path. Env: KING_MODEL.
	Model string

	// Voice is the prebuilt voice name. Env: KING_VOICE.
	Voice string

	// WebPort serves the dashboard; empty disables it. Env: KING_WEB_PORT.
	WebPort string `validate:"omitempty,numeric"`

	// AudioBackend selects the capture backend (auto, exec, mock).
	// Env: KING_AUDIO_BACKEND.
	AudioBackend string `validate:"omitempty,oneof=auto exec mock"`

	// AudioDevice names the capture device. Env: KING_AUDIO_DEVICE.
	AudioDevice string

	// CameraID selects the capture camera. Env: KING_CAMERA_ID.
	CameraID int `validate:"gte=0"`

	// VisionEnabled starts frame sampling at boot. Env: KING_VISION.
	VisionEnabled bool

	// LogLevel is debug, info, warn or error. Env: KING_LOG_LEVEL.
	LogLevel string `validate:"omitempty,oneof=debug info warn error"`
}

var validate = validator.New()

// FromEnv reads the environment and validates the result.
func FromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:        os.Getenv("GEMINI_API_KEY"),
		Model:         os.Getenv("KING_MODEL"),
		Voice:         os.Getenv("KING_VOICE"),
		WebPort:       getenvDefault("KING_WEB_PORT", "8080"),
		AudioBackend:  getenvDefault("KING_AUDIO_BACKEND", "auto"),
		AudioDevice:   os.Getenv("KING_AUDIO_DEVICE"),
		VisionEnabled: os.Getenv("KING_VISION") == "true",
		LogLevel:      getenvDefault("KING_LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("KING_CAMERA_ID"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config: KING_CAMERA_ID: %w", err)
		}
		cfg.CameraID = id
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
