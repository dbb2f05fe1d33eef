package config

import "testing"

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")

		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv failed: %v", err)
		}
		if cfg.WebPort != "8080" {
			t.Errorf("web port = %q, want 8080", cfg.WebPort)
		}
		if cfg.AudioBackend != "auto" {
			t.Errorf("audio backend = %q, want auto", cfg.AudioBackend)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("log level = %q, want info", cfg.LogLevel)
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")

		if _, err := FromEnv(); err == nil {
			t.Error("expected error without GEMINI_API_KEY")
		}
	})

	t.Run("invalid backend", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		t.Setenv("KING_AUDIO_BACKEND", "pulseaudio")

		if _, err := FromEnv(); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("camera id", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "test-key")
		t.Setenv("KING_CAMERA_ID", "2")

		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv failed: %v", err)
		}
		if cfg.CameraID != 2 {
			t.Errorf("camera id = %d, want 2", cfg.CameraID)
		}

		t.Setenv("KING_CAMERA_ID", "front")
		if _, err := FromEnv(); err == nil {
			t.Error("expected error for non-numeric camera id")
		}
	})
}
