// Command king runs the voice/vision assistant engine: microphone
// capture to the Gemini Live API, scheduled audio playback, device
// tool calls, optional camera sampling, and the dashboard server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kinglabs/go-king/internal/config"
	"github.com/kinglabs/go-king/internal/log"
	"github.com/kinglabs/go-king/pkg/audioio"
	"github.com/kinglabs/go-king/pkg/devicestate"
	"github.com/kinglabs/go-king/pkg/playback"
	"github.com/kinglabs/go-king/pkg/session"
	"github.com/kinglabs/go-king/pkg/toolbridge"
	"github.com/kinglabs/go-king/pkg/vision"
	"github.com/kinglabs/go-king/pkg/web"
)

func main() {
	noWeb := flag.Bool("no-web", false, "disable the dashboard server")
	noStart := flag.Bool("no-start", false, "do not open a session at boot; use the dashboard to start")
	envFile := flag.String("env", ".env", "env file to load before reading configuration")
	flag.Parse()

	godotenv.Load(*envFile)

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "king: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	if err := run(cfg, *noWeb, *noStart); err != nil {
		logger.Error("king exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, noWeb, noStart bool) error {
	logger := log.L()

	srcCfg := audioio.DefaultConfig()
	srcCfg.Backend = audioio.Backend(cfg.AudioBackend)
	srcCfg.Device = cfg.AudioDevice
	source, err := audioio.NewSource(srcCfg, log.Component("audioio"))
	if err != nil {
		return fmt.Errorf("audio source: %w", err)
	}
	defer source.Close()

	devices := devicestate.NewStore()
	bridge := toolbridge.NewBridge(devices, log.Component("toolbridge"))
	sink := playback.NewExecSink(playback.DefaultSampleRate, log.Component("playback"))

	var server *web.Server

	ctrl := session.NewController(session.Config{
		Source: source,
		Sink:   sink,
		Bridge: bridge,
		Logger: log.Component("session"),
		OnStateChange: func(s session.State) {
			logger.Info("session state changed", "state", s.String())
			if server != nil {
				server.PushStatus()
			}
		},
		OnError: func(err error) {
			logger.Error("session lost", "error", err)
		},
		OnTranscript: func(text string) {
			logger.Debug("heard", "text", text)
			if server != nil {
				server.PushStatus()
			}
		},
	})
	defer ctrl.Close()

	sampler := vision.NewSampler(vision.Config{
		OpenGrabber: func() (vision.FrameGrabber, error) {
			return vision.OpenCamera(cfg.CameraID, vision.DefaultJPEGQuality)
		},
		Forward: ctrl.SendFrame,
		Logger:  log.Component("vision"),
	})
	defer sampler.Disable()

	if cfg.VisionEnabled {
		if err := sampler.Enable(); err != nil {
			logger.Warn("vision sampling unavailable", "error", err)
		}
	}

	startConfig := func() session.StartConfig {
		return session.StartConfig{
			Model:  cfg.Model,
			Voice:  cfg.Voice,
			Tools:  toolbridge.Declarations(),
			APIKey: cfg.APIKey,
		}
	}

	if !noWeb && cfg.WebPort != "" {
		describer, err := vision.NewDescriber(vision.DescriberConfig{
			APIKey: cfg.APIKey,
			Logger: log.Component("vision"),
		})
		if err != nil {
			return fmt.Errorf("scene describer: %w", err)
		}
		server = web.NewServer(web.Config{
			Port:        cfg.WebPort,
			Controller:  ctrl,
			Devices:     devices,
			Sampler:     sampler,
			Describer:   describer,
			StartConfig: startConfig,
			Logger:      log.Component("web"),
		})
		server.StartAsync()
		defer server.Shutdown()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !noStart {
		if err := ctrl.Start(ctx, startConfig()); err != nil {
			return fmt.Errorf("session start: %w", err)
		}
		logger.Info("assistant session open", "voice", cfg.Voice)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return ctrl.Stop()
}
