package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"vibebeat/internal/audio"
	"vibebeat/internal/config"
	"vibebeat/internal/logging"
	"vibebeat/internal/session"
	"vibebeat/internal/transport"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// app bundles what every command needs: config, logger and a running session.
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	session *session.Session

	logCloser io.Closer
	cancel    context.CancelFunc
	loopDone  chan struct{}
}

// openApp loads .env and the config file, builds the logger and starts a
// session loop. withAudio asks for a media backend; failure to open one is
// logged and the session continues without playback.
func openApp(withAudio bool) (*app, error) {
	_ = godotenv.Load()

	path := os.Getenv(config.PathEnv)
	if path == "" {
		path = config.DefaultPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	var backend transport.Backend
	if withAudio && cfg.Player.AudioEnabled {
		player, err := audio.New(logger)
		if err != nil {
			logger.WithError(err).Warn("Audio output unavailable, continuing without playback")
		} else {
			backend = player
		}
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		session:   session.New(cfg, backend, logger),
		logCloser: logCloser,
		loopDone:  make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go func() {
		defer close(a.loopDone)
		if err := a.session.Run(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("Session loop stopped")
		}
	}()

	return a, nil
}

func (a *app) Close() {
	if err := a.session.Close(); err != nil {
		a.logger.WithError(err).Warn("Error closing session")
	}
	a.cancel()
	<-a.loopDone
	a.logCloser.Close()
}
