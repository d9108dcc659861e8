package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nowplaying/internal/server"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	configPath := os.Getenv("NOWPLAYING_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	shared.SetLogLevel(logger, config.Log.Level)

	apiOpts := []services.APIOption{services.WithRateLimit(config.API.RequestsPerSecond)}
	if oauthConfig, err := server.GoogleConfig(config.Auth.Google); err == nil {
		if ts, err := server.TokenSource(ctx, oauthConfig, config.Auth.Google.TokenPath); err == nil {
			apiOpts = append(apiOpts, services.WithTokenSource(ctx, ts))
		} else {
			logger.Debug("continuing without sign-in", "error", err)
		}
	}
	apiService := services.NewAPIService(config.API.BaseURL, nil, apiOpts...)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Backend:    apiService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "nowplaying",
		Usage:    "Browse and play your music library from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
