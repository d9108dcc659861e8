package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nowplaying/internal/shared"
)

// Setup creates config.toml when missing and initializes the track cache.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if !cmd.IsSet("config") && r.configPath != "" {
		configPath = r.configPath
	}

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.writePlain("✓ Created %s\n", configPath)
		}
		config = shared.DefaultConfig()
	}

	r.logger.Info("initializing track cache", "path", config.Database.Path)

	db, err := shared.OpenCache(config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize track cache: %w", err)
	}
	defer db.Close()

	r.writePlain("✓ Track cache ready at %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set auth.google client_id and client_secret in %s\n", configPath)
	r.writePlain("2. Run 'nowplaying auth login'\n")
	r.writePlain("3. Run 'nowplaying play'\n")
	return nil
}
