package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/recipebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when it is missing and reports the local storage it migrated.
//
// Storage itself is opened and migrated before every command; setup makes that visible and
// optionally points the config at a server with --base-url.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); err == nil {
		r.logger.Info("config file found", "path", path)
	} else {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			return err
		}
		r.logger.Info("config file created", "path", path)
	}

	if baseURL := cmd.String("base-url"); baseURL != "" {
		r.config.API.BaseURL = baseURL
		if err := r.config.Validate(); err != nil {
			return err
		}
		if err := shared.SaveConfig(path, r.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		r.wire()
		r.logger.Info("server address saved", "base_url", baseURL)
	}

	r.writePlainHeader("recipebox setup")
	r.writePlain("✓ Config:  %s\n", path)
	if r.db != nil {
		r.writePlain("✓ Storage: %s (migrated)\n", r.config.Storage.Path)
	} else {
		r.writePlain("✓ Storage: in memory\n")
	}
	r.writePlain("✓ Server:  %s\n", r.client.BaseURL())
	r.writePlainln("Next steps:")
	r.writePlain("1. Run 'recipebox health' to check the server\n")
	r.writePlain("2. Run 'recipebox auth login' to sign in\n")
	return nil
}
