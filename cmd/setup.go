package main

import (
	"context"
	"fmt"
	"os"

	"github.com/faintpulse/earmark/internal/shared"
	"github.com/faintpulse/earmark/internal/tokens"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the template, initializes the token
// cache, and opens the catalog once so its directory exists.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
	} else {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config template written to %s\n", configPath)

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load created config: %w", err)
		}
		config.ApplyEnv()
		r.config = config
	}

	r.logger.Info("initializing token cache", "path", r.config.Tokens.Path)
	cache, err := tokens.Open(r.config.Tokens.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize token cache: %w", err)
	}
	cache.Close()

	r.logger.Info("initializing catalog", "path", r.config.Catalog.Path)
	store, err := r.openCatalog()
	if err != nil {
		return err
	}
	store.Close()

	r.writePlain("✓ Setup complete\n")
	r.writePlain("Next steps:\n")
	r.writePlain("1. Fill in credentials.spotify in %s (or set SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n", configPath)
	r.writePlain("2. Run 'earmark auth login'\n")
	r.writePlain("3. Run 'earmark populate', then 'earmark serve' or 'earmark label'\n")
	return nil
}
