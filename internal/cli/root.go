// Package cli implements the ogbanana commands using Cobra.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/2002Bishwajeet/ogbanana/internal/app"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. Each call returns fresh flag state.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "ogbanana",
		Short: "OG:BANANA - OGP metadata and AI banner images for any URL",
		Long: `OG:BANANA scrapes a web page, asks a language model for SEO and social
metadata, and generates a matching 1200x630 banner image.

Usage:
  ogbanana serve
  ogbanana generate --url https://example.com --user <id>`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./ogbanana.yaml if present)")

	root.AddCommand(
		newServeCommand(&configPath),
		newGenerateCommand(),
		newResetCreditsCommand(&configPath),
		newSeedUserCommand(&configPath),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and builds a logger at the configured level.
func loadConfig(path string, logOut io.Writer) (*app.Config, logging.Logger, error) {
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLogger(logOut, "ogbanana", logging.ParseLevel(cfg.Log.Level))
	return cfg, logger, nil
}

// withApplication runs fn against a fully wired Application and shuts it down
// afterwards. Background jobs are not started.
func withApplication(ctx context.Context, cmd *cobra.Command, configPath string, fn func(*app.Application) error) error {
	cfg, logger, err := loadConfig(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Shutdown(context.Background()); err != nil {
			logger.Warn("shutdown failed", logging.Err(err))
		}
	}()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
