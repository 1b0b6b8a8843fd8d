package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"audiotoc/config"
)

const defaultConfigPath = "./config/config.yaml"

// commandContext carries the lazily loaded configuration shared by all
// commands.
type commandContext struct {
	configPath *string
	cfg        *config.Config
}

func newCommandContext(configPath *string) *commandContext {
	return &commandContext{configPath: configPath}
}

// ensureConfig loads the configuration once and memoizes it. Without an
// explicit --config flag it reads the default path when present and falls
// back to built-in defaults otherwise.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	path := *c.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		c.cfg = cfg
	} else {
		c.cfg = config.Default()
	}

	setupLogging(c.cfg)
	return c.cfg, nil
}

// setupLogging routes slog through a text handler at the configured level
func setupLogging(cfg *config.Config) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)
}

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "audiotoc",
		Short: "Audiobook manifest timeline tools",
		Long: `audiotoc derives an audiobook's playback timeline from its manifest and
splits the audio into one file per chapter. It reads Readium audiobook
manifests from local files or URLs and can walk OPDS catalogs to find them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newSummarizeCommand(ctx))
	rootCmd.AddCommand(newTimelineCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newFetchCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd
}
