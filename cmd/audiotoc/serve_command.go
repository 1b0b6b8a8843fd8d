package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"audiotoc/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// The server logs JSON lines for log collectors.
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
			slog.SetDefault(logger)

			if port == "" {
				port = cfg.Server.Port
			}

			srv, err := server.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			slog.Info("Starting audiotoc API server", "port", port)
			return srv.Start(port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Server port (default from config)")

	return cmd
}
