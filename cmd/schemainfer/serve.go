package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/usestring/schemainfer/pkg/mcpsrv"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		// The server sets up logging itself.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := mcpsrv.NewServer(
				mcpsrv.WithConfig(c.cfg),
				mcpsrv.WithLogLevel(c.logLevel),
			)
			if err != nil {
				return err
			}
			defer server.Close()

			slog.Info("starting schemainfer MCP server on stdio")
			if err := server.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			slog.Info("server stopped")
			return nil
		},
	}
}
