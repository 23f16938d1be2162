package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"traktflix/internal/app"
	"traktflix/internal/httpapi"
	"traktflix/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			a, err := app.Open(cfg, logger)
			if err != nil {
				logger.Error("open app", logging.Error(err))
				return err
			}
			defer a.Close()

			srv, err := httpapi.New(cfg, a, logger)
			if err != nil {
				return err
			}
			return srv.Run(signalCtx)
		},
	}
}
