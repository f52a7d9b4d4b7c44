package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/gleaner/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			ex, logger, err := ctx.extractor(cmd)
			if err != nil {
				return err
			}
			defer ex.Close()

			addr := cfg.Server.Bind
			if bind != "" {
				addr = bind
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(ex, server.Options{
				MaxUploadBytes: cfg.Limits.MaxFileBytes,
				ReadTimeout:    time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout:   time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
				Logger:         logger,
			})
			return srv.ListenAndServe(runCtx, addr)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from config server.bind)")
	return cmd
}
