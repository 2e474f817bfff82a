package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tidewise/buildbot-ci/internal/logging"
	"github.com/tidewise/buildbot-ci/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard, logs and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, :8010)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	agg, src, err := a.aggregator()
	if err != nil {
		return err
	}
	defer src.Close()

	resolver, err := a.resolver()
	if err != nil {
		return err
	}
	srv, err := server.New(server.Options{
		Dashboard: agg,
		Artifacts: resolver,
		Logger:    logging.New("server"),
	})
	if err != nil {
		return err
	}
	return srv.Serve(ctx, a.cfg.Listen)
}
