package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/resonance/internal/runtime"
	srv "github.com/mohammad-safakhou/resonance/internal/server"
)

func serveCMD(a *app) *cobra.Command {
	var serveAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tel, err := runtime.SetupTelemetry(ctx, a.cfg.Telemetry, version, a.logger)
			if err != nil {
				return err
			}
			defer shutdown(a.logger, tel.Shutdown)

			factory, err := runtime.NewFactory(a.cfg, a.logger, tel.Registry)
			if err != nil {
				return err
			}
			opts := []srv.Option{
				srv.WithLogger(a.logger.Named("http")),
				srv.WithMetricsHandler(tel.Handler()),
				srv.WithJWTSecret(runtime.LoadJWTSecret(a.cfg)),
			}
			progress, rdb, err := runtime.InitProgress(ctx, a.cfg.Storage.Redis, a.logger)
			if err != nil {
				return err
			}
			if progress != nil {
				defer rdb.Close()
				opts = append(opts, srv.WithProgress(progress))
			}
			if len(runtime.LoadJWTSecret(a.cfg)) == 0 {
				a.logger.Warn("server.jwt_secret is empty, run endpoints are unauthenticated")
			}

			newRun := func(o runtime.RunOptions) (srv.Pipeline, error) {
				run, err := factory.NewRun(o)
				if err != nil {
					return nil, err
				}
				return run.Orchestrator, nil
			}

			addr := serveAddr
			if addr == "" {
				addr = a.cfg.Server.Address
			}
			return srv.New(a.cfg, newRun, opts...).Run(ctx, addr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.address)")
	return serve
}
