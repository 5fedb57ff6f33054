package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ahrav/go-champion/infrastructure/middleware"
	"github.com/ahrav/go-champion/internal/application"
	"github.com/ahrav/go-champion/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve assessments, algorithm registration and metrics over HTTP",
		Long: `Serve the HTTP API:

  POST /assess/algorithm/{id}   assess a subject with a registered algorithm
  POST /algorithms              register an algorithm by calculation URI
  GET  /algorithms              list registered algorithms
  GET  /algorithms/{id}         DCAT description of an algorithm (JSON-LD)
  GET  /metrics                 Prometheus metrics
  GET  /healthz                 liveness`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tp, err := middleware.NewTracerProvider(ctx, cfg.Tracing)
			if err != nil {
				return fmt.Errorf("tracing: %w", err)
			}
			defer func() {
				if err := tp.Shutdown(cmd.Context()); err != nil {
					logger.Warn("tracer shutdown failed", "error", err)
				}
			}()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := middleware.NewPrometheusMetrics(reg)

			orch, err := application.NewOrchestrator(cfg, application.NewDependencies(cfg, application.WiringOptions{
				Logger:  logger,
				Metrics: metrics,
			}))
			if err != nil {
				return err
			}

			srv := server.New(orch, server.Options{Gatherer: reg, Logger: logger, Debug: opts.debug})
			return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default "+application.DefaultAddr+")")
	_ = opts.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
