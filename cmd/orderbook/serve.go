package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depthsim/internal/metrics"
	"depthsim/internal/service"
	"depthsim/internal/websocket"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the UI websocket server",
	Long: `Serve order books, stats and fill simulations to UI clients.

Endpoints:
  GET  /ws            per-client subscription stream
  POST /api/simulate  one-off simulation against a supplied book
  GET  /api/venues    supported venues
  GET  /metrics       Prometheus metrics
  GET  /healthz       liveness`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort != "" {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	srv := websocket.NewServer(cfg, websocket.Options{
		Logger:   logger,
		Metrics:  m,
		Gatherer: reg,
		Service:  service.Options{Metrics: m},
	})

	logger.Info().
		Str("port", cfg.Server.Port).
		Dur("push_interval", cfg.Display.PushInterval).
		Msg("Starting order book server")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	g.Go(func() error {
		reportClients(ctx, srv, cfg.Display.LogInterval)
		return nil
	})

	err := g.Wait()
	logger.Info().Msg("Server stopped. Goodbye!")
	return err
}

func reportClients(ctx context.Context, srv *websocket.Server, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Debug().Int("clients", srv.ClientCount()).Msg("Connected clients")
		case <-ctx.Done():
			return
		}
	}
}
