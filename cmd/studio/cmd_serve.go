package main

import (
	"os/signal"
	"syscall"

	"charmstudio/internal/api"
	"charmstudio/internal/events"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the studio over an HTTP JSON API",
	Long: `Serves the studio command surface over HTTP.

  GET  /healthz
  GET  /api/studio                  full snapshot
  GET  /api/charms                  list charms
  GET  /api/charms/:id              one charm
  POST /api/charms                  {"prompt","type","override"} forge
  POST /api/charms/:id/prove        start proving (202)
  POST /api/charms/:id/broadcast    start broadcasting (202)
  POST /api/charms/:id/beam         {"target"} start beaming (202)
  GET  /api/generation              generation state
  GET  /api/navigator[/:slug]       protocol reference pages`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	bus := events.NewBus(64)
	defer closeBus(bus)

	svc, err := newStudio(ctx, cfg, bus)
	if err != nil {
		return err
	}
	srv := api.NewServer(ctx, svc, addr, cfg.GetShutdownTimeout())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return watchConfig(gctx, svc, nil) })
	return g.Wait()
}
