package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"charmstudio/cmd/studio/ui"
	"charmstudio/internal/events"
	"charmstudio/internal/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// tuiCmd launches the interactive interface
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal interface",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := events.NewBus(256)
	sub := bus.Subscribe()
	defer closeBus(bus, sub)

	svc, err := newStudio(ctx, cfg, bus)
	if err != nil {
		return err
	}

	model := ui.New(ui.Options{Studio: svc, Events: sub, Context: ctx})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	var g errgroup.Group
	g.Go(func() error {
		return watchConfig(ctx, svc, func(path string) {
			program.Send(ui.ConfigReloadedMsg{Path: path})
		})
	})

	logging.UI("interface started with generator %s", svc.Generator().Name())
	_, runErr := program.Run()
	cancel()
	if err := g.Wait(); err != nil {
		logging.ConfigWarn("config watcher: %v", err)
	}
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("interface failed: %w", runErr)
	}
	return nil
}
