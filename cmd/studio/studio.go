package main

import (
	"context"
	"fmt"
	"os"

	"charmstudio/internal/config"
	"charmstudio/internal/events"
	"charmstudio/internal/generation"
	"charmstudio/internal/logging"
	"charmstudio/internal/studio"
)

// newStudio wires a service from the loaded config.
func newStudio(ctx context.Context, c *config.Config, pub events.Publisher) (*studio.Service, error) {
	gen, err := generation.New(ctx, c.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return studio.New(studio.Options{
		Generator: gen,
		Publisher: pub,
		Phases:    c.Phases,
		Wallet:    c.Wallet,
	})
}

// watchConfig applies phase timing and wallet changes from the config file
// until ctx is done. A missing config file is not watched.
func watchConfig(ctx context.Context, s *studio.Service, notify func(path string)) error {
	if _, err := os.Stat(cfgPath); err != nil {
		logging.Config("no config file at %s, hot reload disabled", cfgPath)
		return nil
	}
	return config.Watch(ctx, cfgPath, func(next *config.Config) {
		s.SetPhases(next.Phases)
		s.SetWallet(next.Wallet)
		if notify != nil {
			notify(cfgPath)
		}
	})
}

// closeBus detaches subs, reports delivery counts and closes bus.
func closeBus(bus *events.Bus, subs ...<-chan events.Event) {
	for _, sub := range subs {
		bus.Unsubscribe(sub)
	}
	stats := bus.Stats()
	if stats.Dropped > 0 {
		logging.EventsWarn("%d of %d events dropped by slow subscribers", stats.Dropped, stats.TotalPublished)
	} else {
		logging.Events("%d events published", stats.TotalPublished)
	}
	bus.Close()
}
