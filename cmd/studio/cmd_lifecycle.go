package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"charmstudio/internal/charm"
	"charmstudio/internal/events"
	"charmstudio/internal/phase"

	"github.com/spf13/cobra"
)

var (
	lifecycleType   string
	lifecycleTarget string
	lifecycleQuiet  bool
)

// lifecycleCmd walks one charm through every phase
var lifecycleCmd = &cobra.Command{
	Use:   "lifecycle <prompt...>",
	Short: "Forge a charm and run it through prove, broadcast and beam",
	Long: `Forges a charm from the prompt, then proves it, broadcasts it and beams it
to the target chain. Each phase's log is printed as it finishes.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLifecycle,
}

func init() {
	lifecycleCmd.Flags().StringVarP(&lifecycleType, "type", "t", string(charm.TypeLogic), "Charm type")
	lifecycleCmd.Flags().StringVar(&lifecycleTarget, "target", string(charm.ChainCardano), "Beam destination chain")
	lifecycleCmd.Flags().BoolVarP(&lifecycleQuiet, "quiet", "q", false, "Only print the final charm")
}

func runLifecycle(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	t, err := charm.ParseType(lifecycleType)
	if err != nil {
		return err
	}
	target, err := charm.ParseChain(lifecycleTarget)
	if err != nil {
		return err
	}

	svc, err := newStudio(ctx, cfg, events.Discard)
	if err != nil {
		return err
	}

	c, err := svc.Forge(ctx, joinArgs(args), t)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("prompt is empty")
	}
	id := c.ID
	section := func(kind phase.Kind, target string) {
		if lifecycleQuiet {
			return
		}
		st, ok := svc.Operation(phase.Key{Kind: kind, Target: target})
		if !ok {
			return
		}
		fmt.Fprintf(out, "== %s (%d%%)\n", kind, st.Progress)
		printLogs(out, st.Lines())
		fmt.Fprintln(out)
	}
	if !lifecycleQuiet {
		fmt.Fprintf(out, "== forge\n")
		printLogs(out, svc.Generation().Lines())
		fmt.Fprintln(out)
	}

	steps := []struct {
		kind phase.Kind
		run  func() error
	}{
		{phase.KindProve, func() error { _, err := svc.Prove(ctx, id); return err }},
		{phase.KindBroadcast, func() error { _, err := svc.Broadcast(ctx, id); return err }},
		{phase.KindBeam, func() error { _, err := svc.Beam(ctx, id, target); return err }},
	}
	for _, s := range steps {
		err := s.run()
		section(s.kind, id)
		if err != nil {
			return fmt.Errorf("%s failed: %w", s.kind, err)
		}
	}

	final, err := svc.Charm(id)
	if err != nil {
		return err
	}
	return printCharm(out, final, true)
}

