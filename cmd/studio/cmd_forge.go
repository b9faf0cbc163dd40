package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"charmstudio/internal/charm"
	"charmstudio/internal/events"
	"charmstudio/internal/studio"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	forgeType     string
	forgeOverride string
	forgeRaw      bool
)

// forgeCmd generates a single draft charm and prints it
var forgeCmd = &cobra.Command{
	Use:   "forge <prompt...>",
	Short: "Forge a draft charm from a prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		t, err := charm.ParseType(forgeType)
		if err != nil {
			return err
		}
		svc, err := newStudio(ctx, cfg, events.Discard)
		if err != nil {
			return err
		}

		var opts []studio.ForgeOption
		if forgeOverride != "" {
			opts = append(opts, studio.WithOverride(forgeOverride))
		}
		c, err := svc.Forge(ctx, joinArgs(args), t, opts...)
		if err != nil {
			printLogs(cmd.ErrOrStderr(), svc.Generation().Lines())
			return err
		}
		if c == nil {
			return fmt.Errorf("prompt is empty")
		}
		return printCharm(cmd.OutOrStdout(), *c, forgeRaw)
	},
}

func init() {
	forgeCmd.Flags().StringVarP(&forgeType, "type", "t", string(charm.TypeLogic), "Charm type (LOGIC, STABLECOIN, xBTC, FUNGIBLE)")
	forgeCmd.Flags().StringVar(&forgeOverride, "override", "", "Forge from this prompt instead of the positional one")
	forgeCmd.Flags().BoolVar(&forgeRaw, "raw", false, "Print Markdown without terminal rendering")
}

// printCharm writes the charm header and its rendered content.
func printCharm(w io.Writer, c charm.Charm, raw bool) error {
	fmt.Fprintf(w, "%s  [%s]  %s  %s\n", c.ID, c.Type.Label(), c.Status, c.CurrentChain)
	fmt.Fprintf(w, "%s\n\n", c.Title)

	body := c.Content
	if !raw {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err == nil {
			if out, err := r.Render(c.Content); err == nil {
				body = out
			}
		}
	}
	fmt.Fprintln(w, body)

	if len(c.Sources) > 0 {
		fmt.Fprintln(w, "Sources:")
		for _, s := range c.Sources {
			fmt.Fprintf(w, "  - %s (%s)\n", s.Title, s.URI)
		}
	}
	if c.TxID != "" {
		fmt.Fprintf(w, "\nTxID:    %s\nApp ID:  %s\nOwner:   %s\n", c.TxID, c.AppID, c.OwnerAddress)
	}
	return nil
}

func printLogs(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

