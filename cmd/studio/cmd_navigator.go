package main

import (
	"fmt"

	"charmstudio/internal/navigator"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var navigatorRaw bool

// navigatorCmd prints the protocol reference pages
var navigatorCmd = &cobra.Command{
	Use:     "navigator [topic]",
	Aliases: []string{"nav"},
	Short:   "Read the protocol reference",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, t := range navigator.Topics() {
				fmt.Fprintf(out, "  %-10s %s\n", t.Slug, t.Title)
			}
			return nil
		}

		topic, ok := navigator.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown topic %q (run 'studio navigator' to list topics)", args[0])
		}
		if navigatorRaw {
			fmt.Fprintln(out, topic.Markdown)
			return nil
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(90))
		if err != nil {
			return err
		}
		rendered, err := r.Render(topic.Markdown)
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	navigatorCmd.Flags().BoolVar(&navigatorRaw, "raw", false, "Print Markdown without terminal rendering")
}
