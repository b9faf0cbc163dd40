package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"charmstudio/internal/config"
	"charmstudio/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgPath  string
	verbose  bool
	provider string

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Charms Studio - forge and enchant simulated Bitcoin charms",
	Long: `Charms Studio turns a prompt into a charm: a Markdown description of a
programmable Bitcoin asset generated by a reasoning model. The studio then walks
the charm through simulated proving, broadcasting and beaming phases.

Nothing is proven or broadcast for real: transactions are fabricated hex and
the phases are timed animations.

Run without arguments to start the interactive terminal interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if provider != "" {
			loaded.LLM.Provider = provider
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", cfgPath, err)
		}
		cfg = loaded

		opts := cfg.Logging.Options()
		if verbose {
			opts.DebugMode = true
		}
		// The interface owns the terminal; keep logs out of it.
		if isInteractive(cmd) && opts.File == "" {
			opts.File = filepath.Join(filepath.Dir(cfgPath), "logs", "studio.log")
		}
		if err := logging.Initialize(opts); err != nil {
			return err
		}
		logging.Boot("%s %s starting (%s)", cfg.Name, cfg.Version, cmd.CommandPath())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runTUI,
}

// isInteractive reports whether cmd runs the terminal interface.
func isInteractive(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "tui"
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Generation provider override (auto, gemini, offline)")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(forgeCmd)
	rootCmd.AddCommand(lifecycleCmd)
	rootCmd.AddCommand(navigatorCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.BootError("%s exited: %v", rootCmd.Name(), err)
		logging.Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
