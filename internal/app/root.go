package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/config"
	"github.com/blackwell-systems/bookcase/internal/tui"
	"github.com/blackwell-systems/bookcase/internal/util"
)

var (
	cfg *config.Config

	flagNoColor       bool
	flagNoInteractive bool
	flagConfig        string
	flagDebugLog      string
)

var rootCmd = &cobra.Command{
	Use:   "bookcase",
	Short: "Keep track of the books you own, read and rate",
	Long: `bookcase manages a personal library kept by a bookcase server.

Books carry a title, author, ISBN, a 1-5 rating, a read flag and notes.
Look books up by ISBN on Open Library and add them in one step.

Run 'bookcase' with no arguments to open the interactive browser.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tui.ShouldUseTUI(cmd) {
			return runBrowser(cmd.Context())
		}
		return cmd.Help()
	},
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagNoInteractive, "no-interactive", false, "Disable interactive TUI mode")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/bookcase/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagDebugLog, "debug-log", "", "Write debug logs of the interactive browser to this file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			// init must be able to repair a broken config
			if cmd.Name() == "init" {
				warn("Ignoring current config: %v", err)
				cfg = config.Defaults()
				return nil
			}
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	}

	rootCmd.AddCommand(
		newListCmd(),
		newShowCmd(),
		newAddCmd(),
		newLookupCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newImportCmd(),
		newServeCmd(),
		newInitCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)
}
