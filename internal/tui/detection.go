package tui

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/util"
)

// ShouldUseTUI returns true if the command should use interactive TUI mode.
// TUI mode is enabled when:
// - stdout is a TTY (not piped or redirected)
// - --no-interactive flag is not set
// - No output format flag is set (indicates scripting intent)
func ShouldUseTUI(cmd *cobra.Command) bool {
	if !util.IsTTY() {
		return false
	}

	noInteractive, _ := cmd.Flags().GetBool("no-interactive")
	if noInteractive {
		return false
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		return false
	}

	return true
}
