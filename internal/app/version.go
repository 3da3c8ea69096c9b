package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion records the build version, set by main from ldflags.
func SetVersion(v string) {
	if v != "" {
		appVersion = v
	}
	rootCmd.Version = appVersion
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bookcase version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookcase %s\n", appVersion)
		},
	}
}
