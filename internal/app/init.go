package app

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		apiURL string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file",
		Long: `Write the current settings (defaults, environment and flags) to the
config file so they can be edited by hand.

Examples:
  bookcase init
  bookcase init --api-url http://books.example.com:3000
  bookcase --config ./bookcase.yml init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(flagConfig)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			out := *cfg
			if apiURL != "" {
				out.API.BaseURL = apiURL
			}
			if err := out.Validate(); err != nil {
				return err
			}
			if err := config.Save(&out, path); err != nil {
				return err
			}

			ok("Wrote %s", path)
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Printf("  1. Start a server:      %s\n", color.CyanString("bookcase serve"))
			fmt.Printf("  2. Open your library:   %s\n", color.CyanString("bookcase"))
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Book store base URL")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
