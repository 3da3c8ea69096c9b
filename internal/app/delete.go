package app

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/util"
)

func newDeleteCmd() *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a book from your library",
		Long: `Remove a book from your library.

This cannot be undone. Without --yes you are asked to confirm, and a
non-interactive run refuses to delete.

Examples:
  bookcase delete 3f2a...
  bookcase delete 3f2a... --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			sess, err := loadSession(cmd.Context())
			if err != nil {
				return err
			}

			sel := sess.Selection()
			sel.OpenDetails(id)
			book, found := sess.ActiveBook()
			if !found {
				return fmt.Errorf("book %q not found", id)
			}

			fmt.Println()
			fmt.Println(color.YellowString("⚠ Warning: You are about to delete a book"))
			fmt.Println()
			printBook(book)
			fmt.Println()

			if !skipConfirm {
				if !util.IsInputTTY() {
					return fmt.Errorf("refusing to delete without confirmation (use --yes)")
				}
				if !confirm(os.Stdin, "Are you sure you want to delete this book?") {
					sel.CloseDetails()
					return fmt.Errorf("aborted")
				}
			}

			if err := sel.OpenDeleteConfirmation(); err != nil {
				return err
			}
			job, err := sess.BeginDelete()
			if err != nil {
				return refused(err)
			}
			return report(sess.Run(cmd.Context(), job))
		},
	}

	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}
