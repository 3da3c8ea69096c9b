package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/form"
)

func newImportCmd() *cobra.Command {
	var (
		dryRun bool
		maxN   int
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add books from a YAML or JSON file",
		Long: `Reads a list of books (as written by 'bookcase list --output') and adds
every book whose ISBN is not in the library yet.

Ids and timestamps in the file are ignored; the server assigns new ones.

Examples:
  bookcase import library.yml
  bookcase import export.json --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			sess, err := loadSession(cmd.Context())
			if err != nil {
				return err
			}

			header("Importing %d book(s) from %s …", len(books), args[0])
			var imported, skipped, failed int
			for _, b := range books {
				if maxN > 0 && imported >= maxN {
					break
				}
				b.ID, b.CreatedAt, b.UpdatedAt = "", nil, nil

				job, err := sess.BeginImport(b)
				if err != nil {
					var ferrs form.Errors
					switch {
					case errors.Is(err, catalog.ErrDuplicateISBN):
						skipped++
						warn("%s: already in the library", b.Title)
					case errors.As(err, &ferrs):
						failed++
						warn("%s: %v", b.Title, ferrs)
					default:
						return err
					}
					continue
				}
				if dryRun {
					sess.Abandon(job)
					ok("would import %s", b.Title)
					imported++
					continue
				}

				n, err := sess.Run(cmd.Context(), job)
				if err != nil {
					failed++
					warn("%s: %s", b.Title, n.Text)
					continue
				}
				imported++
				ok("%s", b.Title)
			}

			fmt.Println()
			fmt.Printf("%d imported, %d skipped, %d failed\n", imported, skipped, failed)
			if failed > 0 {
				return fmt.Errorf("%d book(s) could not be imported", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be imported without sending anything")
	cmd.Flags().IntVar(&maxN, "max", 0, "Stop after importing this many books")

	return cmd
}
