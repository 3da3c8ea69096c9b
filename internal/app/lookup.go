package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/library"
	"github.com/blackwell-systems/bookcase/internal/lookup"
)

func newLookupCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "lookup <isbn>",
		Short: "Look a book up on Open Library by ISBN",
		Long: `Fetch title and author for an ISBN from Open Library.

With --save the result is added to the library with a default rating of 4,
marked as read, and a default note.

Examples:
  bookcase lookup 9780441013593
  bookcase lookup 978-0-441-01359-3 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				sess *library.Session
				err  error
			)
			if save {
				// the duplicate check needs the current list
				sess, err = loadSession(ctx)
			} else {
				sess, err = newSession()
			}
			if err != nil {
				return err
			}

			job, err := sess.BeginLookup(args[0])
			if err != nil {
				return refused(err)
			}
			n, err := sess.Run(ctx, job)
			if err != nil {
				if errors.Is(err, lookup.ErrNotFound) {
					return errors.New(n.Text)
				}
				return report(n, err)
			}

			rec, _ := sess.Draft()
			header("Found on Open Library")
			printBook(rec.Book)
			if rec.Subtitle != "" {
				printField("subtitle", rec.Subtitle)
			}
			if len(rec.Publishers) > 0 {
				printField("publishers", strings.Join(rec.Publishers, ", "))
			}
			if rec.PublishDate != "" {
				printField("published", rec.PublishDate)
			}
			if rec.Pages > 0 {
				printField("pages", fmt.Sprintf("%d", rec.Pages))
			}
			if rec.CoverURL != "" {
				printField("cover", rec.CoverURL)
			}

			if !save {
				return nil
			}
			fmt.Println()
			job, err = sess.BeginAddDraft()
			if err != nil {
				return refused(err)
			}
			return report(sess.Run(ctx, job))
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Add the result to the library")
	return cmd
}
