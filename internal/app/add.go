package app

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/form"
)

func newAddCmd() *cobra.Command {
	var (
		in     form.Input
		rating int
		read   bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book by hand",
		Long: `Add a book to the library.

Title and author need at least three characters. The ISBN may be written
with dashes or spaces; it is stored without them.

Examples:
  bookcase add --title Dune --author "Frank Herbert" --isbn 978-0441013593 --rating 5
  bookcase add --title Emma --author "Jane Austen" --isbn 014143958X --rating 4 --read --notes "Witty"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("rating") {
				in.UserRating = strconv.Itoa(rating)
			}
			in.ReadStatus = &read

			sess, err := loadSession(cmd.Context())
			if err != nil {
				return err
			}
			sess.Selection().OpenCreateDialog()
			job, err := sess.BeginCreate(in)
			if err != nil {
				return refused(err)
			}
			return report(sess.Run(cmd.Context(), job))
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Book title")
	cmd.Flags().StringVar(&in.Author, "author", "", "Author name")
	cmd.Flags().StringVar(&in.ISBN, "isbn", "", "ISBN-10 or ISBN-13")
	cmd.Flags().IntVar(&rating, "rating", 0, "Your rating, 1-5")
	cmd.Flags().BoolVar(&read, "read", false, "Mark the book as read")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Notes")

	return cmd
}
