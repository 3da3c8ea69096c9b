package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/form"
)

func newEditCmd() *cobra.Command {
	var (
		title, author, isbn, notes string
		rating                     int
		read                       bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the fields of a book",
		Long: `Edit a book. Only the flags you pass are changed.

Edited books must keep a rating, a read status and notes.

Examples:
  bookcase edit 3f2a... --rating 4
  bookcase edit 3f2a... --read --notes "Better the second time"
  bookcase edit 3f2a... --read=false`,
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
			if err := sel.EnterEditMode(); err != nil {
				return err
			}

			in := form.InputFromBook(book)
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = title
			}
			if flags.Changed("author") {
				in.Author = author
			}
			if flags.Changed("isbn") {
				in.ISBN = isbn
			}
			if flags.Changed("rating") {
				in.UserRating = strconv.Itoa(rating)
			}
			if flags.Changed("read") {
				in.ReadStatus = &read
			}
			if flags.Changed("notes") {
				in.Notes = notes
			}

			job, err := sess.BeginUpdate(in)
			if err != nil {
				return refused(err)
			}
			n, err := sess.Run(cmd.Context(), job)
			if err := report(n, err); err != nil {
				return err
			}
			if b, found := sess.Book(id); found {
				printBook(b)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&author, "author", "", "New author")
	cmd.Flags().StringVar(&isbn, "isbn", "", "New ISBN")
	cmd.Flags().IntVar(&rating, "rating", 0, "New rating, 1-5")
	cmd.Flags().BoolVar(&read, "read", false, "Mark as read (--read=false for unread)")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")

	return cmd
}
