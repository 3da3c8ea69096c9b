package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/catalog"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newStoreClient()
			if err != nil {
				return err
			}
			b, err := client.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("book %q: %w", args[0], err)
			}
			printBook(b)
			return nil
		},
	}
}

func printBook(b catalog.Book) {
	if b.ID != "" {
		header("Book: %s", b.ID)
	}
	printField("title", b.Title)
	printField("author", b.Author)
	printField("isbn", b.ISBN)
	printField("rating", fmt.Sprintf("%s %d/%d", color.YellowString(catalog.Stars(b.UserRating)), catalog.FilledStars(b.UserRating), catalog.MaxRating))
	status := b.ReadLabel()
	if b.ReadStatus {
		status = color.GreenString(status)
	}
	printField("status", status)
	printField("notes", b.NotesOrPlaceholder())
	if b.CreatedAt != nil {
		printField("added", b.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if b.UpdatedAt != nil {
		printField("updated", b.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}
