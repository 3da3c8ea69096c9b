package app

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/util"
)

func newListCmd() *cobra.Command {
	var (
		format string
		read   bool
		unread bool
		output string
	)

	cmd := &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls"},
		Short:   "List books, optionally filtered by a search query",
		Long: `List the books in your library.

The optional query matches title, author or ISBN (case-insensitive).

Examples:
  bookcase list
  bookcase list herbert --unread
  bookcase list --format json
  bookcase list --format yaml --output library.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if read && unread {
				return fmt.Errorf("--read and --unread are mutually exclusive")
			}
			if output != "" && format == "" {
				format = "yaml"
			}
			if format == "" {
				format = "table"
			}

			f := catalog.Filter{}
			if len(args) > 0 {
				f.Search = args[0]
			}
			if read || unread {
				f.Read = &read
			}

			sess, err := loadSession(cmd.Context())
			if err != nil {
				return err
			}
			books := f.Apply(sess.Books())

			var data []byte
			switch format {
			case "json":
				data, err = catalog.MarshalJSON(books)
			case "yaml":
				data, err = catalog.Marshal(books)
			case "table":
				if output != "" {
					return fmt.Errorf("--output needs --format json or yaml")
				}
				printBookTable(cmd.OutOrStdout(), books)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
			}
			if err != nil {
				return err
			}

			if output != "" {
				if err := util.WriteFileAtomic(output, data); err != nil {
					return fmt.Errorf("writing %s: %w", output, err)
				}
				ok("Wrote %d books to %s", len(books), output)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&read, "read", false, "Only books marked as read")
	cmd.Flags().BoolVar(&unread, "unread", false, "Only books not read yet")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the list to a file instead of stdout")

	return cmd
}

func printBookTable(w io.Writer, books []catalog.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return
	}
	for _, b := range books {
		readMark := "  "
		if b.ReadStatus {
			readMark = color.GreenString("✓ ")
		}
		fmt.Fprintf(w, "  %s  %s%s  %s  %s\n",
			color.YellowString(catalog.Stars(b.UserRating)),
			readMark,
			color.WhiteString(b.Title),
			"by "+b.Author,
			color.CyanString(b.ISBN),
		)
		fmt.Fprintf(w, "     %s\n", color.HiBlackString(b.ID))
	}
	fmt.Fprintf(w, "\n%d book(s)\n", len(books))
}
