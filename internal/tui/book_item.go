package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/bookcase/internal/catalog"
)

// BookItem wraps a book for the list component.
type BookItem struct {
	Book catalog.Book
}

// FilterValue implements list.Item. Filtering is done by the catalog, so
// this only matters to the list's own bookkeeping.
func (b BookItem) FilterValue() string {
	return b.Book.Title + " " + b.Book.Author + " " + b.Book.ISBN
}

func toItems(books []catalog.Book) []list.Item {
	items := make([]list.Item, len(books))
	for i, b := range books {
		items[i] = BookItem{Book: b}
	}
	return items
}

// Column width constraints
const (
	minTitleWidth  = 12
	maxTitleWidth  = 48
	minAuthorWidth = 8
	maxAuthorWidth = 26
	starsWidth     = catalog.MaxRating
	readWidth      = 6
	columnGap      = 1
)

// computeColumnWidths gives the title and author columns what is left after
// the fixed rating and read columns.
func computeColumnWidths(totalWidth int) (titleW, authorW int) {
	prefix := 2
	gaps := columnGap * 3
	usable := totalWidth - prefix - gaps - starsWidth - readWidth
	if usable < minTitleWidth+minAuthorWidth {
		return minTitleWidth, minAuthorWidth
	}
	titleW = usable * 60 / 100
	if titleW > maxTitleWidth {
		titleW = maxTitleWidth
	}
	authorW = usable - titleW
	if authorW > maxAuthorWidth {
		authorW = maxAuthorWidth
	}
	if titleW < minTitleWidth {
		titleW = minTitleWidth
	}
	if authorW < minAuthorWidth {
		authorW = minAuthorWidth
	}
	return
}

// padOrTruncate pads s to exactly width cells, truncating with "…" if
// necessary. Widths are terminal cells, so wide runes align correctly.
func padOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) > width {
		s = xansi.Truncate(s, width, "…")
	}
	if n := xansi.StringWidth(s); n < width {
		s += strings.Repeat(" ", width-n)
	}
	return s
}

// bookDelegate renders one book per line.
type bookDelegate struct{}

func (d bookDelegate) Height() int                               { return 1 }
func (d bookDelegate) Spacing() int                              { return 0 }
func (d bookDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d bookDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	bookItem, ok := item.(BookItem)
	if !ok {
		return
	}
	book := bookItem.Book

	listWidth := m.Width()
	if listWidth <= 0 {
		listWidth = 80
	}
	titleW, authorW := computeColumnWidths(listWidth)
	gap := strings.Repeat(" ", columnGap)

	isCursor := index == m.Index()
	prefix := "  "
	if isCursor {
		prefix = StyleHighlight.Render("›") + " "
	}

	titleCol := padOrTruncate(book.Title, titleW)
	authorCol := padOrTruncate(book.Author, authorW)
	starsCol := catalog.Stars(book.UserRating)
	readCol := padOrTruncate("", readWidth)
	if book.ReadStatus {
		readCol = padOrTruncate("✓ read", readWidth)
	}

	var titleStyled, authorStyled string
	if isCursor {
		titleStyled = StyleHighlight.Render(titleCol)
		authorStyled = lipgloss.NewStyle().Foreground(ColorYellow).Faint(true).Render(authorCol)
	} else {
		titleStyled = StyleNormal.Render(titleCol)
		authorStyled = StyleHelp.Render(authorCol)
	}

	line := prefix + titleStyled + gap + authorStyled + gap + StyleStars.Render(starsCol) + gap + StyleRead.Render(readCol)
	_, _ = fmt.Fprint(w, line)
}
