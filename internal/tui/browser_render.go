package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/library"
)

// chromeHeight is the number of lines around the main content: header,
// search line, toast, footer and their separators.
const chromeHeight = 6

const deletePrompt = "Are you sure you want to delete this book?"

func (m Model) detailsWidth() int {
	w := ((m.width - 2) * 4) / 10
	if w < 30 {
		w = 30
	}
	return w
}

// renderField writes one "Label: value" row truncated to width.
func renderField(s *strings.Builder, label, value string, width int) {
	w := width - len(label) - 2
	if w < 10 {
		w = 10
	}
	s.WriteString(StyleHighlight.Render(label + ": "))
	s.WriteString(xansi.Truncate(value, w, "…"))
	s.WriteString("\n\n")
}

func (m Model) renderDetailsPane(book catalog.Book) string {
	width := m.detailsWidth()
	inner := width - 2

	var s strings.Builder
	s.WriteString(StyleHeader.Render("Book Details"))
	s.WriteString("\n\n")

	renderField(&s, "Title", book.Title, inner)
	renderField(&s, "Author", book.Author, inner)
	s.WriteString(StyleHighlight.Render("ISBN: "))
	s.WriteString(StyleTag.Render(book.ISBN))
	s.WriteString("\n\n")

	s.WriteString(StyleHighlight.Render("Rating: "))
	s.WriteString(StyleStars.Render(catalog.Stars(book.UserRating)))
	fmt.Fprintf(&s, " %d/%d", catalog.FilledStars(book.UserRating), catalog.MaxRating)
	s.WriteString("\n\n")

	s.WriteString(StyleHighlight.Render("Status: "))
	if book.ReadStatus {
		s.WriteString(StyleRead.Render(book.ReadLabel()))
	} else {
		s.WriteString(StyleHelp.Render(book.ReadLabel()))
	}
	s.WriteString("\n\n")

	s.WriteString(StyleHighlight.Render("Notes:"))
	s.WriteString("\n")
	notes := lipgloss.NewStyle().Width(inner).Render(book.NotesOrPlaceholder())
	if strings.TrimSpace(book.Notes) == "" {
		notes = StyleHelp.Render(notes)
	}
	s.WriteString(notes)
	s.WriteString("\n")

	if book.CreatedAt != nil {
		s.WriteString("\n")
		s.WriteString(StyleHelp.Render("added " + book.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if book.UpdatedAt != nil && (book.CreatedAt == nil || !book.UpdatedAt.Equal(*book.CreatedAt)) {
		s.WriteString("\n")
		s.WriteString(StyleHelp.Render("updated " + book.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}

	if m.session.Selection().State().DeleteDialogOpen {
		s.WriteString("\n\n")
		s.WriteString(StyleError.Bold(true).Render(deletePrompt))
		s.WriteString("\n")
		if m.session.InFlight(library.ActionDelete) {
			s.WriteString(m.spinner.View() + StyleHelp.Render(" deleting…"))
		} else {
			s.WriteString(StyleHelp.Render("y delete • n cancel"))
		}
	}

	return lipgloss.NewStyle().Width(width).Padding(0, 1).Render(s.String())
}

func (m Model) renderLookup() string {
	var s strings.Builder
	s.WriteString(StyleHeader.Render("Find by ISBN"))
	s.WriteString("\n\n")
	s.WriteString(m.isbn.View())
	s.WriteString("\n")
	if m.isbnErr != "" {
		s.WriteString(StyleError.Render(m.isbnErr))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	switch rec, ok := m.session.Draft(); {
	case m.session.InFlight(library.ActionLookup):
		s.WriteString(m.spinner.View() + StyleHelp.Render(" looking up…"))
	case ok:
		s.WriteString(styleSep.Render(strings.Repeat("─", 54)))
		s.WriteString("\n\n")
		renderField(&s, "Title", rec.Book.Title, 80)
		if rec.Subtitle != "" {
			renderField(&s, "Subtitle", rec.Subtitle, 80)
		}
		renderField(&s, "Author", rec.Book.Author, 80)
		if len(rec.Publishers) > 0 {
			renderField(&s, "Publisher", strings.Join(rec.Publishers, ", "), 80)
		}
		if rec.PublishDate != "" {
			renderField(&s, "Published", rec.PublishDate, 80)
		}
		if rec.Pages > 0 {
			renderField(&s, "Pages", strconv.Itoa(rec.Pages), 80)
		}
		if rec.CoverURL != "" {
			renderField(&s, "Cover", rec.CoverURL, 80)
		}
		s.WriteString(StyleStars.Render(catalog.Stars(rec.Book.UserRating)))
		s.WriteString("  ")
		s.WriteString(StyleHelp.Render(rec.Book.NotesOrPlaceholder()))
		s.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(0, 2, 0, 1).Render(s.String())
}

func (m Model) renderHeader() string {
	total := len(m.session.Books())
	shown := len(m.session.Visible())
	count := fmt.Sprintf("%d books", total)
	if m.session.Query() != "" {
		count = fmt.Sprintf("%d of %d books", shown, total)
	}
	line := StyleHeader.Render("Bookcase") + "  " + StyleHelp.Render(count)
	if m.session.Busy() {
		line += "  " + m.spinner.View()
	}
	return line
}

func (m Model) renderSearch() string {
	if m.searching {
		return m.search.View()
	}
	if q := m.session.Query(); q != "" {
		return StyleHelp.Render("/ ") + StyleTag.Render(q) + StyleHelp.Render("  (esc to clear)")
	}
	return StyleHelp.Render("/ to search")
}

func (m Model) renderToast() string {
	if m.toast.Empty() {
		return ""
	}
	switch m.toast.Level {
	case library.Success:
		return StyleRead.Render("✓ " + m.toast.Text)
	case library.Warning:
		return StyleHighlight.Render("! " + m.toast.Text)
	case library.Error:
		return StyleError.Render("✗ " + m.toast.Text)
	default:
		return StyleTag.Render(m.toast.Text)
	}
}

// renderFooter lists the shortcuts of the current screen. The shortcut
// matching activeCmd is rendered with StyleHighlight.
func (m Model) renderFooter() string {
	st := m.session.Selection().State()
	var shortcuts []ShortcutEntry
	switch {
	case m.lookupOpen:
		if _, ok := m.session.Draft(); ok && !m.isbn.Focused() {
			shortcuts = []ShortcutEntry{
				{Key: "", Label: "enter add to list"},
				{Key: "", Label: "i new isbn"},
				{Key: "", Label: "esc close"},
			}
		} else {
			shortcuts = []ShortcutEntry{
				{Key: "", Label: "enter look up"},
				{Key: "", Label: "esc close"},
			}
		}
	case st.HasActive():
		shortcuts = []ShortcutEntry{
			{Key: "", Label: "e edit"},
			{Key: "", Label: "d delete"},
			{Key: "", Label: "esc back"},
		}
	case m.searching:
		shortcuts = []ShortcutEntry{
			{Key: "", Label: "↑/↓ navigate"},
			{Key: "", Label: "enter done"},
			{Key: "", Label: "esc clear"},
		}
	default:
		shortcuts = []ShortcutEntry{
			{Key: "", Label: "↑/↓ navigate"},
			{Key: "search", Label: "/ search"},
			{Key: "", Label: "enter details"},
			{Key: "", Label: "a add"},
			{Key: "", Label: "i isbn"},
			{Key: "refresh", Label: "r refresh"},
			{Key: "", Label: "q quit"},
		}
	}
	return RenderFooterBar(shortcuts, m.activeCmd)
}

func (m Model) renderEmpty() string {
	if m.session.InFlight(library.ActionLoad) {
		return m.spinner.View() + StyleHelp.Render(" loading books…")
	}
	if m.session.Query() != "" {
		return StyleHelp.Render("No books match your search.")
	}
	return StyleHelp.Render("Your library is empty. Press a to add a book or i to look one up.")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var main string
	switch {
	case m.form != nil:
		main = m.form.View()
	case m.lookupOpen:
		main = m.renderLookup()
	default:
		book, detailsOpen := m.activeBook()
		l := m.list
		if detailsOpen && m.width > 0 {
			h, _ := StyleBorder.GetFrameSize()
			l.SetWidth(m.width - h - m.detailsWidth() - 1)
		}
		listView := m.renderEmpty()
		if len(l.Items()) > 0 {
			listView = l.View()
		}
		if detailsOpen {
			listStyle := lipgloss.NewStyle().
				BorderRight(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorGray)
			main = lipgloss.JoinHorizontal(lipgloss.Top, listStyle.Render(listView), m.renderDetailsPane(book))
		} else {
			main = listView
		}
	}

	parts := []string{
		m.renderHeader(),
		m.renderSearch(),
		"",
		main,
		"",
		m.renderToast(),
		m.renderFooter(),
	}
	return StyleBorder.Render(strings.Join(parts, "\n"))
}

// activeBook is ActiveBook without the side effect, for View.
func (m Model) activeBook() (catalog.Book, bool) {
	st := m.session.Selection().State()
	if !st.HasActive() {
		return catalog.Book{}, false
	}
	return m.session.Book(st.ActiveID)
}
