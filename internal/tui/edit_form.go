package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/blackwell-systems/bookcase/internal/catalog"
	"github.com/blackwell-systems/bookcase/internal/form"
)

type formKind int

const (
	formCreate formKind = iota
	formEdit
)

// formField is one row of the book form. Toggle rows have no text input.
type formField struct {
	name   string
	label  string
	input  textinput.Model
	toggle bool
}

// bookForm is the create dialog and the edit form. It is a sub-model of the
// browser: it never quits the program, it only flags submitted or canceled.
type bookForm struct {
	kind       formKind
	heading    string
	subheading string
	fields     []formField
	read       bool
	focused    int
	errs       form.Errors
	confirming bool
	submitted  bool
	canceled   bool
	activeCmd  string
	keys       keyMap
}

const fieldWidth = 42

func newTextField(name, label, placeholder, value string, limit int) formField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.SetValue(value)
	in.CharLimit = limit
	in.Width = fieldWidth
	in.Prompt = "│ "
	return formField{name: name, label: label, input: in}
}

func newCreateForm(keys keyMap) *bookForm {
	return newBookForm(formCreate, "Add Book", "", form.Input{}, keys)
}

func newEditForm(b catalog.Book, keys keyMap) *bookForm {
	return newBookForm(formEdit, "Edit Book", b.ID, form.InputFromBook(b), keys)
}

func newBookForm(kind formKind, heading, subheading string, in form.Input, keys keyMap) *bookForm {
	f := &bookForm{
		kind:       kind,
		heading:    heading,
		subheading: subheading,
		keys:       keys,
	}
	if in.ReadStatus != nil {
		f.read = *in.ReadStatus
	}
	f.fields = []formField{
		newTextField(form.FieldTitle, "Title", "Book title", in.Title, 200),
		newTextField(form.FieldAuthor, "Author", "Author name", in.Author, 100),
		newTextField(form.FieldISBN, "ISBN", "9780441013593", in.ISBN, 17),
		newTextField(form.FieldUserRating, "Rating", "1-5", in.UserRating, 3),
		{name: form.FieldReadStatus, label: "Read", toggle: true},
		newTextField(form.FieldNotes, "Notes", "What did you think?", in.Notes, 500),
	}
	f.fields[3].input.Width = 8
	f.fields[0].input.Focus()
	return f
}

// Input returns the form contents as typed.
func (f *bookForm) Input() form.Input {
	read := f.read
	in := form.Input{ReadStatus: &read}
	for _, fld := range f.fields {
		v := fld.input.Value()
		switch fld.name {
		case form.FieldTitle:
			in.Title = v
		case form.FieldAuthor:
			in.Author = v
		case form.FieldISBN:
			in.ISBN = v
		case form.FieldUserRating:
			in.UserRating = v
		case form.FieldNotes:
			in.Notes = v
		}
	}
	return in
}

// SetErrors shows errs inline and moves focus to the first failing field.
// A rejected submission returns the form to editing.
func (f *bookForm) SetErrors(errs form.Errors) tea.Cmd {
	f.errs = errs
	f.submitted = false
	f.confirming = false
	for i, fld := range f.fields {
		if _, bad := errs[fld.name]; bad {
			return f.focus(i)
		}
	}
	return nil
}

func (f *bookForm) focus(i int) tea.Cmd {
	f.focused = i
	var cmd tea.Cmd
	for j := range f.fields {
		if j == i && !f.fields[j].toggle {
			cmd = f.fields[j].input.Focus()
		} else {
			f.fields[j].input.Blur()
		}
	}
	return cmd
}

func (f *bookForm) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ClearActiveCmdMsg:
		f.activeCmd = ""
		return nil

	case tea.KeyMsg:
		if f.confirming {
			switch {
			case key.Matches(msg, f.keys.Confirm):
				f.submitted = true
			case key.Matches(msg, f.keys.Cancel):
				f.canceled = true
			}
			return nil
		}

		switch {
		case msg.String() == "esc":
			f.canceled = true
			return nil

		case msg.String() == "enter":
			f.confirming = true
			return nil

		case key.Matches(msg, f.keys.Next), key.Matches(msg, f.keys.Prev):
			next := f.focused + 1
			if key.Matches(msg, f.keys.Prev) {
				next = f.focused - 1
			}
			if next < 0 {
				next = len(f.fields) - 1
			} else if next >= len(f.fields) {
				next = 0
			}
			f.activeCmd = "tab"
			return tea.Batch(f.focus(next), HighlightCmd())

		case f.fields[f.focused].toggle && key.Matches(msg, f.keys.Toggle):
			f.read = !f.read
			return nil
		}
	}

	if f.fields[f.focused].toggle {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focused].input, cmd = f.fields[f.focused].input.Update(msg)
	return cmd
}

func (f *bookForm) View() string {
	formLabel := lipgloss.NewStyle().
		Foreground(ColorGray).
		Width(10).
		Align(lipgloss.Right).
		PaddingRight(1)
	formLabelActive := lipgloss.NewStyle().
		Foreground(ColorYellow).
		Bold(true).
		Width(10).
		Align(lipgloss.Right).
		PaddingRight(1)
	errIndent := strings.Repeat(" ", 10)

	const w = 54
	sep := styleSep.Render(strings.Repeat("─", w))

	var b strings.Builder

	b.WriteString(StyleHeader.Render(f.heading))
	b.WriteString("\n")
	if f.subheading != "" {
		b.WriteString(StyleHelp.Render(f.subheading))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(sep)
	b.WriteString("\n\n")

	for i, fld := range f.fields {
		if i == f.focused && !f.confirming {
			b.WriteString(formLabelActive.Render("› " + fld.label))
		} else {
			b.WriteString(formLabel.Render(fld.label))
		}
		if fld.toggle {
			mark := "[ ] not read"
			if f.read {
				mark = "[x] read"
			}
			b.WriteString("│ " + mark)
		} else {
			b.WriteString(fld.input.View())
		}
		b.WriteString("\n")
		if msg, bad := f.errs[fld.name]; bad {
			b.WriteString(errIndent + StyleError.Render(msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(sep)
	b.WriteString("\n")

	if f.confirming {
		prompt := "  Apply changes? "
		if f.kind == formCreate {
			prompt = "  Add this book? "
		}
		b.WriteString(StyleHighlight.Render(prompt))
		b.WriteString(StyleHelp.Render("Y/n"))
	} else {
		b.WriteString(RenderFooterBar([]ShortcutEntry{
			{Key: "tab", Label: "Tab/↑↓ navigate"},
			{Key: "", Label: "space toggle read"},
			{Key: "", Label: "enter submit"},
			{Key: "", Label: "esc cancel"},
		}, f.activeCmd))
	}
	b.WriteString("\n")

	return lipgloss.NewStyle().Padding(0, 2, 0, 1).Render(b.String())
}
