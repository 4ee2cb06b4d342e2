package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/picky/internal/tui/styles"
)

// FilterBar is an inline text input used to narrow a list
type FilterBar struct {
	active bool
	input  textinput.Model
}

// NewFilterBar creates a new filter bar
func NewFilterBar() FilterBar {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 64
	ti.Width = 30
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return FilterBar{input: ti}
}

// Focus starts editing, keeping the current query
func (f *FilterBar) Focus() tea.Cmd {
	f.active = true
	return f.input.Focus()
}

// Blur stops editing, keeping the current query
func (f *FilterBar) Blur() {
	f.active = false
	f.input.Blur()
}

// Reset clears the query and stops editing
func (f *FilterBar) Reset() {
	f.Blur()
	f.input.SetValue("")
}

// IsActive returns whether keystrokes go to the filter
func (f FilterBar) IsActive() bool {
	return f.active
}

// Value returns the current query
func (f FilterBar) Value() string {
	return f.input.Value()
}

// Update handles input events, returns (bar, cmd, changed).
// Enter keeps the query; esc clears it.
func (f FilterBar) Update(msg tea.Msg) (FilterBar, tea.Cmd, bool) {
	if !f.active {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			f.Blur()
			return f, nil, false
		case "esc":
			changed := f.input.Value() != ""
			f.Reset()
			return f, nil, changed
		}
	}

	before := f.input.Value()
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd, f.input.Value() != before
}

// View renders the filter line, or nothing when idle with no query
func (f FilterBar) View() string {
	if !f.active && f.input.Value() == "" {
		return ""
	}
	prompt := styles.FilterPromptStyle.Render("/ ")
	if !f.active {
		return prompt + styles.FilterStyle.Render(f.input.Value())
	}
	return prompt + f.input.View()
}
