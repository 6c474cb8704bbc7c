package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// checkItem is one row of a checklist dialog.
type checkItem struct {
	group   string
	label   string
	value   string
	checked bool
}

// checklistModal lets the user tick a set of values.
type checklistModal struct {
	title     string
	hint      string
	items     []checkItem
	cursor    int
	onConfirm func(items []checkItem) tea.Msg
	onCancel  tea.Msg
}

func (c *checklistModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(km, keys.Cancel):
		return c, emit(c.onCancel), true
	case key.Matches(km, keys.Confirm):
		items := make([]checkItem, len(c.items))
		copy(items, c.items)
		return c, emit(c.onConfirm(items)), true
	case key.Matches(km, keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(km, keys.Down):
		if c.cursor < len(c.items)-1 {
			c.cursor++
		}
	case key.Matches(km, keys.Toggle):
		if len(c.items) > 0 {
			c.items[c.cursor].checked = !c.items[c.cursor].checked
		}
	case key.Matches(km, keys.ToggleAll):
		all := true
		for _, it := range c.items {
			all = all && it.checked
		}
		for i := range c.items {
			c.items[i].checked = !all
		}
	}
	return c, nil, false
}

func (c *checklistModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(c.title))
	b.WriteString("\n")
	if c.hint != "" {
		b.WriteString(styles.MutedText.Render(c.hint))
		b.WriteString("\n")
	}

	group := ""
	for i, it := range c.items {
		if it.group != group {
			group = it.group
			b.WriteString("\n")
			b.WriteString(styles.AccentText.Bold(true).Render(group))
			b.WriteString("\n")
		}
		box := "[ ] "
		if it.checked {
			box = "[x] "
		}
		line := box + it.label
		if i == c.cursor {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("space toggle · A all · enter ok · esc cancel"))
	return placeModal(theme, width, height, b.String())
}

// promptModal asks for a single line of text, usually a path.
type promptModal struct {
	title     string
	input     textinput.Model
	onConfirm func(value string) tea.Msg
	onCancel  tea.Msg
}

func newPromptModal(title, placeholder, value string, onConfirm func(string) tea.Msg, onCancel tea.Msg) *promptModal {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 1024
	ti.Width = 60
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return &promptModal{title: title, input: ti, onConfirm: onConfirm, onCancel: onCancel}
}

func (p *promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Cancel):
			return p, emit(p.onCancel), true
		case key.Matches(km, keys.Confirm):
			value := strings.TrimSpace(p.input.Value())
			if value == "" {
				return p, nil, false
			}
			return p, emit(p.onConfirm(value)), true
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, false
}

func (p *promptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(p.title))
	b.WriteString("\n\n")
	b.WriteString(p.input.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter ok · esc cancel"))
	return placeModal(theme, width, height, b.String())
}

func placeModal(theme Theme, width, height int, content string) string {
	box := theme.Styles().Modal.Render(content)
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
