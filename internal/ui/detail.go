package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logview/internal/logfile"
)

const detailHeight = 7

// detailFields are shown, when present, above the message of the cursor row.
var detailFields = []string{logfile.FieldLevel, logfile.FieldAsctime, "module", "funcName", logfile.FieldProcess}

// updateDetail loads the cursor row into the detail viewport.
func (m *Model) updateDetail() {
	m.detail.Width = max(m.width-4, 10)
	m.detail.Height = detailHeight - 2
	m.detail.SetContent(m.renderDetailContent())
	m.detail.GotoTop()
}

func (m Model) renderDetailContent() string {
	if len(m.rows) == 0 || m.cursor >= len(m.rows) {
		return ""
	}
	styles := m.theme.Styles()
	row := m.displayRow(m.cursor)

	index := make(map[string]int, len(m.headers))
	for i, h := range m.headers {
		index[h] = i
	}

	var parts []string
	for _, name := range detailFields {
		i, ok := index[name]
		if !ok {
			continue
		}
		cell := row[i]
		value := styles.Text.Render(cell.Text)
		if cell.Style.Color != "" {
			value = lipgloss.NewStyle().
				Foreground(m.theme.LevelColor(cell.Style.Color)).
				Bold(cell.Style.Bold).
				Render(cell.Text)
		}
		parts = append(parts, styles.MutedText.Render(name+": ")+value)
	}

	var b strings.Builder
	b.WriteString(strings.Join(parts, "   "))
	if i, ok := index[logfile.FieldMessage]; ok {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(m.detail.Width).Render(styles.Text.Render(row[i].Text)))
	}
	return b.String()
}

func (m Model) renderDetail() string {
	return m.theme.Styles().Panel.
		Width(max(m.width-2, 10)).
		Height(detailHeight - 2).
		Render(m.detail.View())
}
