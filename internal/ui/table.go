package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logview/internal/logfile"
)

const (
	maxColumnWidth = 28
	minFlexWidth   = 12
	columnGap      = 2
)

// columnWidths sizes each column to its widest value, capped, and gives the
// message column whatever width is left.
func columnWidths(headers []string, rows []logfile.Row, total int) []int {
	widths := make([]int, len(headers))
	flex := -1
	for i, h := range headers {
		widths[i] = len([]rune(h))
		if h == logfile.FieldMessage {
			flex = i
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := len([]rune(singleLine(cell.Text))); n > widths[i] {
				widths[i] = n
			}
		}
	}
	used := 0
	for i := range widths {
		if i != flex && widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
		if i != flex {
			used += widths[i] + columnGap
		}
	}
	if flex >= 0 {
		widths[flex] = max(total-used, minFlexWidth)
	}
	return widths
}

// renderTable draws the header and the visible window of rows. cursor is an
// index into rows; offset is the first row shown.
func (m Model) renderTable(width, height int) string {
	styles := m.theme.Styles()
	if len(m.headers) == 0 {
		return styles.MutedText.Render("No log file opened. Press o to open one.")
	}

	widths := columnWidths(m.headers, m.rows, width)
	gap := strings.Repeat(" ", columnGap)

	var b strings.Builder
	titles := make([]string, len(m.headers))
	for i, h := range m.headers {
		titles[i] = styles.ColumnTitle.Render(fit(h, widths[i]))
	}
	b.WriteString(truncateLine(strings.Join(titles, gap), width))

	if len(m.rows) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("No records in view."))
		return b.String()
	}

	visible := max(height-1, 1)
	end := min(m.offset+visible, len(m.rows))
	for r := m.offset; r < end; r++ {
		row := m.displayRow(r)
		cells := make([]string, len(row))
		for i, cell := range row {
			text := fit(singleLine(cell.Text), widths[i])
			style := styles.Text
			if cell.Style.Color != "" {
				style = style.Foreground(m.theme.LevelColor(cell.Style.Color))
			}
			if cell.Style.Bold {
				style = style.Bold(true)
			}
			if r == m.cursor {
				style = style.Background(lipgloss.Color(m.theme.SelectionBg))
			}
			cells[i] = style.Render(text)
		}
		sep := gap
		if r == m.cursor {
			sep = styles.Selected.Render(gap)
		}
		b.WriteString("\n")
		b.WriteString(truncateLine(strings.Join(cells, sep), width))
	}
	return b.String()
}

// displayRow maps a view position to a row, honouring the sort toggle.
func (m Model) displayRow(i int) logfile.Row {
	if m.ascending {
		return m.rows[len(m.rows)-1-i]
	}
	return m.rows[i]
}

func truncateLine(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
