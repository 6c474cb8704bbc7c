package logfile

import "fmt"

// Style is a rendering hint attached to a cell. Color is a name taken from
// the level color map; the renderer decides what it means.
type Style struct {
	Bold  bool
	Color string
}

// Cell is one formatted value.
type Cell struct {
	Text  string
	Style Style
}

// Row is a formatted record aligned to Headers.
type Row []Cell

// Formatted returns the selected records as display rows in set order. The
// levelname cell is bold and colored from colors.
func (rs *RecordSet) Formatted(colors map[string]string) ([]Row, error) {
	rows := make([]Row, 0, rs.SelectedCount())
	for i, rec := range rs.records {
		if !rs.selected[i] {
			continue
		}
		row := make(Row, len(rs.columns))
		for c, col := range rs.columns {
			row[c] = Cell{Text: FormatValue(rec.fields[col])}
			if col != FieldLevel {
				continue
			}
			color, ok := colors[rec.level]
			if !ok {
				return nil, fmt.Errorf("%w %q", ErrMissingColor, rec.level)
			}
			row[c].Style = Style{Bold: true, Color: color}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
