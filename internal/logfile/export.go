package logfile

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/renameio/v2/maybe"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// ExportOptions lists what an export leaves out.
type ExportOptions struct {
	ColumnExcludes []string
	LevelExcludes  []string
}

// Projection is the column and row subset an export writes.
type Projection struct {
	Columns []string
	Rows    [][]any
}

// Project builds the export projection: selected records, minus records whose
// level is excluded, minus excluded columns. Level exclusion applies even when
// the levelname column itself is excluded. The set is not modified.
func (rs *RecordSet) Project(opts ExportOptions) Projection {
	dropCol := toSet(opts.ColumnExcludes)
	dropLevel := toSet(opts.LevelExcludes)

	var p Projection
	for _, col := range rs.columns {
		if !dropCol[col] {
			p.Columns = append(p.Columns, col)
		}
	}
	for i, rec := range rs.records {
		if !rs.selected[i] || dropLevel[rec.level] {
			continue
		}
		row := make([]any, len(p.Columns))
		for c, col := range p.Columns {
			row[c] = rec.fields[col]
		}
		p.Rows = append(p.Rows, row)
	}
	return p
}

// ExportRows returns how many rows Export would write for opts.
func (rs *RecordSet) ExportRows(opts ExportOptions) int {
	dropLevel := toSet(opts.LevelExcludes)
	n := 0
	for i, rec := range rs.records {
		if rs.selected[i] && !dropLevel[rec.level] {
			n++
		}
	}
	return n
}

// Export writes the projection for opts as an xlsx workbook at path. It
// returns false without touching the file system when no rows survive.
func (rs *RecordSet) Export(path string, opts ExportOptions) (bool, error) {
	p := rs.Project(opts)
	if len(p.Rows) == 0 {
		return false, nil
	}
	if err := checkCellLengths(p); err != nil {
		return false, err
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(p.Columns))
	for i, col := range p.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return false, fmt.Errorf("%w: header: %w", ErrIO, err)
	}
	for i, row := range p.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrIO, err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return false, fmt.Errorf("%w: row %d: %w", ErrIO, i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return false, fmt.Errorf("%w: encode workbook: %w", ErrIO, err)
	}
	if err := maybe.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return true, nil
}

// checkCellLengths rejects text a cell cannot hold. excelize would cut it
// to TotalCellChars without reporting anything.
func checkCellLengths(p Projection) error {
	for i, row := range p.Rows {
		for c, v := range row {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if n := utf8.RuneCountInString(s); n > excelize.TotalCellChars {
				return fmt.Errorf("%w: %w: row %d column %q has %d characters, limit %d",
					ErrIO, ErrCellTooLong, i+1, p.Columns[c], n, excelize.TotalCellChars)
			}
		}
	}
	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
