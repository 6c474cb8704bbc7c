package logfile

import (
	"errors"
	"strconv"
)

// Canonical field names every log line must carry.
const (
	FieldAsctime = "asctime"
	FieldLevel   = "levelname"
	FieldProcess = "process"
	FieldMessage = "message"
)

// Severity levels accepted in the levelname field, lowest first.
var Levels = []string{"DEBUG", "INFO", "WARNING", "ERROR"}

var (
	// ErrNotFound reports that the log file does not exist.
	ErrNotFound = errors.New("log file not found")
	// ErrParse reports a line that is not a valid log record.
	ErrParse = errors.New("malformed log record")
	// ErrIO reports a failure writing an export.
	ErrIO = errors.New("write export")
	// ErrCellTooLong reports a value longer than a spreadsheet cell holds.
	ErrCellTooLong = errors.New("value exceeds spreadsheet cell limit")
	// ErrMissingColor reports a level without an entry in the color map.
	ErrMissingColor = errors.New("no color for level")
)

// ParseError identifies the line that broke a load.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// IsLevel reports whether s is one of the canonical severity levels.
func IsLevel(s string) bool {
	for _, lvl := range Levels {
		if lvl == s {
			return true
		}
	}
	return false
}

// Record is one parsed log line. Values are string, int64, float64, bool or
// nil; nested JSON is kept as its compact text.
type Record struct {
	fields  map[string]any
	asctime stamp
	level   string
	process string
}

// Get returns the value of a field, or nil when the line did not carry it.
func (r Record) Get(name string) any {
	return r.fields[name]
}

// Level returns the record's severity.
func (r Record) Level() string { return r.level }

// RunKey returns the record's run grouping key.
func (r Record) RunKey() string { return r.process }

// Asctime returns the record's timestamp as text.
func (r Record) Asctime() string { return r.asctime.text }

// RecordSet holds every record of one log file, most recent first, along
// with the per-record selection flag.
type RecordSet struct {
	path     string
	columns  []string
	records  []Record
	selected []bool
}

// Path returns the file the set was loaded from.
func (rs *RecordSet) Path() string { return rs.path }

// Headers returns the column names in order of first appearance.
func (rs *RecordSet) Headers() []string {
	out := make([]string, len(rs.columns))
	copy(out, rs.columns)
	return out
}

// Len returns the total number of records.
func (rs *RecordSet) Len() int { return len(rs.records) }

// Record returns the i-th record in display order.
func (rs *RecordSet) Record(i int) Record { return rs.records[i] }

// Selected reports whether the i-th record is in the current view.
func (rs *RecordSet) Selected(i int) bool { return rs.selected[i] }

// SelectedCount returns how many records are in the current view.
func (rs *RecordSet) SelectedCount() int {
	n := 0
	for _, ok := range rs.selected {
		if ok {
			n++
		}
	}
	return n
}

// FormatValue renders a record value as display text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// stamp is a sortable asctime. A load uses either text or numeric stamps,
// never both.
type stamp struct {
	text    string
	num     float64
	numeric bool
}

func (s stamp) compare(o stamp) int {
	if s.numeric {
		switch {
		case s.num < o.num:
			return -1
		case s.num > o.num:
			return 1
		}
		return 0
	}
	switch {
	case s.text < o.text:
		return -1
	case s.text > o.text:
		return 1
	}
	return 0
}
