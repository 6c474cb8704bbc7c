package logfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.json")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func mustLoad(t *testing.T, lines ...string) *RecordSet {
	t.Helper()
	rs, err := Load(writeLog(t, lines...))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return rs
}

func TestLoad_SortsDescendingAndSelectsAll(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "2024-05-01 10:00:00", "levelname": "INFO", "message": "one", "module": "main", "process": 1}`,
		`{"asctime": "2024-05-01 10:10:00", "levelname": "ERROR", "message": "three", "module": "db", "process": 1}`,
		`{"asctime": "2024-05-01 10:05:00", "levelname": "DEBUG", "message": "two", "module": "main", "process": 2}`,
	)

	if rs.Len() != 3 {
		t.Fatalf("Len = %d, want 3", rs.Len())
	}
	want := []string{"three", "two", "one"}
	for i, msg := range want {
		if got := rs.Record(i).Get(FieldMessage); got != msg {
			t.Fatalf("record %d message = %v, want %q", i, got, msg)
		}
		if !rs.Selected(i) {
			t.Fatalf("record %d not selected after load", i)
		}
	}
	if got := rs.Record(0).Get(FieldProcess); got != int64(1) {
		t.Fatalf("process = %#v, want int64(1)", got)
	}
}

func TestLoad_ColumnsInFirstSeenOrder(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "1", "levelname": "INFO", "message": "a", "process": "p"}`,
		`{"asctime": "2", "levelname": "INFO", "funcName": "run", "message": "b", "process": "p", "extra": {"k": [1, 2]}}`,
	)
	want := []string{"asctime", "levelname", "message", "process", "funcName", "extra"}
	if got := rs.Headers(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Headers = %v, want %v", got, want)
	}
	if got := rs.Record(0).Get("extra"); got != `{"k":[1,2]}` {
		t.Fatalf("nested value = %v, want compact JSON text", got)
	}
	if got := rs.Record(1).Get("funcName"); got != nil {
		t.Fatalf("missing field = %v, want nil", got)
	}
}

func TestLoad_NumericAsctime(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": 9, "levelname": "INFO", "message": "a", "process": "p"}`,
		`{"asctime": 10.5, "levelname": "INFO", "message": "b", "process": "p"}`,
	)
	if got := rs.Record(0).Asctime(); got != "10.5" {
		t.Fatalf("first asctime = %q, want 10.5", got)
	}
}

func TestLoad_NormalizesNumbers(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "1", "levelname": "INFO", "message": "m", "process": 1, "whole": 1.0, "ratio": 2.50, "big": 1e3, "count": 7}`,
	)
	rec := rs.Record(0)
	cases := []struct {
		field string
		want  any
		text  string
	}{
		{"whole", float64(1), "1"},
		{"ratio", 2.5, "2.5"},
		{"big", float64(1000), "1000"},
		{"count", int64(7), "7"},
	}
	for _, tc := range cases {
		got := rec.Get(tc.field)
		if got != tc.want {
			t.Fatalf("Get(%q) = %#v, want %#v", tc.field, got, tc.want)
		}
		if text := FormatValue(got); text != tc.text {
			t.Fatalf("FormatValue(%q) = %q, want %q", tc.field, text, tc.text)
		}
	}
}

func TestLoad_SkipsBlankLines(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "1", "levelname": "INFO", "message": "a", "process": "p"}`,
		``,
		`   `,
		`{"asctime": "2", "levelname": "INFO", "message": "b", "process": "p"}`,
	)
	if rs.Len() != 2 {
		t.Fatalf("Len = %d, want 2", rs.Len())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load error = %v, want ErrNotFound", err)
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	valid := `{"asctime": "1", "levelname": "INFO", "message": "a", "process": "p"}`
	cases := map[string]string{
		"not json":         `this is not json`,
		"array":            `[1, 2, 3]`,
		"missing asctime":  `{"levelname": "INFO", "message": "a", "process": "p"}`,
		"missing level":    `{"asctime": "2", "message": "a", "process": "p"}`,
		"missing process":  `{"asctime": "2", "levelname": "INFO", "message": "a"}`,
		"missing message":  `{"asctime": "2", "levelname": "INFO", "process": "p"}`,
		"null process":     `{"asctime": "2", "levelname": "INFO", "message": "a", "process": null}`,
		"unknown level":    `{"asctime": "2", "levelname": "CRITICAL", "message": "a", "process": "p"}`,
		"lowercase level":  `{"asctime": "2", "levelname": "info", "message": "a", "process": "p"}`,
		"mixed asctime":    `{"asctime": 2, "levelname": "INFO", "message": "a", "process": "p"}`,
		"bool asctime":     `{"asctime": true, "levelname": "INFO", "message": "a", "process": "p"}`,
		"trailing garbage": valid + ` {}`,
		"truncated":        `{"asctime": "2", "levelname": "INFO"`,
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeLog(t, valid, bad))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("Load error = %v, want ErrParse", err)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Load error = %T, want *ParseError", err)
			}
			if perr.Line != 2 {
				t.Fatalf("ParseError.Line = %d, want 2", perr.Line)
			}
		})
	}
}

func TestRuns_MostRecentByLatestTimestamp(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "10:00", "levelname": "INFO", "message": "a1", "process": "A"}`,
		`{"asctime": "10:05", "levelname": "INFO", "message": "b1", "process": "B"}`,
		`{"asctime": "10:10", "levelname": "INFO", "message": "a2", "process": "A"}`,
	)
	runs := rs.Runs()
	want := []Run{
		{Key: "A", Latest: "10:10", Records: 2, MostRecent: true},
		{Key: "B", Latest: "10:05", Records: 1},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Fatalf("Runs = %+v, want %+v", runs, want)
	}
}

// Ties go to the run met first in the (descending) record order, which for
// equal timestamps is file order.
func TestRuns_TieGoesToFirstEncountered(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "09:00", "levelname": "INFO", "message": "c", "process": "C"}`,
		`{"asctime": "10:00", "levelname": "INFO", "message": "b", "process": "B"}`,
		`{"asctime": "10:00", "levelname": "INFO", "message": "a", "process": "A"}`,
	)
	runs := rs.Runs()
	if len(runs) != 3 {
		t.Fatalf("Runs returned %d runs, want 3", len(runs))
	}
	if runs[0].Key != "B" || !runs[0].MostRecent {
		t.Fatalf("Runs[0] = %+v, want most recent run B", runs[0])
	}
	mostRecent := 0
	for _, r := range runs {
		if r.MostRecent {
			mostRecent++
		}
	}
	if mostRecent != 1 {
		t.Fatalf("%d runs marked most recent, want 1", mostRecent)
	}
}

func TestRuns_KeysCompareAsText(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "1", "levelname": "INFO", "message": "a", "process": 1}`,
		`{"asctime": "2", "levelname": "INFO", "message": "b", "process": "1"}`,
		`{"asctime": "3", "levelname": "INFO", "message": "c", "process": 2}`,
	)
	want := []Run{
		{Key: "2", Latest: "3", Records: 1, MostRecent: true},
		{Key: "1", Latest: "2", Records: 2},
	}
	if runs := rs.Runs(); !reflect.DeepEqual(runs, want) {
		t.Fatalf("Runs = %+v, want %+v", runs, want)
	}

	rs.FilterRuns([]string{"1"})
	if got := rs.SelectedCount(); got != 2 {
		t.Fatalf("SelectedCount after FilterRuns([1]) = %d, want 2", got)
	}
}

func TestRuns_IgnoresSelection(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "1", "levelname": "INFO", "message": "a", "process": "A"}`,
		`{"asctime": "2", "levelname": "INFO", "message": "b", "process": "B"}`,
	)
	rs.FilterRuns(nil)
	if got := len(rs.Runs()); got != 2 {
		t.Fatalf("Runs after empty filter = %d, want 2", got)
	}
}

func TestRuns_Empty(t *testing.T) {
	rs := mustLoad(t)
	if runs := rs.Runs(); len(runs) != 0 {
		t.Fatalf("Runs = %+v, want none", runs)
	}
}

func TestFilterRuns(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "1", "levelname": "INFO", "message": "a", "process": "A"}`,
		`{"asctime": "2", "levelname": "INFO", "message": "b", "process": "B"}`,
		`{"asctime": "3", "levelname": "INFO", "message": "c", "process": "A"}`,
	)

	rs.FilterRuns([]string{})
	if got := rs.SelectedCount(); got != 0 {
		t.Fatalf("SelectedCount after empty filter = %d, want 0", got)
	}

	rs.FilterRuns([]string{"A", "B"})
	if got := rs.SelectedCount(); got != 3 {
		t.Fatalf("SelectedCount with all runs = %d, want 3", got)
	}

	rs.FilterRuns([]string{"A"})
	first := []bool{rs.Selected(0), rs.Selected(1), rs.Selected(2)}
	rs.FilterRuns([]string{"A"})
	second := []bool{rs.Selected(0), rs.Selected(1), rs.Selected(2)}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("FilterRuns not idempotent: %v then %v", first, second)
	}
	if want := []bool{true, false, true}; !reflect.DeepEqual(first, want) {
		t.Fatalf("selection = %v, want %v", first, want)
	}
	if got := rs.Record(1).Get(FieldMessage); got != "b" {
		t.Fatalf("FilterRuns reordered records: record 1 = %v", got)
	}
	if got := rs.SelectedRuns(); !reflect.DeepEqual(got, map[string]bool{"A": true}) {
		t.Fatalf("SelectedRuns = %v, want only A", got)
	}
}

var testColors = map[string]string{"DEBUG": "grey62", "INFO": "steel_blue3", "WARNING": "dark_orange", "ERROR": "red"}

func TestFormatted_OnlySelectedWithLevelStyle(t *testing.T) {
	rs := mustLoad(t,
		`{"asctime": "1", "levelname": "WARNING", "message": "a", "process": "A"}`,
		`{"asctime": "2", "levelname": "ERROR", "message": "b", "process": "B"}`,
	)
	rs.FilterRuns([]string{"A"})

	rows, err := rs.Formatted(testColors)
	if err != nil {
		t.Fatalf("Formatted returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Formatted returned %d rows, want 1", len(rows))
	}
	row := rows[0]
	if len(row) != len(rs.Headers()) {
		t.Fatalf("row has %d cells, want %d", len(row), len(rs.Headers()))
	}
	if row[1].Text != "WARNING" || row[1].Style != (Style{Bold: true, Color: "dark_orange"}) {
		t.Fatalf("level cell = %+v, want bold dark_orange WARNING", row[1])
	}
	if row[2].Style != (Style{}) {
		t.Fatalf("message cell style = %+v, want none", row[2].Style)
	}
}

func TestFormatted_MissingColor(t *testing.T) {
	rs := mustLoad(t, `{"asctime": "1", "levelname": "ERROR", "message": "a", "process": "A"}`)
	_, err := rs.Formatted(map[string]string{"INFO": "blue"})
	if !errors.Is(err, ErrMissingColor) {
		t.Fatalf("Formatted error = %v, want ErrMissingColor", err)
	}
}
