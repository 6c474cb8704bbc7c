package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/logview/internal/logfile"
	"github.com/five82/logview/internal/session"
	"github.com/five82/logview/internal/settings"
)

const sampleLog = `{"asctime": "2024-05-01 10:00:00", "levelname": "DEBUG", "message": "starting", "module": "main", "process": 1}
{"asctime": "2024-05-01 10:05:00", "levelname": "INFO", "message": "second run", "module": "main", "process": 2}
{"asctime": "2024-05-01 10:10:00", "levelname": "ERROR", "message": "boom", "module": "db", "process": 1}
`

func newTestModel(t *testing.T) (Model, *settings.Store, string) {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.json")
	if err := os.WriteFile(logPath, []byte(sampleLog), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store, err := settings.Load(filepath.Join(dir, "settings.toml"), nil)
	if err != nil {
		t.Fatalf("settings.Load: %v", err)
	}
	sess := session.New(nil)
	if err := sess.LoadLog(logPath); err != nil {
		t.Fatalf("LoadLog: %v", err)
	}

	m := New(Options{Session: sess, Settings: store})
	m = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 40})
	m = update(t, m, loadedMsg{path: logPath})
	return m, store, logPath
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and feeds any message the resulting command emits back
// into the model, as the Bubble Tea runtime would.
func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	return drain(t, m, cmd)
}

func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil && i < 10; i++ {
		msg := cmd()
		if msg == nil {
			return m
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace}
)

func TestModel_LoadShowsAllRecords(t *testing.T) {
	m, _, logPath := newTestModel(t)
	if len(m.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(m.rows))
	}
	if want := "Opened file: '" + logPath + "'"; m.status != want {
		t.Fatalf("status = %q, want %q", m.status, want)
	}
	if got := m.rows[0][1]; got.Text != "ERROR" || got.Style.Color != "red" || !got.Style.Bold {
		t.Fatalf("first level cell = %+v, want bold red ERROR", got)
	}
	if view := m.View(); !strings.Contains(view, "3/3 records") {
		t.Fatalf("View() missing record counts:\n%s", view)
	}
}

func TestModel_FilterRunsDialog(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, runes("f"))
	if _, ok := m.modal.(*checklistModal); !ok {
		t.Fatalf("modal = %T, want *checklistModal", m.modal)
	}
	// Runs are listed most recent first, so the cursor starts on run 1.
	m = press(t, m, space)
	m = press(t, m, enter)

	if m.modal != nil {
		t.Fatalf("modal still open after confirm")
	}
	if len(m.rows) != 1 || m.rows[0][2].Text != "second run" {
		t.Fatalf("rows after filter = %+v, want only run 2", m.rows)
	}
	if m.status != "Filtering runs: 2" {
		t.Fatalf("status = %q, want %q", m.status, "Filtering runs: 2")
	}
}

func TestModel_CancelledDialogsReportStatus(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, runes("o"))
	if _, ok := m.modal.(*promptModal); !ok {
		t.Fatalf("modal = %T, want *promptModal", m.modal)
	}
	m = press(t, m, esc)
	if m.modal != nil || m.status != "You cancelled opening a file!" {
		t.Fatalf("after esc modal = %T, status = %q", m.modal, m.status)
	}

	m = press(t, m, runes("f"))
	m = press(t, m, esc)
	if m.status != "You cancelled filtering runs!" {
		t.Fatalf("status = %q, want filter cancel message", m.status)
	}
	if len(m.rows) != 3 {
		t.Fatalf("rows = %d after cancel, want 3", len(m.rows))
	}
}

func TestModel_ExportFlow(t *testing.T) {
	m, store, _ := newTestModel(t)

	m = press(t, m, runes("e"))
	checklist, ok := m.modal.(*checklistModal)
	if !ok {
		t.Fatalf("modal = %T, want *checklistModal", m.modal)
	}
	// Untick the first column (asctime).
	if checklist.items[0].value != logfile.FieldAsctime {
		t.Fatalf("first item = %q, want asctime", checklist.items[0].value)
	}
	m = press(t, m, space)
	m = press(t, m, enter)

	if _, ok := m.modal.(*promptModal); !ok {
		t.Fatalf("modal = %T, want path prompt", m.modal)
	}
	if got := store.ExportOptions().ColumnExcludes; len(got) != 1 || got[0] != logfile.FieldAsctime {
		t.Fatalf("persisted column excludes = %v, want [asctime]", got)
	}

	out := filepath.Join(t.TempDir(), "out.xlsx")
	m.modal = nil
	m = drain(t, m, func() tea.Msg { return exportPathMsg{path: out} })
	if want := "Exported file: '" + out + "'"; m.status != want {
		t.Fatalf("status = %q, want %q", m.status, want)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("Stat(out): %v", err)
	}
}

func TestModel_ExportNothingToWrite(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = update(t, m, exportOptionsMsg{opts: logfile.ExportOptions{
		ColumnExcludes: []string{},
		LevelExcludes:  append([]string(nil), logfile.Levels...),
	}})
	if m.modal != nil {
		t.Fatalf("modal = %T, want no path prompt", m.modal)
	}
	if m.statusKind != statusWarning || !strings.HasPrefix(m.status, "Nothing to export") {
		t.Fatalf("status = %q (%d), want nothing-to-export warning", m.status, m.statusKind)
	}
}

func TestModel_SortToggleReversesView(t *testing.T) {
	m, _, _ := newTestModel(t)
	if got := m.displayRow(0)[2].Text; got != "boom" {
		t.Fatalf("first row = %q, want newest", got)
	}
	m = press(t, m, runes("a"))
	if got := m.displayRow(0)[2].Text; got != "starting" {
		t.Fatalf("first row after sort toggle = %q, want oldest", got)
	}
}

func TestModel_CycleThemePersists(t *testing.T) {
	m, store, _ := newTestModel(t)
	m = press(t, m, runes("T"))
	if m.theme.Name != "Slate" || store.Theme() != "Slate" {
		t.Fatalf("theme = %q, stored = %q, want Slate", m.theme.Name, store.Theme())
	}
}

func TestModel_SetDefaultFile(t *testing.T) {
	m, store, logPath := newTestModel(t)
	m = press(t, m, runes("d"))
	if store.FileDefault() != logPath {
		t.Fatalf("FileDefault = %q, want %q", store.FileDefault(), logPath)
	}
	if m.statusKind != statusInfo {
		t.Fatalf("status = %q, want info", m.status)
	}
}

func TestModel_ChangedOnDiskAndReload(t *testing.T) {
	m, _, logPath := newTestModel(t)
	abs, _ := filepath.Abs(logPath)

	m = update(t, m, fileChangedMsg{path: abs})
	if !m.changed {
		t.Fatalf("changed = false after file change")
	}
	if view := m.View(); !strings.Contains(view, "changed on disk") {
		t.Fatalf("View() missing changed marker:\n%s", view)
	}

	m = press(t, m, runes("r"))
	if m.changed {
		t.Fatalf("changed still set after reload")
	}
	if !strings.HasPrefix(m.status, "Reloaded the log file") {
		t.Fatalf("status = %q, want reload message", m.status)
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, runes("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m = press(t, m, runes("j"))
	if m.showHelp {
		t.Fatalf("help overlay still shown after key press")
	}
}

func TestColumnWidths_MessageFlexes(t *testing.T) {
	headers := []string{"asctime", "levelname", "message"}
	rows := []logfile.Row{{
		{Text: "2024-05-01 10:00:00"},
		{Text: "INFO"},
		{Text: "hello"},
	}}
	widths := columnWidths(headers, rows, 80)
	if widths[0] != 19 || widths[1] != 9 {
		t.Fatalf("widths = %v, want [19 9 ...]", widths)
	}
	if want := 80 - (19 + columnGap) - (9 + columnGap); widths[2] != want {
		t.Fatalf("message width = %d, want %d", widths[2], want)
	}

	long := []logfile.Row{{{Text: strings.Repeat("x", 100)}, {Text: "INFO"}, {Text: "m"}}}
	if got := columnWidths(headers, long, 80)[0]; got != maxColumnWidth {
		t.Fatalf("capped width = %d, want %d", got, maxColumnWidth)
	}
}

func TestFitAndSingleLine(t *testing.T) {
	if got := fit("abcdef", 5); got != "ab..." {
		t.Fatalf("fit truncate = %q, want %q", got, "ab...")
	}
	if got := fit("ab", 4); got != "ab  " {
		t.Fatalf("fit pad = %q, want %q", got, "ab  ")
	}
	if got := singleLine("a\nb\tc"); got != "a ⏎ b c" {
		t.Fatalf("singleLine = %q, want %q", got, "a ⏎ b c")
	}
}

func TestChecklistToggleAll(t *testing.T) {
	c := &checklistModal{items: []checkItem{{value: "a", checked: true}, {value: "b"}}}
	keys := DefaultKeyMap()
	c.Update(runes("A"), keys)
	for _, it := range c.items {
		if !it.checked {
			t.Fatalf("item %q unchecked after toggle all", it.value)
		}
	}
	c.Update(runes("A"), keys)
	for _, it := range c.items {
		if it.checked {
			t.Fatalf("item %q checked after second toggle all", it.value)
		}
	}
}
