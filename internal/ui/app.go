// Package ui provides the Bubble Tea TUI for logview.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/logview/internal/logfile"
	"github.com/five82/logview/internal/session"
	"github.com/five82/logview/internal/settings"
	"github.com/five82/logview/internal/watch"
)

// Options configures the UI.
type Options struct {
	Context  context.Context
	Session  *session.Session
	Settings *settings.Store
	Watcher  *watch.Watcher // optional
	Logger   *zap.Logger
	OpenPath string // loaded on start when set
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusWarning
	statusError
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx      context.Context
	sess     *session.Session
	settings *settings.Store
	watcher  *watch.Watcher
	logger   *zap.Logger
	openPath string

	// UI state
	keys   keyMap
	help   help.Model
	theme  Theme
	width  int
	height int
	ready  bool

	// Data state
	headers   []string
	rows      []logfile.Row
	cursor    int
	offset    int
	ascending bool
	changed   bool

	detail viewport.Model

	status     string
	statusKind statusKind

	modal    Modal
	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New(logger)
	}

	m := Model{
		ctx:      ctx,
		sess:     sess,
		settings: opts.Settings,
		watcher:  opts.Watcher,
		logger:   logger,
		openPath: opts.OpenPath,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		theme:    GetTheme(opts.Settings.Theme()),
		detail:   viewport.New(0, 0),
		status:   "Hello, welcome to logview",
	}
	m.refreshRows()
	return m
}

// Messages

type statusMsg struct {
	text string
	kind statusKind
}

type openRequestMsg struct{ path string }

type runsChosenMsg struct{ keys []string }

type exportOptionsMsg struct{ opts logfile.ExportOptions }

type exportPathMsg struct{ path string }

type loadedMsg struct {
	path   string
	reload bool
	err    error
}

type exportedMsg struct {
	path    string
	written bool
	err     error
}

type fileChangedMsg struct{ path string }

// Commands

func loadCmd(sess *session.Session, path string, reload bool) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{path: path, reload: reload, err: sess.LoadLog(path)}
	}
}

func exportCmd(sess *session.Session, path string, opts logfile.ExportOptions) tea.Cmd {
	return func() tea.Msg {
		written, err := sess.ExportLog(path, opts)
		return exportedMsg{path: path, written: written, err: err}
	}
}

func waitForChange(w *watch.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-w.Changes()
		if !ok {
			return nil
		}
		return fileChangedMsg{path: path}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChange(m.watcher)}
	switch {
	case m.openPath != "":
		cmds = append(cmds, loadCmd(m.sess, m.openPath, false))
	case m.settings.FileDefault() != "":
		cmds = append(cmds, loadCmd(m.sess, m.settings.FileDefault(), false))
	default:
		cmds = append(cmds, emit(openDialogMsg{}))
	}
	return tea.Batch(cmds...)
}

type openDialogMsg struct{}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.clampCursor()
		m.updateDetail()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.modal != nil {
			modal, cmd, done := m.modal.Update(msg, m.keys)
			m.modal = modal
			if done {
				m.modal = nil
			}
			return m, cmd
		}
		return m.handleKey(msg)

	case statusMsg:
		m.setStatus(msg.kind, msg.text)
		return m, nil

	case openDialogMsg:
		m.modal = m.openDialog()
		return m, nil

	case openRequestMsg:
		return m, loadCmd(m.sess, msg.path, false)

	case loadedMsg:
		return m.handleLoaded(msg)

	case runsChosenMsg:
		if err := m.sess.FilterByRuns(msg.keys); err != nil {
			m.setStatus(statusError, err.Error())
			return m, nil
		}
		m.refreshRows()
		m.setStatus(statusInfo, fmt.Sprintf("Filtering runs: %s", strings.Join(msg.keys, ", ")))
		return m, nil

	case exportOptionsMsg:
		return m.handleExportOptions(msg.opts)

	case exportPathMsg:
		return m, exportCmd(m.sess, msg.path, m.settings.ExportOptions())

	case exportedMsg:
		switch {
		case msg.err != nil:
			m.setStatus(statusError, fmt.Sprintf("Export failed: %v", msg.err))
		case !msg.written:
			m.setStatus(statusWarning, "Nothing to export due to filter and levelname exclusion!")
		default:
			m.setStatus(statusInfo, fmt.Sprintf("Exported file: '%s'", msg.path))
		}
		return m, nil

	case fileChangedMsg:
		if msg.path == absPath(m.sess.Path()) {
			m.changed = true
		}
		return m, waitForChange(m.watcher)
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		m.modal = modal
		if done {
			m.modal = nil
		}
		return m, cmd
	}
	return m, nil
}

// handleKey processes keyboard input when no dialog is open.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if err := m.settings.SetTheme(m.theme.Name); err != nil {
			m.setStatus(statusError, err.Error())
		} else {
			m.setStatus(statusInfo, fmt.Sprintf("Switched to theme '%s'", m.theme.Name))
		}
		m.updateDetail()
		return m, nil

	case key.Matches(msg, m.keys.Open):
		m.modal = m.openDialog()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if !m.sess.Loaded() {
			m.setStatus(statusWarning, "No log file to reload")
			return m, nil
		}
		return m, loadCmd(m.sess, m.sess.Path(), true)

	case key.Matches(msg, m.keys.FilterRuns):
		if !m.sess.Loaded() {
			m.setStatus(statusWarning, "Open a log file first")
			return m, nil
		}
		m.modal = m.runsDialog()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		if !m.sess.Loaded() {
			m.setStatus(statusWarning, "Open a log file first")
			return m, nil
		}
		m.modal = m.exportOptionsDialog()
		return m, nil

	case key.Matches(msg, m.keys.SortAsctime):
		m.ascending = !m.ascending
		m.cursor, m.offset = 0, 0
		m.updateDetail()
		return m, nil

	case key.Matches(msg, m.keys.SetDefault):
		path := m.sess.Path()
		if path == "" {
			m.setStatus(statusWarning, "No log file opened")
			return m, nil
		}
		if err := m.settings.SetFileDefault(path); err != nil {
			m.setStatus(statusError, err.Error())
			return m, nil
		}
		m.setStatus(statusInfo, fmt.Sprintf("Set '%s' as default log file", path))
		return m, nil
	}

	m.moveCursor(msg)
	return m, nil
}

func (m *Model) moveCursor(msg tea.KeyMsg) {
	page := max(m.tableHeight()-1, 1)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor--
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(m.rows) - 1
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= page
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += page
	default:
		return
	}
	m.clampCursor()
	m.updateDetail()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := max(m.tableHeight()-1, 1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		text := fmt.Sprintf("Could not open '%s': %v", msg.path, msg.err)
		if errors.Is(msg.err, logfile.ErrNotFound) {
			text = fmt.Sprintf("Log file '%s' does not exist", msg.path)
		}
		m.setStatus(statusError, text)
		return m, nil
	}

	m.changed = false
	m.cursor, m.offset = 0, 0
	m.refreshRows()
	if m.watcher != nil {
		if err := m.watcher.Set(msg.path); err != nil {
			m.logger.Warn("cannot watch log file", zap.String("path", msg.path), zap.Error(err))
		}
	}
	if msg.reload {
		m.setStatus(statusInfo, fmt.Sprintf("Reloaded the log file '%s'", msg.path))
	} else {
		m.setStatus(statusInfo, fmt.Sprintf("Opened file: '%s'", msg.path))
	}
	return m, nil
}

func (m Model) handleExportOptions(opts logfile.ExportOptions) (tea.Model, tea.Cmd) {
	if err := m.settings.SetExportColumnExcludes(opts.ColumnExcludes); err != nil {
		m.setStatus(statusError, err.Error())
		return m, nil
	}
	if err := m.settings.SetExportLevelExcludes(opts.LevelExcludes); err != nil {
		m.setStatus(statusError, err.Error())
		return m, nil
	}
	if m.sess.ExportRows(opts) == 0 {
		m.setStatus(statusWarning, "Nothing to export due to filter and levelname exclusion!")
		return m, nil
	}
	m.modal = m.exportPathDialog()
	return m, nil
}

// refreshRows re-reads the formatted view from the session.
func (m *Model) refreshRows() {
	m.headers = m.sess.Headers()
	rows, err := m.sess.FormattedEntries(m.settings.LevelColors())
	if err != nil {
		m.logger.Error("format entries", zap.Error(err))
		m.setStatus(statusError, err.Error())
		rows = nil
	}
	m.rows = rows
	m.clampCursor()
	m.updateDetail()
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.status = text
	m.statusKind = kind
	switch kind {
	case statusError:
		m.logger.Error(text)
	case statusWarning:
		m.logger.Warn(text)
	default:
		m.logger.Info(text)
	}
}

// Dialogs

func (m Model) openDialog() Modal {
	dir := m.settings.DirDefault()
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = home
		}
	}
	value := dir
	if value != "" && !strings.HasSuffix(value, string(filepath.Separator)) {
		value += string(filepath.Separator)
	}
	return newPromptModal(
		"Open log file",
		"/path/to/log.json",
		value,
		func(v string) tea.Msg { return openRequestMsg{path: v} },
		statusMsg{text: "You cancelled opening a file!", kind: statusWarning},
	)
}

func (m Model) runsDialog() Modal {
	selected := m.sess.SelectedRuns()
	runs := m.sess.Runs()
	items := make([]checkItem, len(runs))
	for i, r := range runs {
		label := fmt.Sprintf("%s  run %s  (%d records)", r.Latest, r.Key, r.Records)
		if r.MostRecent {
			label += "  latest"
		}
		items[i] = checkItem{group: "Runs", label: label, value: r.Key, checked: selected[r.Key]}
	}
	return &checklistModal{
		title: "Filter runs",
		hint:  "Select the runs you want to include in the log selection",
		items: items,
		onConfirm: func(items []checkItem) tea.Msg {
			var keys []string
			for _, it := range items {
				if it.checked {
					keys = append(keys, it.value)
				}
			}
			return runsChosenMsg{keys: keys}
		},
		onCancel: statusMsg{text: "You cancelled filtering runs!", kind: statusWarning},
	}
}

func (m Model) exportOptionsDialog() Modal {
	current := m.settings.ExportOptions()
	colOut := make(map[string]bool)
	for _, c := range current.ColumnExcludes {
		colOut[c] = true
	}
	levelOut := make(map[string]bool)
	for _, l := range current.LevelExcludes {
		levelOut[l] = true
	}

	var items []checkItem
	for _, h := range m.sess.Headers() {
		items = append(items, checkItem{group: "Columns", label: h, value: h, checked: !colOut[h]})
	}
	for _, l := range logfile.Levels {
		items = append(items, checkItem{group: "Levels", label: l, value: l, checked: !levelOut[l]})
	}
	return &checklistModal{
		title: "Export options",
		hint:  "Ticked columns and levels are exported",
		items: items,
		onConfirm: func(items []checkItem) tea.Msg {
			opts := logfile.ExportOptions{ColumnExcludes: []string{}, LevelExcludes: []string{}}
			for _, it := range items {
				if it.checked {
					continue
				}
				if it.group == "Levels" {
					opts.LevelExcludes = append(opts.LevelExcludes, it.value)
				} else {
					opts.ColumnExcludes = append(opts.ColumnExcludes, it.value)
				}
			}
			// Keep excludes for columns this file does not have.
			have := make(map[string]bool)
			for _, h := range m.sess.Headers() {
				have[h] = true
			}
			for _, c := range current.ColumnExcludes {
				if !have[c] {
					opts.ColumnExcludes = append(opts.ColumnExcludes, c)
				}
			}
			return exportOptionsMsg{opts: opts}
		},
		onCancel: statusMsg{text: "You cancelled exporting a log!", kind: statusWarning},
	}
}

func (m Model) exportPathDialog() Modal {
	dir := m.settings.DirDefault()
	if dir == "" {
		dir = filepath.Dir(m.sess.Path())
	}
	base := strings.TrimSuffix(filepath.Base(m.sess.Path()), filepath.Ext(m.sess.Path()))
	return newPromptModal(
		"Export log to",
		"export.xlsx",
		filepath.Join(dir, base+".xlsx"),
		func(v string) tea.Msg { return exportPathMsg{path: v} },
		statusMsg{text: "You cancelled exporting part of the log!", kind: statusWarning},
	)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// tableHeight is the number of lines left for the table, header included.
func (m Model) tableHeight() int {
	// header bar, detail panel, status line, help line
	return max(m.height-1-detailHeight-1-1, 2)
}

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(padLines(m.renderTable(m.width, m.tableHeight()), m.tableHeight()))
	b.WriteString("\n")
	b.WriteString(m.renderDetail())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("logview")
	path := m.sess.Path()
	if path == "" {
		path = "No log file opened"
	}
	selected, total := m.sess.Counts()
	parts := []string{
		title,
		styles.Text.Render(truncateMiddle(path, max(m.width/2, 20))),
		styles.MutedText.Render(fmt.Sprintf("%d/%d records", selected, total)),
	}
	if m.ascending {
		parts = append(parts, styles.MutedText.Render("oldest first"))
	}
	if m.changed {
		parts = append(parts, styles.WarningText.Render("changed on disk, press r to reload"))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	style := styles.SuccessText
	switch m.statusKind {
	case statusWarning:
		style = styles.WarningText
	case statusError:
		style = styles.DangerText
	}
	return style.Render(truncate(m.status, m.width))
}

func padLines(s string, n int) string {
	lines := strings.Count(s, "\n") + 1
	if lines >= n {
		return s
	}
	return s + strings.Repeat("\n", n-lines)
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
