package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/five82/logview/internal/logfile"
)

// ErrNoLog reports an operation that needs an open log file.
var ErrNoLog = errors.New("no log file open")

// Session owns the open record set and serialises access to it.
type Session struct {
	mu     sync.RWMutex
	rs     *logfile.RecordSet
	logger *zap.Logger
}

// New returns an empty session. A nil logger discards messages.
func New(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{logger: logger}
}

// LoadLog replaces the open record set with the file at path. On failure the
// previous set stays open.
func (s *Session) LoadLog(path string) error {
	rs, err := logfile.Load(path)
	if err != nil {
		s.logger.Error("load log failed", zap.String("path", path), zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.rs = rs
	s.mu.Unlock()

	s.logger.Info("loaded log", zap.String("path", path), zap.Int("records", rs.Len()))
	return nil
}

// Reload reads the open file again. The selection resets to every record.
func (s *Session) Reload() error {
	path := s.Path()
	if path == "" {
		return ErrNoLog
	}
	return s.LoadLog(path)
}

// Loaded reports whether a log file is open.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rs != nil
}

// Path returns the open file, or "".
func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rs == nil {
		return ""
	}
	return s.rs.Path()
}

// Headers returns the columns of the open file.
func (s *Session) Headers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rs == nil {
		return nil
	}
	return s.rs.Headers()
}

// Counts returns the number of selected and total records.
func (s *Session) Counts() (selected, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rs == nil {
		return 0, 0
	}
	return s.rs.SelectedCount(), s.rs.Len()
}

// Runs returns the run index of the open file.
func (s *Session) Runs() []logfile.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rs == nil {
		return nil
	}
	return s.rs.Runs()
}

// SelectedRuns returns the run keys currently in view.
func (s *Session) SelectedRuns() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rs == nil {
		return nil
	}
	return s.rs.SelectedRuns()
}

// FilterByRuns keeps only the records of the given runs in view.
func (s *Session) FilterByRuns(keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rs == nil {
		return ErrNoLog
	}
	s.rs.FilterRuns(keys)
	s.logger.Info("filtered runs", zap.Strings("runs", keys), zap.Int("selected", s.rs.SelectedCount()))
	return nil
}

// FormattedEntries returns the rows in view, styled with colors.
func (s *Session) FormattedEntries(colors map[string]string) ([]logfile.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rs == nil {
		return nil, nil
	}
	return s.rs.Formatted(colors)
}

// ExportRows returns how many rows an export with opts would write.
func (s *Session) ExportRows(opts logfile.ExportOptions) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rs == nil {
		return 0
	}
	return s.rs.ExportRows(opts)
}

// ExportLog writes the filtered view to path. It returns false when there was
// nothing to write.
func (s *Session) ExportLog(path string, opts logfile.ExportOptions) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rs == nil {
		return false, ErrNoLog
	}
	written, err := s.rs.Export(path, opts)
	if err != nil {
		s.logger.Error("export failed", zap.String("path", path), zap.Error(err))
		return false, fmt.Errorf("export %s: %w", path, err)
	}
	if !written {
		s.logger.Warn("nothing to export", zap.String("path", path))
		return false, nil
	}
	s.logger.Info("exported log", zap.String("path", path))
	return true, nil
}
