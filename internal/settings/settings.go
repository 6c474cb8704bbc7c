// Package settings persists logview user preferences.
// Settings are stored in ~/.config/logview/settings.toml.
package settings

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/renameio/v2/maybe"
	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/five82/logview/internal/logfile"
)

// Settings holds user preferences for logview.
type Settings struct {
	FileDefault         string            `toml:"file_default"`
	DirDefault          string            `toml:"dir_default"`
	Theme               string            `toml:"theme"`
	ExportLevelExcludes []string          `toml:"export_level_excludes"`
	ExportColExcludes   []string          `toml:"export_col_excludes"`
	LevelColors         map[string]string `toml:"level_colors"`
}

const (
	defaultSettingsPath = "~/.config/logview/settings.toml"
	defaultTheme        = "Dracula"
)

// DefaultPath returns the default settings file path.
func DefaultPath() string {
	return defaultSettingsPath
}

// DefaultLevelColors returns the built-in severity color map.
func DefaultLevelColors() map[string]string {
	return map[string]string{
		"DEBUG":   "grey62",
		"INFO":    "steel_blue3",
		"WARNING": "dark_orange",
		"ERROR":   "red",
	}
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Theme:               defaultTheme,
		ExportLevelExcludes: []string{},
		ExportColExcludes:   []string{},
		LevelColors:         DefaultLevelColors(),
	}
}

// Store owns the loaded settings and rewrites the file on every change.
type Store struct {
	path   string
	data   Settings
	logger *zap.Logger
}

// Load reads settings from path, filling anything missing from Defaults. A
// missing file is not an error. A nil logger discards warnings.
func Load(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	store := &Store{path: resolved, data: Defaults(), logger: logger}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("no settings file, using defaults", zap.String("path", resolved))
			return store, nil
		}
		return nil, fmt.Errorf("open settings: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var loaded map[string]any
	if err := toml.Unmarshal(bytes, &loaded); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	defaults, err := toMap(Defaults())
	if err != nil {
		return nil, fmt.Errorf("encode default settings: %w", err)
	}
	var filled []string
	merged := mergeDefaults(loaded, defaults, "", &filled)
	for _, key := range filled {
		logger.Warn("setting not present, using default", zap.String("setting", key))
	}

	data, err := fromMap(merged)
	if err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	store.data = data
	store.dropMissingPaths()
	return store, nil
}

// mergeDefaults returns loaded with every key absent from it taken from
// defaults, recursing into nested tables. Keys that were filled are appended
// to filled as dotted paths.
func mergeDefaults(loaded, defaults map[string]any, prefix string, filled *[]string) map[string]any {
	out := make(map[string]any, len(loaded)+len(defaults))
	maps.Copy(out, loaded)

	for _, key := range slices.Sorted(maps.Keys(defaults)) {
		def := defaults[key]
		cur, ok := out[key]
		if !ok {
			out[key] = def
			*filled = append(*filled, prefix+key)
			continue
		}
		curTable, curOK := cur.(map[string]any)
		defTable, defOK := def.(map[string]any)
		if curOK && defOK {
			out[key] = mergeDefaults(curTable, defTable, prefix+key+".", filled)
		}
	}
	return out
}

func toMap(s Settings) (map[string]any, error) {
	bytes, err := toml.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := toml.Unmarshal(bytes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromMap(m map[string]any) (Settings, error) {
	bytes, err := toml.Marshal(m)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := toml.Unmarshal(bytes, &s); err != nil {
		return Settings{}, err
	}
	if s.ExportLevelExcludes == nil {
		s.ExportLevelExcludes = []string{}
	}
	if s.ExportColExcludes == nil {
		s.ExportColExcludes = []string{}
	}
	if strings.TrimSpace(s.Theme) == "" {
		s.Theme = defaultTheme
	}
	return s, nil
}

// dropMissingPaths clears default paths that no longer exist.
func (s *Store) dropMissingPaths() {
	if s.data.FileDefault != "" && !exists(s.data.FileDefault, false) {
		s.logger.Warn("default file does not exist", zap.String("path", s.data.FileDefault))
		s.data.FileDefault = ""
	}
	if s.data.DirDefault != "" && !exists(s.data.DirDefault, true) {
		s.logger.Warn("default directory does not exist", zap.String("path", s.data.DirDefault))
		s.data.DirDefault = ""
	}
}

// Path returns the resolved settings file path.
func (s *Store) Path() string { return s.path }

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	out := s.data
	out.LevelColors = maps.Clone(s.data.LevelColors)
	out.ExportLevelExcludes = slices.Clone(s.data.ExportLevelExcludes)
	out.ExportColExcludes = slices.Clone(s.data.ExportColExcludes)
	return out
}

// FileDefault returns the log file opened at startup, or "".
func (s *Store) FileDefault() string { return s.data.FileDefault }

// DirDefault returns the directory offered when opening files, or "".
func (s *Store) DirDefault() string { return s.data.DirDefault }

// Theme returns the UI theme name.
func (s *Store) Theme() string { return s.data.Theme }

// LevelColors returns a copy of the severity color map.
func (s *Store) LevelColors() map[string]string { return maps.Clone(s.data.LevelColors) }

// ExportOptions returns the configured export exclusions.
func (s *Store) ExportOptions() logfile.ExportOptions {
	return logfile.ExportOptions{
		ColumnExcludes: slices.Clone(s.data.ExportColExcludes),
		LevelExcludes:  slices.Clone(s.data.ExportLevelExcludes),
	}
}

// SetFileDefault records path as the default log file. A path that does not
// exist is ignored with a warning.
func (s *Store) SetFileDefault(path string) error {
	if !exists(path, false) {
		s.logger.Warn("file does not exist", zap.String("path", path))
		return nil
	}
	s.data.FileDefault = path
	return s.save()
}

// SetDirDefault records path as the default directory. A path that is not an
// existing directory is ignored with a warning.
func (s *Store) SetDirDefault(path string) error {
	if !exists(path, true) {
		s.logger.Warn("directory does not exist", zap.String("path", path))
		return nil
	}
	s.data.DirDefault = path
	return s.save()
}

// SetLevelColors replaces the severity color map. A map missing any level is
// replaced wholesale by DefaultLevelColors.
func (s *Store) SetLevelColors(colors map[string]string) error {
	complete := colors != nil
	for _, lvl := range logfile.Levels {
		if _, ok := colors[lvl]; !ok {
			complete = false
		}
	}
	if complete {
		s.data.LevelColors = maps.Clone(colors)
	} else {
		s.logger.Warn("incomplete level colors, using defaults")
		s.data.LevelColors = DefaultLevelColors()
	}
	return s.save()
}

// SetExportColumnExcludes replaces the columns left out of exports.
func (s *Store) SetExportColumnExcludes(cols []string) error {
	s.data.ExportColExcludes = nonNil(cols)
	return s.save()
}

// SetExportLevelExcludes replaces the levels left out of exports.
func (s *Store) SetExportLevelExcludes(levels []string) error {
	s.data.ExportLevelExcludes = nonNil(levels)
	return s.save()
}

// SetTheme records the UI theme name.
func (s *Store) SetTheme(name string) error {
	if strings.TrimSpace(name) == "" {
		name = defaultTheme
	}
	s.data.Theme = name
	return s.save()
}

// save rewrites the whole settings file. The file is replaced atomically so
// a failed write leaves the previous version intact.
func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	bytes, err := toml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := maybe.WriteFile(s.path, bytes, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}

func exists(path string, wantDir bool) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !wantDir || info.IsDir()
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultSettingsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
