// Package logger builds the zap logger logview writes its own diagnostics to.
//
// The terminal belongs to the UI, so records go to a file only. Records are
// JSON lines keyed asctime/levelname/message/process, which makes the
// diagnostic log loadable by logview itself.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogPath = "~/.local/state/logview/logview.log"

// Options configure the diagnostic logger.
type Options struct {
	Path  string // empty uses ~/.local/state/logview/logview.log
	Debug bool
}

// DefaultPath returns the default diagnostic log path.
func DefaultPath() string {
	return defaultLogPath
}

// New opens (or creates) the log file and returns a logger writing to it.
// The returned close function flushes and closes the file.
func New(opts Options) (*zap.Logger, func(), error) {
	path, err := expandPath(opts.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	logger := zap.New(
		zapcore.NewCore(zapcore.NewJSONEncoder(EncoderConfig()), zapcore.AddSync(f), level),
		zap.AddCaller(),
		zap.Fields(zap.Int("process", os.Getpid())),
	)
	closeFn := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, closeFn, nil
}

// EncoderConfig returns the encoder settings for diagnostic records.
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "asctime",
		LevelKey:       "levelname",
		NameKey:        "name",
		CallerKey:      "module",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeLevel,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// encodeLevel maps zap levels onto the four levels logview understands.
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch {
	case l <= zapcore.DebugLevel:
		enc.AppendString("DEBUG")
	case l == zapcore.InfoLevel:
		enc.AppendString("INFO")
	case l == zapcore.WarnLevel:
		enc.AppendString("WARNING")
	default:
		enc.AppendString("ERROR")
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		trimmed = defaultLogPath
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
