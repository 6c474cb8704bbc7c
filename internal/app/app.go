package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/logview/internal/logger"
	"github.com/five82/logview/internal/session"
	"github.com/five82/logview/internal/settings"
	"github.com/five82/logview/internal/ui"
	"github.com/five82/logview/internal/watch"
)

// Options configure the logview application.
type Options struct {
	OpenPath     string // log file to open on start; empty uses the saved default
	SettingsPath string // empty uses ~/.config/logview/settings.toml
	LogPath      string // empty uses ~/.local/state/logview/logview.log
	Debug        bool
	PollEvery    int // seconds; zero uses default
}

// Run boots the logview TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	log, closeLog, err := logger.New(logger.Options{Path: opts.LogPath, Debug: opts.Debug})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	store, err := settings.Load(opts.SettingsPath, log)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	log.Info("starting", zap.String("settings", store.Path()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := session.New(log)

	watcher := startChangeDetection(ctx, sess, pollInterval(opts.PollEvery), log)

	err = ui.Run(ui.Options{
		Context:  ctx,
		Session:  sess,
		Settings: store,
		Watcher:  watcher,
		Logger:   log,
		OpenPath: opts.OpenPath,
	})
	log.Info("stopped", zap.Error(err))
	return err
}

// newWatcher is replaced in tests.
var newWatcher = watch.New

// startChangeDetection starts the fsnotify watcher and the stat poller for the
// open file. Without fsnotify the poller alone feeds the returned watcher.
func startChangeDetection(ctx context.Context, sess *session.Session, interval time.Duration, log *zap.Logger) *watch.Watcher {
	watcher, err := newWatcher(log)
	if err != nil {
		log.Warn("fsnotify unavailable, polling only", zap.Error(err))
		watcher = watch.NewPolling(log)
	}
	go watcher.Run(ctx)
	StartPoller(ctx, sess, watcher, interval, log)
	return watcher
}

func pollInterval(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultPollInterval
	}
	return time.Duration(seconds) * time.Second
}
