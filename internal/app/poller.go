package app

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/five82/logview/internal/session"
	"github.com/five82/logview/internal/watch"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// fileStamp identifies one version of a file on disk.
type fileStamp struct {
	size    int64
	modTime time.Time
}

// StartPoller launches a background goroutine that stats the open log file at
// a fixed cadence and reports size or mtime changes through w. It covers file
// systems where fsnotify delivers no events. It returns immediately.
func StartPoller(ctx context.Context, sess *session.Session, w *watch.Watcher, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		p := poller{sess: sess, notify: w.Notify, logger: logger}
		for {
			wait := p.check(interval)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
}

type poller struct {
	sess     *session.Session
	notify   func(path string)
	logger   *zap.Logger
	path     string
	last     fileStamp
	failures int
}

// check stats the open file once and returns how long to wait before the
// next check.
func (p *poller) check(interval time.Duration) time.Duration {
	path := p.sess.Path()
	if path == "" {
		return interval
	}
	info, err := os.Stat(path)
	if err != nil {
		p.failures++
		p.logger.Debug("stat log file failed", zap.String("path", path), zap.Int("failures", p.failures), zap.Error(err))
		return calculateBackoff(p.failures, interval)
	}
	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
	if path == p.path && stamp != p.last {
		p.notify(path)
	}
	p.path = path
	p.last = stamp
	p.failures = 0
	return interval
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	backoff := interval
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
