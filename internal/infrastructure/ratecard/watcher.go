package ratecard

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"

	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
)

// Watcher re-seeds rate cards when the files under dir change, so ops can
// drop an updated tariff without restarting the service.
type Watcher struct {
	repo ports.RateCardRepository
	dir  string
}

func NewWatcher(repo ports.RateCardRepository, dir string) *Watcher {
	return &Watcher{repo: repo, dir: dir}
}

// Run blocks until ctx is done. Reload failures are logged and the last
// good tariff stays in effect.
func (w *Watcher) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create fs watcher")
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.dir); err != nil {
		return errs.Wrapf(err, "watch rate card dir %q", w.dir)
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "ratecard.watcher"), slog.String("dir", w.dir))
	logging.Info(logCtx, "rate card watcher started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".toml") {
				continue
			}

			if err := Seed(ctx, w.repo, w.dir); err != nil {
				logging.Error(logCtx, "rate card reload failed", slog.Any("err", errs.Loggable(err)))
				continue
			}
			logging.Info(logCtx, "rate cards reloaded", slog.String("trigger", event.Name))
		case watchErr, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn(logCtx, "rate card watcher error", slog.Any("err", errs.Loggable(watchErr)))
		}
	}
}
