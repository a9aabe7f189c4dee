package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// The logger and its accumulated attributes travel in the context, so
// request-scoped fields (request id, component, survey id) follow the
// call chain without threading a logger parameter everywhere.

type loggerKey struct{}
type attrsKey struct{}

var (
	fallback     *slog.Logger
	fallbackOnce sync.Once
)

func fallbackLogger() *slog.Logger {
	fallbackOnce.Do(func() {
		fallback = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	})
	return fallback
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithAttrs returns a context whose log calls carry attrs in addition to
// anything already attached. A repeated key overrides the earlier value.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(attrs) == 0 {
		return ctx
	}
	return context.WithValue(ctx, attrsKey{}, merge(Attrs(ctx), attrs))
}

func Logger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return fallbackLogger()
}

// Attrs returns a copy of the attributes attached to ctx.
func Attrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	if len(attrs) == 0 {
		return nil
	}
	return append([]slog.Attr(nil), attrs...)
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelInfo, msg, attrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelWarn, msg, attrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelError, msg, attrs)
}

func emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	Logger(ctx).LogAttrs(ctx, level, msg, merge(Attrs(ctx), attrs)...)
}

// merge appends extra onto base, replacing in place when a key repeats.
func merge(base []slog.Attr, extra []slog.Attr) []slog.Attr {
	if len(base) == 0 {
		return append([]slog.Attr(nil), extra...)
	}
	if len(extra) == 0 {
		return append([]slog.Attr(nil), base...)
	}

	out := append([]slog.Attr(nil), base...)
	position := make(map[string]int, len(out))
	for i, attr := range out {
		if attr.Key != "" {
			position[attr.Key] = i
		}
	}

	for _, attr := range extra {
		if attr.Key != "" {
			if i, ok := position[attr.Key]; ok {
				out[i] = attr
				continue
			}
			position[attr.Key] = len(out)
		}
		out = append(out, attr)
	}
	return out
}
