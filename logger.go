package pgtrigger

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/jackc/pgx/v5/tracelog"
)

// SlogLogger returns a tracelog.Logger which writes to the given structured logger,
// so it can be passed to WithLogger.
func SlogLogger(logger *slog.Logger) tracelog.Logger {
	return tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		attrs := make([]slog.Attr, 0, len(data))
		for _, k := range slices.Sorted(maps.Keys(data)) {
			attrs = append(attrs, slog.Any(k, data[k]))
		}

		logger.LogAttrs(ctx, slogLevel(level), msg, attrs...)
	})
}

func slogLevel(level tracelog.LogLevel) slog.Level {
	switch level {
	case tracelog.LogLevelTrace:
		return slog.LevelDebug - 4
	case tracelog.LogLevelDebug:
		return slog.LevelDebug
	case tracelog.LogLevelInfo:
		return slog.LevelInfo
	case tracelog.LogLevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
