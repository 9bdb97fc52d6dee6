package bastion

import (
	"context"
	"log/slog"
)

// loggerOrDefault resolves the logger at emission time so that a later
// slog.SetDefault is honoured by policies built without WithLogger.
func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}

	return l
}

func errAttr(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}

	return slog.String("error", err.Error())
}

// notice emits the single informational record of a triggered policy.
func notice(ctx context.Context, l *slog.Logger, msg, policy string, attrs ...slog.Attr) {
	attrs = append([]slog.Attr{slog.String("policy", policy)}, attrs...)
	loggerOrDefault(l).LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func debug(ctx context.Context, l *slog.Logger, msg, policy string, attrs ...slog.Attr) {
	attrs = append([]slog.Attr{slog.String("policy", policy)}, attrs...)
	loggerOrDefault(l).LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}
