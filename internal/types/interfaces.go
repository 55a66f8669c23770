package types

import (
	"log/slog"
	"time"
)

// Logger defines the structured logging interface used throughout the relay.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// slogLogger adapts *slog.Logger to the Logger interface. slog.Logger
// satisfies Info/Warn/Error directly, but its With returns *slog.Logger
// rather than Logger, so an adapter is necessary.
type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps a *slog.Logger as a Logger.
func NewSlogLogger(logger *slog.Logger) Logger {
	return &slogLogger{logger: logger}
}

func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Sleeper abstracts the rate-limit backoff sleep so retry loops are
// deterministic under test.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper implements Sleeper with time.Sleep.
type RealSleeper struct{}

// Sleep blocks for the given duration.
func (RealSleeper) Sleep(d time.Duration) { time.Sleep(d) }
