// Package fixlog implements quickfix.Logger over zerolog, giving every
// session event and wire frame a structured, per-session log line.
package fixlog

import (
	"encoding/hex"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	quickfix "github.com/qyangdu/gofix"
)

// Logger wraps a zerolog.Logger and satisfies quickfix.Logger, tagging
// every event with the session's identity.
type Logger struct {
	zl          zerolog.Logger
	logMessages bool
}

// New builds a Logger writing to w at the given level ("debug", "info",
// "warn", "error"). logMessages controls whether raw wire bytes are
// logged (hex-encoded) alongside OnIncoming/OnOutgoing events; disable
// in production to avoid leaking message content into logs.
func New(w io.Writer, level string, logMessages bool) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger()
	zl = zl.Level(parseLevel(level))
	return &Logger{zl: zl, logMessages: logMessages}
}

// NewDefault builds a Logger writing JSON to stderr at info level.
func NewDefault() *Logger { return New(os.Stderr, "info", false) }

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// OnEvent implements quickfix.Logger.
func (l *Logger) OnEvent(id quickfix.SessionID, text string) {
	l.zl.Info().Str("session", id.String()).Msg(text)
}

// OnIncoming implements quickfix.Logger.
func (l *Logger) OnIncoming(id quickfix.SessionID, raw []byte) {
	ev := l.zl.Debug().Str("session", id.String()).Str("direction", "in")
	if l.logMessages {
		ev = ev.Str("bytes", hex.EncodeToString(raw))
	}
	ev.Msg("message received")
}

// OnOutgoing implements quickfix.Logger.
func (l *Logger) OnOutgoing(id quickfix.SessionID, raw []byte) {
	ev := l.zl.Debug().Str("session", id.String()).Str("direction", "out")
	if l.logMessages {
		ev = ev.Str("bytes", hex.EncodeToString(raw))
	}
	ev.Msg("message sent")
}

// With returns a Logger whose events carry an additional structured field.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger(), logMessages: l.logMessages}
}

// Info logs a process-level message with no session attached, for
// cmd/fixecho and cmd/fixinit's own startup/shutdown/accept-loop events.
func (l *Logger) Info(msg string) { l.zl.Info().Msg(msg) }

// Warn logs a process-level warning, optionally wrapping err.
func (l *Logger) Warn(msg string, err error) { l.zl.Warn().Err(err).Msg(msg) }

// Error logs a process-level error, optionally wrapping err.
func (l *Logger) Error(msg string, err error) { l.zl.Error().Err(err).Msg(msg) }

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
