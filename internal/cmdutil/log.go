// internal/cmdutil/log.go
package cmdutil

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Level orders log messages; a logger prints messages at or below its level.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{"error", "warn", "info", "debug"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts the PCON_LOG values error, warn, info and debug.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range levelNames {
		if s == n {
			return Level(i), nil
		}
	}
	if s == "warning" {
		return LevelWarn, nil
	}
	return LevelWarn, errors.Newf("unknown log level %q", s)
}

// LevelFor maps repeated -v flags to a level. Without -v the env value
// (PCON_LOG) decides, and warnings are shown by default.
func LevelFor(verbosity int, env string) (Level, error) {
	switch {
	case verbosity >= 2:
		return LevelDebug, nil
	case verbosity == 1:
		return LevelInfo, nil
	case env != "":
		return ParseLevel(env)
	default:
		return LevelWarn, nil
	}
}

// Logger is the leveled logger handed to the counting and analysis code.
type Logger interface {
	Errorf(format string, a ...any)
	Warnf(format string, a ...any)
	Infof(format string, a ...any)
	Debugf(format string, a ...any)
}

// WriterLogger writes one prefixed line per message to an io.Writer.
type WriterLogger struct {
	mu    sync.Mutex
	dst   io.Writer
	level Level
	quiet bool
}

var _ Logger = (*WriterLogger)(nil)

// NewLogger returns a logger writing to dst. A quiet logger only prints
// errors.
func NewLogger(dst io.Writer, level Level, quiet bool) *WriterLogger {
	return &WriterLogger{dst: dst, level: level, quiet: quiet}
}

// Enabled reports whether messages at lvl are printed.
func (l *WriterLogger) Enabled(lvl Level) bool {
	if l.quiet {
		return lvl == LevelError
	}
	return lvl <= l.level
}

func (l *WriterLogger) Errorf(format string, a ...any) { l.logf(LevelError, "ERROR: ", format, a) }
func (l *WriterLogger) Warnf(format string, a ...any)  { l.logf(LevelWarn, "WARN: ", format, a) }
func (l *WriterLogger) Infof(format string, a ...any)  { l.logf(LevelInfo, "INFO: ", format, a) }
func (l *WriterLogger) Debugf(format string, a ...any) { l.logf(LevelDebug, "DEBUG: ", format, a) }

func (l *WriterLogger) logf(lvl Level, prefix, format string, a []any) {
	if !l.Enabled(lvl) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.dst, prefix+format+"\n", a...)
}

type nopLogger struct{}

func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}

// Nop discards every message.
var Nop Logger = nopLogger{}
