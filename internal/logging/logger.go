// Package logging provides leveled, optionally colored console logging with
// an optional JSON log file, built on zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kyleseven/ReLive-Compress/internal/config"
	"github.com/kyleseven/ReLive-Compress/internal/term"
)

const timeFormat = "2006-01-02 15:04:05"

// Logger provides leveled, printf-style logging with optional file sink.
type Logger struct {
	zl   zerolog.Logger
	file *os.File
}

// NewLogger configures colors from cfg, opens the optional log file in
// append mode and returns a Logger. Call Close() when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	color := term.Configure(cfg.Log.Color)

	var w io.Writer = splitWriter{
		out: consoleWriter(os.Stdout, color),
		err: consoleWriter(os.Stderr, color),
	}

	l := &Logger{}
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		w = zerolog.MultiLevelWriter(w, f)
	}

	l.zl = zerolog.New(w).Level(parseLevel(cfg.Log.Level)).With().Timestamp().Logger()
	return l, nil
}

// New returns a Logger writing uncolored console lines to w. Intended for
// tests and embedding.
func New(w io.Writer, level string) *Logger {
	return &Logger{
		zl: zerolog.New(consoleWriter(w, false)).Level(parseLevel(level)).With().Timestamp().Logger(),
	}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func consoleWriter(out io.Writer, color bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: out, NoColor: !color, TimeFormat: timeFormat}
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// splitWriter sends error-and-above records to err and everything else to out.
type splitWriter struct {
	out io.Writer
	err io.Writer
}

func (s splitWriter) Write(p []byte) (int, error) { return s.out.Write(p) }

func (s splitWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel {
		return s.err.Write(p)
	}
	return s.out.Write(p)
}

// With returns a child Logger that adds key=value to every line. The child
// shares the parent's file; only the parent should be closed.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Success logs at INFO level tagged success=true.
func (l *Logger) Success(format string, args ...interface{}) {
	l.zl.Info().Bool("success", true).Msg(fmt.Sprintf(format, args...))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs at ERROR level, to stderr on the console.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level; dropped unless the configured level is debug.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}
