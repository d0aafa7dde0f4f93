// Package term resolves the color mode and detects terminals.
//
// Color state is package-level because logging, display and prompt all
// need it. [Configure] sets it once during startup.
package term

import (
	"os"
	"strings"

	"github.com/kyleseven/ReLive-Compress/internal/config"
)

var enabled bool

// Configure resolves the color mode and records whether colors are on.
// Call once during startup (from [logging.NewLogger]).
func Configure(mode config.ColorMode) bool {
	enabled = resolve(mode)
	return enabled
}

// Enabled reports whether ANSI colors are currently active.
func Enabled() bool { return enabled }

// resolve determines whether colors should be enabled based on the configured
// mode, TTY detection, and the NO_COLOR env var (https://no-color.org).
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is attached to a TTY (character device).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
