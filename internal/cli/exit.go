package cli

import (
	"errors"

	"github.com/kyleseven/ReLive-Compress/internal/check"
	"github.com/kyleseven/ReLive-Compress/internal/pipeline"
	"github.com/kyleseven/ReLive-Compress/internal/watermark"
)

// Process exit codes. Per-file failures never change the exit code; only
// conditions that stop a run before processing do.
const (
	ExitOK       = 0
	ExitError    = 1 // Configuration, usage or runtime error.
	ExitPlatform = 2 // Unsupported operating system.
	ExitEngine   = 3 // Engine binary not found.
	ExitCorrupt  = 4 // Watermark present but unusable.
	ExitDeclined = 5 // First-run confirmation declined.
)

// errCheckFailed is returned by --check when a required piece is missing.
var errCheckFailed = errors.New("system check failed")

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, check.ErrPlatformUnsupported):
		return ExitPlatform
	case errors.Is(err, check.ErrEngineNotFound):
		return ExitEngine
	case errors.Is(err, watermark.ErrCorrupt):
		return ExitCorrupt
	case errors.Is(err, pipeline.ErrDeclined):
		return ExitDeclined
	default:
		return ExitError
	}
}

// loggedError marks an error already reported through the logger, so
// Execute does not print it a second time.
type loggedError struct{ err error }

func (e loggedError) Error() string { return e.err.Error() }
func (e loggedError) Unwrap() error { return e.err }
