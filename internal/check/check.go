// Package check provides system diagnostics (--check mode) and pre-pipeline
// validation of the platform and the external engine.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"slices"

	"github.com/kyleseven/ReLive-Compress/internal/config"
	"github.com/kyleseven/ReLive-Compress/internal/display"
	"github.com/kyleseven/ReLive-Compress/internal/ffmpeg"
	"github.com/kyleseven/ReLive-Compress/internal/watermark"
)

// Sentinel errors returned by the pre-flight checks.
var (
	ErrPlatformUnsupported = errors.New("unsupported platform")
	ErrEngineNotFound      = errors.New("engine not found on PATH")
)

// SupportedPlatforms lists the GOOS values the tool is built and tested for.
var SupportedPlatforms = []string{"windows", "linux", "darwin"}

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains testable with a recording logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// CheckPlatform returns ErrPlatformUnsupported unless goos is supported.
func CheckPlatform(goos string) error {
	if !slices.Contains(SupportedPlatforms, goos) {
		return fmt.Errorf("%w: %s", ErrPlatformUnsupported, goos)
	}
	return nil
}

// CheckDeps is the pre-pipeline validation: the platform must be supported
// and the configured engine binary must resolve on PATH.
func CheckDeps(cfg *config.Config) error {
	if err := CheckPlatform(runtime.GOOS); err != nil {
		return err
	}
	if _, err := exec.LookPath(cfg.Engine.Binary); err != nil {
		return fmt.Errorf("%w: %s", ErrEngineNotFound, cfg.Engine.Binary)
	}
	return nil
}

// RunCheck runs the --check flow: platform, engine location and version,
// availability of the configured encoder, and the stored watermark. It
// returns false when a required piece is missing. A corrupt watermark counts
// as missing since a normal run would refuse to start.
func RunCheck(ctx context.Context, cfg *config.Config, store watermark.Store, log Logger) bool {
	ok := true
	log.Info("=== System Check ===")

	if err := CheckPlatform(runtime.GOOS); err != nil {
		log.Error("Platform: %v", err)
		ok = false
	} else {
		log.Success("Platform: %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	if !checkEngine(ctx, cfg, log) {
		ok = false
	}

	if store == nil {
		return ok
	}
	st, err := store.Load(ctx)
	switch {
	case errors.Is(err, watermark.ErrCorrupt):
		log.Error("Watermark: %v", err)
		ok = false
	case err != nil:
		log.Error("Watermark: cannot read %s: %v", store.Location(), err)
		ok = false
	case !st.Found:
		log.Warn("Watermark: none at %s (next run processes every capture)", store.Location())
	default:
		log.Success("Watermark: %s at %s", display.FormatWatermark(st.Value), store.Location())
	}
	return ok
}

// checkEngine verifies the engine is on PATH, logs its version string and
// looks for the configured encoder.
func checkEngine(ctx context.Context, cfg *config.Config, log Logger) bool {
	path, err := exec.LookPath(cfg.Engine.Binary)
	if err != nil {
		log.Error("Engine: %s not found", cfg.Engine.Binary)
		return false
	}
	version, err := ffmpeg.Version(ctx, path)
	if err != nil {
		log.Warn("Engine: %s found but -version failed: %v", path, err)
	} else {
		log.Success("Engine: %s", version)
	}

	has, err := ffmpeg.HasEncoder(ctx, path, cfg.Engine.Codec)
	switch {
	case err != nil:
		log.Warn("Encoder: could not list encoders: %v", err)
	case has:
		log.Success("Encoder: %s available", cfg.Engine.Codec)
	default:
		log.Error("Encoder: %s not available in this build", cfg.Engine.Codec)
		return false
	}
	return true
}
