// Package config holds runtime configuration: defaults, layered loading and
// validation. Defaults match a run with no arguments from inside the
// capture directory.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// --- Enum types for validated string fields ---

// TimestampSource selects how a candidate's authoritative time is derived.
type TimestampSource string

const (
	SourceMtime    TimestampSource = "mtime"    // File modification time (default).
	SourceFilename TimestampSource = "filename" // Parse "Replay_YYYY.MM.DD-HH.MM" style names.
)

// WatermarkBackend selects where the watermark is persisted.
type WatermarkBackend string

const (
	BackendFile   WatermarkBackend = "file"   // Decimal value in a hidden file (default).
	BackendSQLite WatermarkBackend = "sqlite" // SQLite database with run history.
)

// Priority is the scheduling priority given to the engine process.
type Priority string

const (
	PriorityNormal      Priority = "normal"
	PriorityBelowNormal Priority = "belownormal"
	PriorityIdle        Priority = "idle"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Default state file names, relative to Dir.
const (
	DefaultWatermarkFile = ".last_compress"
	DefaultSQLiteFile    = ".relive-compress.db"
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// overlaid by [Load] and passed by pointer to the packages that need it.
type Config struct {
	// Target directory containing the captures. Empty means the working directory.
	Dir string `mapstructure:"dir"`
	// Recognized container extension, with leading dot. Default: ".mp4".
	Extension string `mapstructure:"extension"`
	// Suffix inserted before the extension for the engine's temporary output.
	TempSuffix string `mapstructure:"temp_suffix"`

	Timestamp TimestampConfig `mapstructure:"timestamp"`
	Watermark WatermarkConfig `mapstructure:"watermark"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Log       LogConfig       `mapstructure:"log"`

	// Behavior flags.
	AssumeYes      bool `mapstructure:"assume_yes"`      // Skip the first-run confirmation.
	DryRun         bool `mapstructure:"dry_run"`         // List the worklist only.
	ResetWatermark bool `mapstructure:"reset_watermark"` // Remove the stored watermark before loading.
	NoPause        bool `mapstructure:"no_pause"`        // Do not wait for enter before exiting.
	CheckOnly      bool `mapstructure:"check"`           // Run --check diagnostics and exit.

	// ConfigFile is the explicit --config path, if any.
	ConfigFile string `mapstructure:"-"`
}

// TimestampConfig configures the Timestamp Resolver.
type TimestampConfig struct {
	Source   TimestampSource `mapstructure:"source"`
	Prefix   string          `mapstructure:"prefix"`   // Filename policy only. Default: "Replay_".
	TimeZone string          `mapstructure:"timezone"` // Filename policy only. Default: "America/Chicago".
}

// WatermarkConfig configures the Watermark Store.
type WatermarkConfig struct {
	Backend WatermarkBackend `mapstructure:"backend"`
	Path    string           `mapstructure:"path"`   // Relative paths are resolved against Dir.
	Hidden  bool             `mapstructure:"hidden"` // Mark the file hidden where supported.
}

// EngineConfig holds the external engine invocation parameters.
type EngineConfig struct {
	Binary       string        `mapstructure:"binary"`        // Default: "ffmpeg".
	Codec        string        `mapstructure:"codec"`         // Default: "libx265".
	Preset       string        `mapstructure:"preset"`        // Default: "medium".
	Bitrate      string        `mapstructure:"bitrate"`       // Target video bitrate. Default: "8M".
	MaxRate      string        `mapstructure:"maxrate"`       // Default: "10M".
	BufSize      string        `mapstructure:"bufsize"`       // Default: "16M".
	ExtraArgs    []string      `mapstructure:"extra_args"`    // Appended before the output path.
	Timeout      time.Duration `mapstructure:"timeout"`       // 0 disables the per-file timeout.
	Priority     Priority      `mapstructure:"priority"`      // Default: "normal".
	VerifyOutput bool          `mapstructure:"verify_output"` // Check the output container before replacing.
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string    `mapstructure:"level"` // "debug", "info", "warn", "error".
	File  string    `mapstructure:"file"`  // Optional append-mode log file.
	Color ColorMode `mapstructure:"color"`
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// [Load] applies the config file, environment and flags.
func DefaultConfig() Config {
	return Config{
		Dir:        "",
		Extension:  ".mp4",
		TempSuffix: "_temp_out",
		Timestamp: TimestampConfig{
			Source:   SourceMtime,
			Prefix:   "Replay_",
			TimeZone: "America/Chicago",
		},
		Watermark: WatermarkConfig{
			Backend: BackendFile,
			Path:    DefaultWatermarkFile,
			Hidden:  true,
		},
		Engine: EngineConfig{
			Binary:       "ffmpeg",
			Codec:        "libx265",
			Preset:       "medium",
			Bitrate:      "8M",
			MaxRate:      "10M",
			BufSize:      "16M",
			Priority:     PriorityNormal,
			VerifyOutput: true,
		},
		Log: LogConfig{
			Level: "info",
			Color: ColorAuto,
		},
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and required values, and normalizes the
// extension to a lowercase, dot-prefixed form.
func (c *Config) Validate() error {
	switch c.Timestamp.Source {
	case SourceMtime, SourceFilename:
		// valid
	default:
		return fmt.Errorf("invalid timestamp source %q (use 'mtime' or 'filename')", c.Timestamp.Source)
	}

	switch c.Watermark.Backend {
	case BackendFile, BackendSQLite:
		// valid
	default:
		return fmt.Errorf("invalid watermark backend %q (use 'file' or 'sqlite')", c.Watermark.Backend)
	}

	switch c.Engine.Priority {
	case PriorityNormal, PriorityBelowNormal, PriorityIdle:
		// valid
	default:
		return fmt.Errorf("invalid engine priority %q (use 'normal', 'belownormal' or 'idle')", c.Engine.Priority)
	}

	switch c.Log.Color {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.Log.Color)
	}

	ext := strings.ToLower(strings.TrimSpace(c.Extension))
	if ext == "" || ext == "." {
		return errors.New("extension must not be empty")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Extension = ext

	if c.TempSuffix == "" {
		return errors.New("temp_suffix must not be empty")
	}
	if c.Watermark.Path == "" {
		return errors.New("watermark path must not be empty")
	}
	if c.Engine.Binary == "" || c.Engine.Codec == "" {
		return errors.New("engine binary and codec must be set")
	}
	if c.Engine.Timeout < 0 {
		return errors.New("engine timeout must not be negative")
	}

	if c.Timestamp.Source == SourceFilename {
		if _, err := time.LoadLocation(c.Timestamp.TimeZone); err != nil {
			return fmt.Errorf("invalid time zone %q: %w", c.Timestamp.TimeZone, err)
		}
	}
	return nil
}

// WatermarkPath returns the watermark location, resolved against Dir when
// relative. The SQLite backend left on the default file name uses
// DefaultSQLiteFile instead.
func (c *Config) WatermarkPath() string {
	p := c.Watermark.Path
	if c.Watermark.Backend == BackendSQLite && p == DefaultWatermarkFile {
		p = DefaultSQLiteFile
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
