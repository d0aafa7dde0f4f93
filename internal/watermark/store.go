// Package watermark persists the boundary timestamp between runs. A
// candidate is eligible for processing only when its timestamp is strictly
// greater than the stored watermark.
package watermark

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/kyleseven/ReLive-Compress/internal/config"
)

var (
	// ErrCorrupt means a watermark is present but cannot be used. The
	// operator must repair or reset it; it is never silently replaced.
	ErrCorrupt = errors.New("corrupt watermark")
	// ErrRegression means Save was asked to move the watermark backwards.
	ErrRegression = errors.New("watermark regression")
)

// State is the result of Load. Found is false on the first run, in which
// case Value is 0.
type State struct {
	Value int64
	Found bool
}

// Store reads and writes the watermark.
type Store interface {
	Load(ctx context.Context) (State, error)
	// Save stores v. It fails with ErrRegression when v is lower than the
	// value already stored.
	Save(ctx context.Context, v int64) error
	// Reset removes the stored value so the next Load reports a first run.
	Reset(ctx context.Context) error
	// Location describes where the value lives, for logs and diagnostics.
	Location() string
	Close() error
}

// RunRecord is one finished run, kept by stores that track history.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Attempted  int
	Failed     int
	Watermark  int64
}

// RunRecorder is implemented by stores that keep a run history.
type RunRecorder interface {
	RecordRun(ctx context.Context, r RunRecord) error
}

// Open returns the store selected by cfg.Watermark.Backend. The file backend
// operates on fs; the SQLite backend always uses the OS filesystem.
func Open(ctx context.Context, cfg *config.Config, fs afero.Fs) (Store, error) {
	path := cfg.WatermarkPath()
	switch cfg.Watermark.Backend {
	case config.BackendFile:
		return NewFileStore(fs, path, cfg.Watermark.Hidden), nil
	case config.BackendSQLite:
		return OpenSQLite(ctx, path, cfg.Watermark.Hidden)
	default:
		return nil, fmt.Errorf("unknown watermark backend %q", cfg.Watermark.Backend)
	}
}

// parseValue decodes a stored watermark. Surrounding whitespace is ignored;
// anything other than a non-negative base-10 integer is ErrCorrupt.
func parseValue(where, raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s contains %q", ErrCorrupt, where, raw)
	}
	return v, nil
}

func checkRegression(where string, current State, v int64) error {
	if v < 0 {
		return fmt.Errorf("watermark %d is negative", v)
	}
	if current.Found && v < current.Value {
		return fmt.Errorf("%w: %s holds %d, refusing to store %d", ErrRegression, where, current.Value, v)
	}
	return nil
}
