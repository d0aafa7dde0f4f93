// Package timestamp derives the authoritative point in time of a capture,
// either from its modification time or from the date encoded in its name.
package timestamp

import (
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata" // Windows hosts often ship without a zoneinfo database.

	"github.com/kyleseven/ReLive-Compress/internal/config"
)

// Resolver returns a capture's timestamp in whole seconds since the epoch.
type Resolver interface {
	Resolve(info fs.FileInfo) (int64, error)
}

// ParseError reports a capture name that does not encode a usable time.
type ParseError struct {
	Name   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot derive timestamp from %q: %s", e.Name, e.Reason)
}

// New returns the resolver selected by cfg.Source.
func New(cfg config.TimestampConfig) (Resolver, error) {
	switch cfg.Source {
	case config.SourceMtime:
		return MtimeResolver{}, nil
	case config.SourceFilename:
		loc, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("load time zone %q: %w", cfg.TimeZone, err)
		}
		return FilenameResolver{Prefix: cfg.Prefix, Location: loc}, nil
	default:
		return nil, fmt.Errorf("unknown timestamp source %q", cfg.Source)
	}
}

// MtimeResolver uses the file's modification time, truncated to seconds.
type MtimeResolver struct{}

func (MtimeResolver) Resolve(info fs.FileInfo) (int64, error) {
	return info.ModTime().Unix(), nil
}

// FilenameResolver parses names like "Replay_2020.04.07-00.03.mp4" as wall
// clock time in Location.
type FilenameResolver struct {
	Prefix   string
	Location *time.Location
}

func (r FilenameResolver) Resolve(info fs.FileInfo) (int64, error) {
	t, err := ParseName(info.Name(), r.Prefix, r.Location)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
