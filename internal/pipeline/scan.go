package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/kyleseven/ReLive-Compress/internal/naming"
	"github.com/kyleseven/ReLive-Compress/internal/timestamp"
)

// Candidate is a capture selected for processing. Timestamp is its
// authoritative time in Unix seconds.
type Candidate struct {
	Path      string
	Name      string
	Timestamp int64
}

// Skipped is a capture whose timestamp could not be resolved.
type Skipped struct {
	Name string
	Err  error
}

// ScanResult is the output of a scan. Worklist keeps directory listing
// order.
type ScanResult struct {
	Worklist []Candidate
	Skipped  []Skipped
	// Seen counts captures with a resolved timestamp, selected or not.
	Seen int
}

// Scanner selects the captures in a directory that are newer than the
// watermark.
type Scanner struct {
	fs         afero.Fs
	resolver   timestamp.Resolver
	ext        string
	tempSuffix string
}

// NewScanner returns a Scanner for files ending in ext, skipping work files
// that carry tempSuffix.
func NewScanner(fs afero.Fs, resolver timestamp.Resolver, ext, tempSuffix string) *Scanner {
	return &Scanner{fs: fs, resolver: resolver, ext: ext, tempSuffix: tempSuffix}
}

// Scan lists dir and returns every regular capture whose timestamp is
// strictly greater than watermark. An unresolvable timestamp is recorded in
// Skipped and the scan continues; a listing failure is returned as an error.
func (s *Scanner) Scan(ctx context.Context, dir string, watermark int64) (ScanResult, error) {
	var res ScanResult

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return res, fmt.Errorf("list %s: %w", dir, err)
	}

	for _, fi := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !fi.Mode().IsRegular() || !naming.IsCapture(fi.Name(), s.tempSuffix, s.ext) {
			continue
		}

		ts, err := s.resolver.Resolve(fi)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Name: fi.Name(), Err: err})
			continue
		}
		res.Seen++
		if ts <= watermark {
			continue
		}
		res.Worklist = append(res.Worklist, Candidate{
			Path:      filepath.Join(dir, fi.Name()),
			Name:      fi.Name(),
			Timestamp: ts,
		})
	}
	return res, nil
}
