package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/h2non/filetype"
	"github.com/spf13/afero"

	"github.com/kyleseven/ReLive-Compress/internal/config"
	"github.com/kyleseven/ReLive-Compress/internal/ffmpeg"
	"github.com/kyleseven/ReLive-Compress/internal/fileattr"
	"github.com/kyleseven/ReLive-Compress/internal/logging"
	"github.com/kyleseven/ReLive-Compress/internal/naming"
)

// headerSize is the number of leading bytes filetype needs to identify a
// container.
const headerSize = 262

// Status is the classification of one processed candidate.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
)

// Outcome is the result of processing one candidate. Sizes are set on
// success; ExitCode and Reason on failure. Elapsed is set once the engine
// was started. MetadataWarning reports a
// timestamp restoration problem after a successful replacement.
type Outcome struct {
	Candidate Candidate
	Status    Status

	OldSize int64
	NewSize int64
	Elapsed time.Duration

	ExitCode    int
	Reason      string
	Interrupted bool // The run was canceled while this candidate was in progress.

	MetadataWarning error
}

// Succeeded reports whether the candidate was replaced by its transcode.
func (o Outcome) Succeeded() bool { return o.Status == StatusSuccess }

// Executor transcodes one candidate and replaces it in place.
type Executor struct {
	fs         afero.Fs
	engine     ffmpeg.Engine
	tempSuffix string
	verify     bool
	log        *logging.Logger
	now        func() time.Time
}

// NewExecutor returns an Executor writing through fs and transcoding with
// engine.
func NewExecutor(fsys afero.Fs, engine ffmpeg.Engine, cfg *config.Config, log *logging.Logger) *Executor {
	return &Executor{
		fs:         fsys,
		engine:     engine,
		tempSuffix: cfg.TempSuffix,
		verify:     cfg.Engine.VerifyOutput,
		log:        log,
		now:        time.Now,
	}
}

// Process runs the engine on c, writing to the deterministic temp path. On
// success the temp output replaces the original and the candidate's
// timestamp is written to its times. On any failure the temp output is
// removed and the original is left untouched. Elapsed covers the attempt
// whatever its result.
func (e *Executor) Process(ctx context.Context, c Candidate) (out Outcome) {
	out = Outcome{Candidate: c, Status: StatusFailure}

	src, err := e.fs.Stat(c.Path)
	if err != nil {
		out.Reason = fmt.Sprintf("cannot stat source: %v", err)
		return out
	}
	out.OldSize = src.Size()
	start := e.now()
	defer func() { out.Elapsed = e.now().Sub(start) }()

	tmp := naming.TempOutputPath(c.Path, e.tempSuffix)
	res := e.engine.Transcode(ctx, c.Path, tmp)
	if !res.OK() {
		e.removeTemp(tmp)
		out.ExitCode = res.ExitCode
		out.Reason = res.Reason()
		out.Interrupted = res.Canceled
		if res.Stderr != "" {
			e.log.Debug("engine stderr for %s:\n%s", c.Name, res.Stderr)
		}
		return out
	}

	if e.verify {
		if err := e.verifyOutput(tmp); err != nil {
			e.removeTemp(tmp)
			out.Reason = fmt.Sprintf("invalid output: %v", err)
			return out
		}
	}

	dst, err := e.fs.Stat(tmp)
	if err != nil {
		e.removeTemp(tmp)
		out.Reason = fmt.Sprintf("cannot stat output: %v", err)
		return out
	}

	if err := e.replace(tmp, c.Path); err != nil {
		out.Reason = err.Error()
		return out
	}

	out.Status = StatusSuccess
	out.NewSize = dst.Size()
	if err := fileattr.RestoreTimes(e.fs, c.Path, time.Unix(c.Timestamp, 0)); err != nil {
		out.MetadataWarning = err
	}
	return out
}

// verifyOutput checks that path starts with the magic bytes of a video
// container.
func (e *Executor) verifyOutput(path string) error {
	f, err := e.fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, headerSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if n == 0 {
		return errors.New("empty file")
	}
	if !filetype.IsVideo(head[:n]) {
		return errors.New("not a recognized video container")
	}
	return nil
}

// replace moves tmp over orig. When the platform refuses to rename over an
// existing file, orig is deleted first. If that delete succeeds but the
// rename still fails, tmp is kept so work-file recovery can restore it.
func (e *Executor) replace(tmp, orig string) error {
	renameErr := e.fs.Rename(tmp, orig)
	if renameErr == nil {
		return nil
	}
	e.log.Debug("rename over %s failed (%v), removing original first", orig, renameErr)

	if err := e.fs.Remove(orig); err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.removeTemp(tmp)
		return fmt.Errorf("replace original: %w", errors.Join(renameErr, err))
	}
	if err := e.fs.Rename(tmp, orig); err != nil {
		return fmt.Errorf("replace original (output kept as %s): %w", tmp, err)
	}
	return nil
}

func (e *Executor) removeTemp(path string) {
	if err := e.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.log.Warn("Could not remove temp output %s: %v", path, err)
	}
}
