package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/kyleseven/ReLive-Compress/internal/config"
	"github.com/kyleseven/ReLive-Compress/internal/logging"
)

// Internal exit codes for runs that did not produce an engine exit status.
const (
	ExitCanceled    = -1
	ExitTimedOut    = -2
	ExitLaunchError = -3
)

// Result holds the outcome of a single engine invocation.
type Result struct {
	ExitCode int
	Stderr   string
	Err      error
	TimedOut bool
	Canceled bool
}

// OK reports whether the engine exited with status 0.
func (r Result) OK() bool { return r.Err == nil && r.ExitCode == 0 }

// Reason returns a short human-readable description of a failed run.
func (r Result) Reason() string {
	switch {
	case r.OK():
		return ""
	case r.Canceled:
		return "interrupted"
	case r.TimedOut:
		return "timed out"
	case r.ExitCode == ExitLaunchError:
		return r.Err.Error()
	}
	if reason := Classify(r.Stderr); reason != "" {
		return reason
	}
	return fmt.Sprintf("exit code %d", r.ExitCode)
}

// Engine transcodes one input file into output.
type Engine interface {
	Transcode(ctx context.Context, input, output string) Result
}

// Runner is the Engine backed by an ffmpeg subprocess.
type Runner struct {
	cfg config.EngineConfig
	log *logging.Logger
	// Tee, when set, receives the engine's stderr as it is produced.
	Tee io.Writer
}

// NewRunner returns a Runner for cfg. log receives priority warnings and
// debug output.
func NewRunner(cfg config.EngineConfig, log *logging.Logger) *Runner {
	return &Runner{cfg: cfg, log: log}
}

// Transcode runs the engine and waits for it. A positive engine timeout
// bounds the run; cancellation of ctx kills the process.
func (r *Runner) Transcode(ctx context.Context, input, output string) Result {
	runCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	args := Build(&r.cfg, input, output)
	r.log.Debug("engine: %q", args)

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.WaitDelay = 5 * time.Second

	stderrBuf := &tailBuffer{max: stderrTailSize}
	if r.Tee != nil {
		cmd.Stderr = io.MultiWriter(stderrBuf, r.Tee)
	} else {
		cmd.Stderr = stderrBuf
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: ExitLaunchError, Err: fmt.Errorf("start %s: %w", args[0], err)}
	}
	if r.cfg.Priority != config.PriorityNormal && r.cfg.Priority != "" {
		if err := setPriority(cmd.Process.Pid, r.cfg.Priority); err != nil {
			r.log.Warn("could not set engine priority to %s: %v", r.cfg.Priority, err)
		}
	}

	err := cmd.Wait()
	res := Result{Stderr: stderrBuf.String()}

	switch {
	case ctx.Err() != nil:
		res.Canceled = true
		res.ExitCode = ExitCanceled
		res.Err = ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.TimedOut = true
		res.ExitCode = ExitTimedOut
		res.Err = fmt.Errorf("engine timed out after %s", r.cfg.Timeout)
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			res.Err = fmt.Errorf("engine exited with code %d", res.ExitCode)
		} else {
			res.ExitCode = ExitLaunchError
			res.Err = err
		}
	}
	return res
}

// stderrTailSize bounds the stderr kept per engine run.
const stderrTailSize = 16 << 10

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf     []byte
	max     int
	dropped bool
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.dropped = true
	}
	return len(p), nil
}

// String returns the kept bytes. Once output was dropped the first, cut
// line is skipped.
func (t *tailBuffer) String() string {
	b := t.buf
	if t.dropped {
		if i := bytes.IndexByte(b, '\n'); i >= 0 {
			b = b[i+1:]
		}
	}
	return string(b)
}
