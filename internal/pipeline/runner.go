package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"

	"github.com/kyleseven/ReLive-Compress/internal/config"
	"github.com/kyleseven/ReLive-Compress/internal/display"
	"github.com/kyleseven/ReLive-Compress/internal/ffmpeg"
	"github.com/kyleseven/ReLive-Compress/internal/logging"
	"github.com/kyleseven/ReLive-Compress/internal/prompt"
	"github.com/kyleseven/ReLive-Compress/internal/timestamp"
	"github.com/kyleseven/ReLive-Compress/internal/watermark"
)

// ErrDeclined is returned when the operator declines the first-run
// confirmation.
var ErrDeclined = errors.New("first-run confirmation declined")

// Phase is the lifecycle state of a run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoaded
	PhaseScanned
	PhaseProcessing
	PhaseFinalized
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoaded:
		return "loaded"
	case PhaseScanned:
		return "scanned"
	case PhaseProcessing:
		return "processing"
	case PhaseFinalized:
		return "finalized"
	case PhaseAborted:
		return "aborted"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Deps are the collaborators of a run.
type Deps struct {
	FS       afero.Fs
	Store    watermark.Store
	Engine   ffmpeg.Engine
	Resolver timestamp.Resolver
	Prompter prompt.Prompter
	Log      *logging.Logger
	// Out receives the worklist of a dry run and the end-of-run summary.
	Out io.Writer
	// RunID identifies the run in the history of stores that keep one.
	RunID string
}

// Result describes a finished or aborted run.
type Result struct {
	Phase       Phase
	Stats       RunStats
	Scan        ScanResult
	Recovery    RecoveryReport
	Outcomes    []Outcome
	Interrupted bool

	// PreviousWatermark is the value loaded at start (0 on a first run).
	PreviousWatermark int64
	// Watermark is the value stored after the run; Advanced reports
	// whether this run wrote it.
	Watermark int64
	Advanced  bool
}

// Run is the top-level batch entry point. It loads the watermark, recovers
// work files, scans cfg.Dir, processes each candidate sequentially and
// advances the watermark. Errors are returned only for conditions that stop
// the run before processing or prevent storing the new watermark; per-file
// failures are reported in the Result.
func Run(ctx context.Context, cfg *config.Config, d Deps) (Result, error) {
	res := Result{Phase: PhaseIdle}
	log := d.Log
	out := d.Out
	if out == nil {
		out = io.Discard
	}
	started := time.Now()

	// --- Load ---
	if cfg.ResetWatermark {
		if cfg.DryRun {
			log.Info("Dry run: keeping the stored watermark (reset skipped)")
		} else {
			if err := d.Store.Reset(ctx); err != nil {
				res.Phase = PhaseAborted
				return res, err
			}
			log.Warn("Watermark reset: %s", d.Store.Location())
		}
	}

	state, err := d.Store.Load(ctx)
	if err != nil {
		res.Phase = PhaseAborted
		return res, fmt.Errorf("load watermark: %w", err)
	}
	res.Phase = PhaseLoaded
	res.PreviousWatermark = state.Value
	res.Watermark = state.Value

	if state.Found {
		log.Info("Last compress: %s", display.FormatWatermark(state.Value))
	} else {
		log.Warn("No watermark at %s: every capture in %s is eligible", d.Store.Location(), dirLabel(cfg.Dir))
		if !cfg.DryRun {
			ok, err := d.Prompter.Confirm(ctx, "This looks like a first run. Compress ALL captures in this directory?")
			if err != nil {
				res.Phase = PhaseAborted
				return res, err
			}
			if !ok {
				res.Phase = PhaseAborted
				return res, ErrDeclined
			}
		}
	}

	// --- Recover and scan ---
	res.Recovery, err = RecoverWorkFiles(d.FS, scanDir(cfg.Dir), cfg.TempSuffix, cfg.Extension, !cfg.DryRun, log)
	if err != nil {
		log.Warn("Work-file recovery skipped: %v", err)
	}

	scanner := NewScanner(d.FS, d.Resolver, cfg.Extension, cfg.TempSuffix)
	res.Scan, err = scanner.Scan(ctx, scanDir(cfg.Dir), state.Value)
	if err != nil {
		res.Phase = PhaseAborted
		return res, fmt.Errorf("scan: %w", err)
	}
	res.Phase = PhaseScanned
	res.Stats.Skipped = len(res.Scan.Skipped)
	for _, s := range res.Scan.Skipped {
		log.Warn("Skipped: %s (%v)", s.Name, s.Err)
	}

	worklist := res.Scan.Worklist
	res.Stats.Total = len(worklist)
	log.Info("Found %d new capture(s) out of %d", len(worklist), res.Scan.Seen)

	if cfg.DryRun {
		names := make([]string, len(worklist))
		for i, c := range worklist {
			names[i] = c.Name
		}
		fmt.Fprintln(out, display.RenderWorklist(names))
		res.Phase = PhaseFinalized
		return res, nil
	}

	if len(worklist) == 0 {
		log.Success("Nothing to do")
		res.Phase = PhaseFinalized
		return res, nil
	}

	// --- Process ---
	res.Phase = PhaseProcessing
	executor := NewExecutor(d.FS, d.Engine, cfg, log)
	done := 0
	for i, c := range worklist {
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		log.Info("[%d/%d] %s", i+1, len(worklist), c.Name)

		o := executor.Process(ctx, c)
		if o.Interrupted {
			res.Interrupted = true
			log.Warn("Interrupted: %s left unchanged", c.Name)
			break
		}
		done++
		res.Outcomes = append(res.Outcomes, o)
		res.Stats.Record(o)
		logOutcome(log, o)
	}

	// --- Finalize ---
	// The final writes must land even when the run was interrupted.
	finalCtx := context.WithoutCancel(ctx)
	next, advance := NextWatermark(state.Value, worklist[:done], worklist[done:])
	res.Phase = PhaseFinalized
	if advance {
		if err := d.Store.Save(finalCtx, next); err != nil {
			printSummary(out, &res)
			return res, fmt.Errorf("store watermark: %w", err)
		}
		res.Watermark = next
		res.Advanced = true
	}
	if res.Interrupted {
		log.Warn("Run interrupted: %d of %d capture(s) not attempted", len(worklist)-done, len(worklist))
	}

	if rec, ok := d.Store.(watermark.RunRecorder); ok {
		err := rec.RecordRun(finalCtx, watermark.RunRecord{
			ID:         d.RunID,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Attempted:  res.Stats.Attempted,
			Failed:     res.Stats.Failed,
			Watermark:  res.Watermark,
		})
		if err != nil {
			log.Warn("Could not record run history: %v", err)
		}
	}

	logSummary(log, &res)
	printSummary(out, &res)
	return res, nil
}

func logOutcome(log *logging.Logger, o Outcome) {
	if !o.Succeeded() {
		if o.ExitCode != 0 {
			log.Error("Failed (exit %d): %s; source left unchanged", o.ExitCode, o.Reason)
		} else {
			log.Error("Failed: %s; source left unchanged", o.Reason)
		}
		return
	}
	log.Success("Compressed in %s (%s -> %s)",
		display.FormatDuration(o.Elapsed), display.FormatBytes(o.OldSize), display.FormatBytes(o.NewSize))
	if o.MetadataWarning != nil {
		log.Warn("Timestamps not fully restored: %v", o.MetadataWarning)
	}
}

func logSummary(log *logging.Logger, res *Result) {
	s := &res.Stats
	log.Info("Done: %d converted, %d failed, %d skipped", s.Converted, s.Failed, s.Skipped)
	if s.TotalInputBytes == 0 {
		return
	}
	saved := s.SpaceSaved()
	if saved >= 0 {
		log.Success("Total space saved: %s, %.1f%% (input %s -> output %s)",
			display.FormatBytes(saved), s.ReductionPercent(),
			display.FormatBytes(s.TotalInputBytes), display.FormatBytes(s.TotalOutputBytes))
	} else {
		log.Warn("Total space saved: -%s (overall output is larger)", display.FormatBytes(-saved))
	}
}

func printSummary(w io.Writer, res *Result) {
	s := &res.Stats
	fmt.Fprintln(w, display.RenderSummary(display.Summary{
		Attempted:      s.Attempted,
		Converted:      s.Converted,
		Failed:         s.Failed,
		Skipped:        s.Skipped,
		TotalElapsed:   s.TotalElapsed,
		AverageElapsed: s.AverageElapsed(),
		OldSize:        s.TotalInputBytes,
		NewSize:        s.TotalOutputBytes,
		Interrupted:    res.Interrupted,
		Watermark:      res.Watermark,
		Advanced:       res.Advanced,
	}))
}

func scanDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func dirLabel(dir string) string {
	if dir == "" {
		return "the current directory"
	}
	return dir
}
