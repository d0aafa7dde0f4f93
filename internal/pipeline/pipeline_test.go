package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/kyleseven/ReLive-Compress/internal/config"
	"github.com/kyleseven/ReLive-Compress/internal/ffmpeg"
	"github.com/kyleseven/ReLive-Compress/internal/logging"
	"github.com/kyleseven/ReLive-Compress/internal/prompt"
	"github.com/kyleseven/ReLive-Compress/internal/timestamp"
	"github.com/kyleseven/ReLive-Compress/internal/watermark"
)

type harness struct {
	cfg    config.Config
	fs     afero.Fs
	store  *watermark.FileStore
	engine *fakeEngine
	answer bool
	out    bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(captureDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Dir = captureDir
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return &harness{
		cfg:    cfg,
		fs:     fs,
		store:  watermark.NewFileStore(fs, cfg.WatermarkPath(), false),
		engine: newFakeEngine(fs),
		answer: true,
	}
}

func (h *harness) setWatermark(t *testing.T, v int64) {
	t.Helper()
	if err := h.store.Save(context.Background(), v); err != nil {
		t.Fatal(err)
	}
}

func (h *harness) watermark(t *testing.T) watermark.State {
	t.Helper()
	st, err := h.store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func (h *harness) run(ctx context.Context) (Result, error) {
	h.out.Reset()
	return Run(ctx, &h.cfg, Deps{
		FS:       h.fs,
		Store:    h.store,
		Engine:   h.engine,
		Resolver: timestamp.MtimeResolver{},
		Prompter: prompt.Auto{Answer: h.answer},
		Log:      logging.Nop(),
		Out:      &h.out,
		RunID:    "test-run",
	})
}

// First run, operator declines: nothing changes.
func TestRun_FirstRunDeclined(t *testing.T) {
	h := newHarness(t)
	h.answer = false
	path := addCapture(t, h.fs, "a.mp4", 1500, "source")

	res, err := h.run(context.Background())
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("Run() error = %v, want ErrDeclined", err)
	}
	if res.Phase != PhaseAborted {
		t.Errorf("Phase = %v, want aborted", res.Phase)
	}
	if len(h.engine.calls) != 0 {
		t.Errorf("engine called: %v", h.engine.calls)
	}
	if h.watermark(t).Found {
		t.Error("watermark written after decline")
	}
	if got := readFile(t, h.fs, path); got != "source" {
		t.Errorf("file modified: %q", got)
	}
}

// W=1000 with mtimes 500/1500/2000: two files processed, W becomes 2000.
func TestRun_ProcessesOnlyNewerCaptures(t *testing.T) {
	h := newHarness(t)
	h.setWatermark(t, 1000)
	addCapture(t, h.fs, "old.mp4", 500, "old")
	mid := addCapture(t, h.fs, "mid.mp4", 1500, "mid source")
	addCapture(t, h.fs, "new.mp4", 2000, "new source")

	res, err := h.run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Phase != PhaseFinalized {
		t.Errorf("Phase = %v", res.Phase)
	}
	if !slices.Equal(h.engine.calls, []string{"mid.mp4", "new.mp4"}) {
		t.Errorf("engine calls = %v", h.engine.calls)
	}
	if res.Stats.Converted != 2 || res.Stats.Failed != 0 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if st := h.watermark(t); st.Value != 2000 || !res.Advanced || res.Watermark != 2000 {
		t.Errorf("watermark = %+v, result %d advanced=%v", st, res.Watermark, res.Advanced)
	}
	if got := readFile(t, h.fs, captureDir+"/old.mp4"); got != "old" {
		t.Error("capture below the watermark was modified")
	}
	// Timestamps survive the replacement.
	if got := mtimeOf(t, h.fs, mid); got != 1500 {
		t.Errorf("mid.mp4 mtime = %d, want 1500", got)
	}
	if !strings.Contains(h.out.String(), "2 of 2") {
		t.Errorf("summary missing counts:\n%s", h.out.String())
	}
}

// A failing capture is isolated and still moves the watermark.
func TestRun_PartialFailure(t *testing.T) {
	h := newHarness(t)
	h.setWatermark(t, 1000)
	bad := addCapture(t, h.fs, "a.mp4", 3000, "bad source")
	addCapture(t, h.fs, "b.mp4", 2000, "good source")
	h.engine.fail["a.mp4"] = 1

	res, err := h.run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stats.Attempted != 2 || res.Stats.Converted != 1 || res.Stats.Failed != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if got := readFile(t, h.fs, bad); got != "bad source" {
		t.Errorf("failed source modified: %q", got)
	}
	if got := mtimeOf(t, h.fs, bad); got != 3000 {
		t.Errorf("failed source mtime = %d", got)
	}
	if ok, _ := afero.Exists(h.fs, captureDir+"/a_temp_out.mp4"); ok {
		t.Error("temp output of failed capture left behind")
	}
	if got := h.watermark(t).Value; got != 3000 {
		t.Errorf("watermark = %d, want 3000 (failures included)", got)
	}
	if len(res.Outcomes) != 2 || res.Outcomes[0].Succeeded() || !res.Outcomes[1].Succeeded() {
		t.Errorf("outcomes = %+v", res.Outcomes)
	}
}

// Running again immediately finds nothing to do.
func TestRun_Idempotent(t *testing.T) {
	h := newHarness(t)
	addCapture(t, h.fs, "a.mp4", 1500, "a")
	addCapture(t, h.fs, "b.mp4", 2500, "b")

	if _, err := h.run(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := h.watermark(t)
	h.engine.calls = nil

	res, err := h.run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(h.engine.calls) != 0 || len(res.Scan.Worklist) != 0 {
		t.Errorf("second run processed %v", h.engine.calls)
	}
	if res.Advanced {
		t.Error("second run should not write the watermark")
	}
	if h.watermark(t) != first {
		t.Errorf("watermark changed from %+v to %+v", first, h.watermark(t))
	}
}

func TestRun_EmptyWorklistDoesNotWrite(t *testing.T) {
	h := newHarness(t)
	h.setWatermark(t, 5000)
	addCapture(t, h.fs, "a.mp4", 100, "a")
	before := mtimeOf(t, h.fs, h.cfg.WatermarkPath())

	res, err := h.run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Advanced || res.Phase != PhaseFinalized {
		t.Errorf("result = %+v", res)
	}
	if mtimeOf(t, h.fs, h.cfg.WatermarkPath()) != before {
		t.Error("watermark file rewritten with nothing to do")
	}
}

func TestRun_CorruptWatermarkAborts(t *testing.T) {
	h := newHarness(t)
	if err := afero.WriteFile(h.fs, h.cfg.WatermarkPath(), []byte("not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	addCapture(t, h.fs, "a.mp4", 1500, "a")

	res, err := h.run(context.Background())
	if !errors.Is(err, watermark.ErrCorrupt) {
		t.Fatalf("Run() error = %v, want ErrCorrupt", err)
	}
	if res.Phase != PhaseAborted || len(h.engine.calls) != 0 {
		t.Errorf("phase %v, calls %v", res.Phase, h.engine.calls)
	}
	if got := readFile(t, h.fs, h.cfg.WatermarkPath()); got != "not a number" {
		t.Error("corrupt watermark was overwritten")
	}
}

func TestRun_ResetWatermark(t *testing.T) {
	h := newHarness(t)
	h.setWatermark(t, 5000)
	addCapture(t, h.fs, "a.mp4", 1500, "a")
	h.cfg.ResetWatermark = true

	if _, err := h.run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(h.engine.calls, []string{"a.mp4"}) {
		t.Errorf("engine calls = %v", h.engine.calls)
	}
	if got := h.watermark(t).Value; got != 1500 {
		t.Errorf("watermark = %d, want 1500", got)
	}
}

func TestRun_DryRun(t *testing.T) {
	h := newHarness(t)
	h.answer = false
	h.cfg.DryRun = true
	addCapture(t, h.fs, "a.mp4", 1500, "a")
	addCapture(t, h.fs, "b.mp4", 2500, "b")
	addCapture(t, h.fs, "b_temp_out.mp4", 2500, "partial")

	res, err := h.run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.engine.calls) != 0 {
		t.Errorf("dry run called the engine: %v", h.engine.calls)
	}
	if h.watermark(t).Found {
		t.Error("dry run wrote the watermark")
	}
	if ok, _ := afero.Exists(h.fs, captureDir+"/b_temp_out.mp4"); !ok {
		t.Error("dry run removed a work file")
	}
	if len(res.Recovery.Removed) != 1 {
		t.Errorf("recovery report = %+v", res.Recovery)
	}
	if out := h.out.String(); !strings.Contains(out, "a.mp4") || !strings.Contains(out, "b.mp4") {
		t.Errorf("worklist output:\n%s", out)
	}
}

func TestRun_RecoversWorkFilesBeforeScan(t *testing.T) {
	h := newHarness(t)
	h.setWatermark(t, 1000)
	addCapture(t, h.fs, "a_temp_out.mp4", 1500, "finished output")

	res, err := h.run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Recovery.Restored) != 1 {
		t.Fatalf("recovery = %+v", res.Recovery)
	}
	// The restored capture is newer than the watermark, so it is processed.
	if !slices.Equal(h.engine.calls, []string{"a.mp4"}) {
		t.Errorf("engine calls = %v", h.engine.calls)
	}
}

// Cancellation stops the loop; attempted captures still move the watermark
// but the interrupted one stays eligible.
func TestRun_Interrupted(t *testing.T) {
	h := newHarness(t)
	h.setWatermark(t, 1000)
	addCapture(t, h.fs, "a.mp4", 1500, "a")
	b := addCapture(t, h.fs, "b.mp4", 2500, "b source")
	addCapture(t, h.fs, "c.mp4", 3500, "c")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.engine.hook = func(ctx context.Context, name string) (ffmpeg.Result, bool) {
		if name != "b.mp4" {
			return ffmpeg.Result{}, false
		}
		cancel()
		return ffmpeg.Result{ExitCode: ffmpeg.ExitCanceled, Canceled: true, Err: ctx.Err()}, true
	}

	res, err := h.run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Interrupted {
		t.Error("Interrupted = false")
	}
	if !slices.Equal(h.engine.calls, []string{"a.mp4", "b.mp4"}) {
		t.Errorf("engine calls = %v", h.engine.calls)
	}
	if res.Stats.Attempted != 1 {
		t.Errorf("Attempted = %d, want 1", res.Stats.Attempted)
	}
	if got := readFile(t, h.fs, b); got != "b source" {
		t.Errorf("interrupted source modified: %q", got)
	}
	if got := h.watermark(t).Value; got != 1500 {
		t.Errorf("watermark = %d, want 1500", got)
	}

	// The next run picks up where this one stopped.
	h.engine.hook = nil
	h.engine.calls = nil
	if _, err := h.run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(h.engine.calls, []string{"b.mp4", "c.mp4"}) {
		t.Errorf("resumed engine calls = %v", h.engine.calls)
	}
	if got := h.watermark(t).Value; got != 3500 {
		t.Errorf("watermark = %d, want 3500", got)
	}
}

func TestRun_RecordsHistory(t *testing.T) {
	h := newHarness(t)
	addCapture(t, h.fs, "a.mp4", 1500, "a")

	store, err := watermark.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"), false)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = Run(context.Background(), &h.cfg, Deps{
		FS:       h.fs,
		Store:    store,
		Engine:   h.engine,
		Resolver: timestamp.MtimeResolver{},
		Prompter: prompt.Auto{Answer: true},
		Log:      logging.Nop(),
		RunID:    "run-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	runs, err := store.Runs(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" || runs[0].Attempted != 1 || runs[0].Watermark != 1500 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestPhase_String(t *testing.T) {
	for p, want := range map[Phase]string{
		PhaseIdle: "idle", PhaseLoaded: "loaded", PhaseScanned: "scanned",
		PhaseProcessing: "processing", PhaseFinalized: "finalized", PhaseAborted: "aborted",
	} {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}

// --- Integration test with a real engine ---

func TestRunWithFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "Replay_2020.04.07-00.03.mp4")
	gen := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=320x240:rate=24",
		"-c:v", "mpeg4", "-pix_fmt", "yuv420p",
		"-y", path,
	)
	gen.Stderr = os.Stderr
	if err := gen.Run(); err != nil {
		t.Skipf("cannot generate a sample capture: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Dir = dir
	cfg.Timestamp.Source = config.SourceFilename
	cfg.Engine.Codec = "mpeg4"
	cfg.Engine.Preset = ""
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	resolver, err := timestamp.New(cfg.Timestamp)
	if err != nil {
		t.Fatal(err)
	}

	fs := afero.NewOsFs()
	log := logging.Nop()
	store := watermark.NewFileStore(fs, cfg.WatermarkPath(), true)
	res, err := Run(context.Background(), &cfg, Deps{
		FS:       fs,
		Store:    store,
		Engine:   ffmpeg.NewRunner(cfg.Engine, log),
		Resolver: resolver,
		Prompter: prompt.Auto{Answer: true},
		Log:      log,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stats.Converted != 1 {
		t.Fatalf("outcomes = %+v", res.Outcomes)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := fi.ModTime().Unix(); got != 1586235780 {
		t.Errorf("mtime = %d, want 1586235780", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "Replay_2020.04.07-00.03_temp_out.mp4")); !errors.Is(err, os.ErrNotExist) {
		t.Error("temp output left behind")
	}
	st, err := store.Load(context.Background())
	if err != nil || st.Value != 1586235780 {
		t.Errorf("watermark = %+v, %v", st, err)
	}
}
