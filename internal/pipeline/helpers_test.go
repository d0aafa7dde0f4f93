package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/kyleseven/ReLive-Compress/internal/ffmpeg"
)

const captureDir = "/captures"

// mp4Output is the head of a minimal MP4 file, enough for container sniffing.
var mp4Output = append([]byte("\x00\x00\x00\x20ftypisom\x00\x00\x02\x00isomiso2avc1mp41"), make([]byte, 64)...)

// addCapture writes a capture with the given content and modification time.
func addCapture(t *testing.T, fs afero.Fs, name string, mtime int64, content string) string {
	t.Helper()
	path := filepath.Join(captureDir, name)
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	ts := time.Unix(mtime, 0)
	if err := fs.Chtimes(path, ts, ts); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func mtimeOf(t *testing.T, fs afero.Fs, path string) int64 {
	t.Helper()
	fi, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return fi.ModTime().Unix()
}

// fakeEngine stands in for ffmpeg. Inputs listed in fail exit with the given
// code after leaving a partial output behind; others get mp4Output. hook,
// when set, runs first and may return a result that replaces the default.
type fakeEngine struct {
	fs     afero.Fs
	fail   map[string]int
	output []byte
	hook   func(ctx context.Context, name string) (ffmpeg.Result, bool)
	calls  []string
}

func newFakeEngine(fs afero.Fs) *fakeEngine {
	return &fakeEngine{fs: fs, fail: map[string]int{}, output: mp4Output}
}

func (f *fakeEngine) Transcode(ctx context.Context, input, output string) ffmpeg.Result {
	name := filepath.Base(input)
	f.calls = append(f.calls, name)
	if f.hook != nil {
		if res, ok := f.hook(ctx, name); ok {
			return res
		}
	}
	if code, ok := f.fail[name]; ok {
		_ = afero.WriteFile(f.fs, output, []byte("partial"), 0o644)
		return ffmpeg.Result{ExitCode: code, Err: errors.New("engine failed"), Stderr: "Conversion failed!\n"}
	}
	if err := afero.WriteFile(f.fs, output, f.output, 0o644); err != nil {
		return ffmpeg.Result{ExitCode: ffmpeg.ExitLaunchError, Err: err}
	}
	return ffmpeg.Result{}
}
