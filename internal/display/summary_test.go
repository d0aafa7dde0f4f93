package display

import (
	"strings"
	"testing"
	"time"

	"github.com/kyleseven/ReLive-Compress/internal/config"
	"github.com/kyleseven/ReLive-Compress/internal/term"
)

func TestRenderSummary_Plain(t *testing.T) {
	term.Configure(config.ColorNever)

	got := RenderSummary(Summary{
		Attempted:      3,
		Converted:      2,
		Failed:         1,
		TotalElapsed:   90 * time.Second,
		AverageElapsed: 45 * time.Second,
		OldSize:        2 * 1024 * 1024 * 1024,
		NewSize:        1024 * 1024 * 1024,
		Watermark:      1586235780,
		Advanced:       true,
	})

	for _, want := range []string{
		"Summary",
		"Converted     2 of 3",
		"Failed        1",
		"Total time    1:30",
		"Average time  0:45",
		"2.0 GiB -> 1.0 GiB (- 1.0 GiB, 50.0%)",
		"Watermark     1586235780 (",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Unreadable") {
		t.Errorf("zero skipped should not be listed:\n%s", got)
	}
}

func TestRenderSummary_NoSizesNoWrite(t *testing.T) {
	term.Configure(config.ColorNever)

	got := RenderSummary(Summary{Attempted: 1, Failed: 1, Interrupted: true})
	if !strings.Contains(got, "Summary (interrupted)") {
		t.Errorf("missing interrupted title:\n%s", got)
	}
	if strings.Contains(got, "Size") || strings.Contains(got, "Average") {
		t.Errorf("size and average should be omitted with nothing converted:\n%s", got)
	}
	if !strings.Contains(got, "unchanged") {
		t.Errorf("watermark should read unchanged:\n%s", got)
	}
}

func TestRenderSummary_ColorBox(t *testing.T) {
	term.Configure(config.ColorAlways)
	defer term.Configure(config.ColorNever)

	got := RenderSummary(Summary{Attempted: 1, Converted: 1, OldSize: 10, NewSize: 5})
	if !strings.Contains(got, "╭") {
		t.Errorf("expected a rounded border:\n%s", got)
	}
	if !strings.Contains(got, "1 of 1") {
		t.Errorf("missing converted count:\n%s", got)
	}
}

func TestRenderWorklist(t *testing.T) {
	term.Configure(config.ColorNever)

	if got := RenderWorklist(nil); got != "Nothing to do." {
		t.Errorf("empty worklist = %q", got)
	}
	got := RenderWorklist([]string{"a.mp4", "b.mp4"})
	want := "2 file(s) would be processed:\n  a.mp4\n  b.mp4"
	if got != want {
		t.Errorf("RenderWorklist() = %q, want %q", got, want)
	}
}

func TestBanner(t *testing.T) {
	term.Configure(config.ColorNever)
	if got := Banner("v1.2.0"); !strings.HasPrefix(got, "ReLive-Compress v1.2.0\n") {
		t.Errorf("Banner() = %q", got)
	}
}
