package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/kyleseven/ReLive-Compress/internal/term"
)

// Summary is the data shown in the end-of-run report.
type Summary struct {
	Attempted      int
	Converted      int
	Failed         int
	Skipped        int
	TotalElapsed   time.Duration
	AverageElapsed time.Duration
	OldSize        int64
	NewSize        int64
	Interrupted    bool

	// Watermark is the stored value after the run; Advanced reports whether
	// this run wrote it.
	Watermark int64
	Advanced  bool
}

// RenderSummary returns the end-of-run report. With colors enabled it is
// drawn as a bordered box.
func RenderSummary(s Summary) string {
	var rows [][2]string
	add := func(label, value string) { rows = append(rows, [2]string{label, value}) }

	converted := fmt.Sprintf("%d of %d", s.Converted, s.Attempted)
	if s.Failed > 0 {
		converted = render(badStyle, converted)
	} else {
		converted = render(goodStyle, converted)
	}
	add("Converted", converted)
	if s.Failed > 0 {
		add("Failed", render(badStyle, fmt.Sprint(s.Failed)))
	}
	if s.Skipped > 0 {
		add("Unreadable names", fmt.Sprint(s.Skipped))
	}
	add("Total time", FormatDuration(s.TotalElapsed))
	if s.Converted > 0 {
		add("Average time", FormatDuration(s.AverageElapsed))
	}
	if s.OldSize > 0 {
		saved := s.OldSize - s.NewSize
		value := fmt.Sprintf("%s -> %s (%s, %s)",
			FormatBytes(s.OldSize), FormatBytes(s.NewSize),
			FormatBytesWithSign(-saved), FormatPercent(saved, s.OldSize))
		if saved >= 0 {
			value = render(goodStyle, value)
		} else {
			value = render(badStyle, value)
		}
		add("Size", value)
	}
	if s.Advanced {
		add("Watermark", FormatWatermark(s.Watermark))
	} else {
		add("Watermark", "unchanged")
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	var b strings.Builder
	title := "Summary"
	if s.Interrupted {
		title = "Summary (interrupted)"
	}
	b.WriteString(render(titleStyle, title))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(render(labelStyle, fmt.Sprintf("%-*s", width, r[0])))
		b.WriteString("  ")
		b.WriteString(r[1])
	}

	if !term.Enabled() {
		return b.String()
	}
	return boxStyle.Render(b.String())
}

// RenderWorklist lists the files a dry run would process.
func RenderWorklist(names []string) string {
	if len(names) == 0 {
		return render(hintStyle, "Nothing to do.")
	}
	var b strings.Builder
	b.WriteString(render(titleStyle, fmt.Sprintf("%d file(s) would be processed:", len(names))))
	for _, n := range names {
		b.WriteString("\n  ")
		b.WriteString(n)
	}
	return b.String()
}
