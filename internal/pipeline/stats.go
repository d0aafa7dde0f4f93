package pipeline

import "time"

// RunStats tracks aggregate counters and byte totals across a batch run.
// Byte totals cover successful candidates only.
type RunStats struct {
	Total            int // Worklist length.
	Attempted        int
	Converted        int
	Failed           int
	Skipped          int // Captures with an unresolvable timestamp.
	MetadataWarnings int

	TotalElapsed     time.Duration
	ConvertedElapsed time.Duration
	TotalInputBytes  int64
	TotalOutputBytes int64
}

// Record adds one finished outcome.
func (s *RunStats) Record(o Outcome) {
	s.Attempted++
	s.TotalElapsed += o.Elapsed
	if !o.Succeeded() {
		s.Failed++
		return
	}
	s.Converted++
	s.ConvertedElapsed += o.Elapsed
	s.TotalInputBytes += o.OldSize
	s.TotalOutputBytes += o.NewSize
	if o.MetadataWarning != nil {
		s.MetadataWarnings++
	}
}

// AverageElapsed is the mean time per converted candidate.
func (s *RunStats) AverageElapsed() time.Duration {
	if s.Converted == 0 {
		return 0
	}
	return s.ConvertedElapsed / time.Duration(s.Converted)
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// ReductionPercent is SpaceSaved as a percentage of the input bytes, or 0
// when nothing was converted.
func (s *RunStats) ReductionPercent() float64 {
	if s.TotalInputBytes == 0 {
		return 0
	}
	return float64(s.SpaceSaved()) * 100 / float64(s.TotalInputBytes)
}

// NextWatermark returns the watermark to store after a run and whether it
// moved. It is the larger of old and the newest attempted timestamp,
// failures included. When the run stopped early, it is capped below the
// oldest pending candidate so that every unattempted capture stays
// eligible. The result is never below old.
func NextWatermark(old int64, attempted, pending []Candidate) (int64, bool) {
	w := old
	for _, c := range attempted {
		w = max(w, c.Timestamp)
	}
	for _, c := range pending {
		if c.Timestamp <= w {
			w = max(old, c.Timestamp-1)
		}
	}
	return w, w > old
}
