// Package pipeline runs one incremental compression pass over a capture
// directory.
//
// A run loads the watermark, recovers work files left by an interrupted
// run, scans for captures newer than the watermark, transcodes them one at
// a time and finally advances the watermark over everything it attempted.
// A failed capture never stops the batch: its source is left untouched and
// the run continues with the next one.
//
// Files:
//   - scan.go: Scanner, Candidate, ScanResult
//   - recover.go: work-file recovery
//   - executor.go: Executor, Outcome (transcode, verify, replace, restore times)
//   - stats.go: RunStats, NextWatermark
//   - runner.go: Run, Phase, Result
package pipeline
