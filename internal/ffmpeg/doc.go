// Package ffmpeg builds and runs the external transcoding engine.
//
// [Build] produces the argument list for one capture: all streams mapped,
// video re-encoded within a fixed bitrate envelope, audio and subtitles
// copied, creation_time metadata cleared, output forced with -y. [Runner]
// executes it with an optional per-file timeout and scheduling priority and
// reports the outcome as a [Result]. [Classify] turns captured stderr into
// a short failure reason for the per-file log line.
package ffmpeg
