package ffmpeg

import "github.com/kyleseven/ReLive-Compress/internal/config"

// Build constructs the complete engine argument slice, binary first, for
// transcoding input into output.
func Build(cfg *config.EngineConfig, input, output string) []string {
	args := make([]string, 0, 32+len(cfg.ExtraArgs))

	// --- Preamble ---
	args = append(args, cfg.Binary, "-hide_banner", "-nostdin", "-y", "-loglevel", "error")

	// --- Input ---
	args = append(args, "-i", input)

	// --- Stream maps: keep every stream ---
	args = append(args, "-map", "0")

	// --- Video codec and bitrate envelope ---
	args = append(args, "-c:v", cfg.Codec)
	if cfg.Preset != "" {
		args = append(args, "-preset", cfg.Preset)
	}
	if cfg.Bitrate != "" {
		args = append(args, "-b:v", cfg.Bitrate)
	}
	if cfg.MaxRate != "" {
		args = append(args, "-maxrate", cfg.MaxRate)
	}
	if cfg.BufSize != "" {
		args = append(args, "-bufsize", cfg.BufSize)
	}

	// --- Audio and subtitles pass through ---
	args = append(args, "-c:a", "copy", "-c:s", "copy")

	// --- Metadata: drop the container creation time ---
	args = append(args, "-metadata", "creation_time=")

	args = append(args, cfg.ExtraArgs...)

	// --- Output ---
	args = append(args, output)
	return args
}
