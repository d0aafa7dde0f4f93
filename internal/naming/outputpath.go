package naming

import (
	"path/filepath"
	"strings"
)

// TempOutputPath returns the engine output path for input: the suffix is
// inserted between stem and extension so the container type is kept.
//
//	/v/Replay_2020.04.07-00.03.mp4 → /v/Replay_2020.04.07-00.03_temp_out.mp4
func TempOutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}

// OriginalPath reverses TempOutputPath. ok is false when work does not end
// in suffix+ext.
func OriginalPath(work, suffix, ext string) (string, bool) {
	if !IsWorkFile(filepath.Base(work), suffix, ext) {
		return "", false
	}
	cut := len(work) - len(suffix) - len(ext)
	return work[:cut] + work[len(work)-len(ext):], true
}

// HasExtension reports whether name ends in ext, ignoring case.
func HasExtension(name, ext string) bool {
	return len(name) > len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}

// IsWorkFile reports whether name is an engine temp output for ext.
func IsWorkFile(name, suffix, ext string) bool {
	tag := suffix + ext
	return len(name) > len(tag) && strings.EqualFold(name[len(name)-len(tag):], tag)
}

// IsCapture reports whether name is a capture to consider: it carries the
// recognized extension and is not a work file.
func IsCapture(name, suffix, ext string) bool {
	return HasExtension(name, ext) && !IsWorkFile(name, suffix, ext)
}
