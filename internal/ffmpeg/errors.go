package ffmpeg

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns for classifying engine stderr into a short failure
// reason. Checked in order; the first match wins.
var reasons = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder not found`), "encoder not available"},
	{regexp.MustCompile(`(?i)No space left on device`), "disk full"},
	{regexp.MustCompile(`(?i)Permission denied`), "permission denied"},
	{regexp.MustCompile(`(?i)No such file or directory`), "file not found"},
	{regexp.MustCompile(`(?i)Invalid data found when processing input|moov atom not found`), "unreadable input"},
	{regexp.MustCompile(`(?i)Error (while )?opening encoder|Error initializing output stream`), "encoder setup failed"},
	{regexp.MustCompile(`(?i)Could not find tag for codec|not currently supported in container`), "stream not supported by container"},
}

// Classify returns a short reason for a failed run based on its stderr. When
// no known pattern matches, the last non-empty stderr line is returned.
func Classify(stderr string) string {
	for _, r := range reasons {
		if r.re.MatchString(stderr) {
			return r.reason
		}
	}
	return LastLine(stderr)
}

// LastLine returns the last non-empty line of s, trimmed.
func LastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
