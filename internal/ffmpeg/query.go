package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Version returns the first line of `<binary> -version`.
func Version(ctx context.Context, binary string) (string, error) {
	out, err := exec.CommandContext(ctx, binary, "-hide_banner", "-version").Output()
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", binary, err)
	}
	return strings.TrimSpace(firstLine(string(out))), nil
}

// HasEncoder reports whether codec appears in `<binary> -encoders`.
func HasEncoder(ctx context.Context, binary, codec string) (bool, error) {
	out, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		return false, fmt.Errorf("%s -encoders: %w", binary, err)
	}
	return ParseEncoders(out)[codec], nil
}

// ParseEncoders extracts encoder names from `ffmpeg -encoders` output. Each
// encoder line is a six-character capability field followed by the name.
func ParseEncoders(out []byte) map[string]bool {
	names := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(out))
	listing := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !listing {
			listing = strings.HasPrefix(line, "------")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 && len(fields[0]) == 6 {
			names[fields[1]] = true
		}
	}
	return names
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
