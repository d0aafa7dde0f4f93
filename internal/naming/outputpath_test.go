package naming

import (
	"path/filepath"
	"testing"
)

func TestTempOutputPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"capture", "/v/Replay_2020.04.07-00.03.mp4", "/v/Replay_2020.04.07-00.03_temp_out.mp4"},
		{"uppercase ext kept", "/v/clip.MP4", "/v/clip_temp_out.MP4"},
		{"stem ending in mp4", "/v/mp4.mp4", "/v/mp4_temp_out.mp4"},
		{"no extension", "/v/clip", "/v/clip_temp_out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TempOutputPath(filepath.FromSlash(tt.input), "_temp_out"); got != filepath.FromSlash(tt.want) {
				t.Errorf("TempOutputPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOriginalPath_RoundTrip(t *testing.T) {
	in := filepath.Join("v", "Replay_2020.04.07-00.03.mp4")
	work := TempOutputPath(in, "_temp_out")
	got, ok := OriginalPath(work, "_temp_out", ".mp4")
	if !ok || got != in {
		t.Errorf("OriginalPath(%q) = %q, %v; want %q, true", work, got, ok, in)
	}

	if _, ok := OriginalPath(in, "_temp_out", ".mp4"); ok {
		t.Errorf("OriginalPath(%q) should report ok=false for a capture", in)
	}
}

func TestIsCapture(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"video1.mp4", true},
		{"VIDEO1.MP4", true},
		{"video1_temp_out.mp4", false},
		{"video1_TEMP_OUT.mp4", false},
		{"video1.mkv", false},
		{".mp4", false},
		{"notes.txt", false},
		{".last_compress", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCapture(tt.name, "_temp_out", ".mp4"); got != tt.want {
				t.Errorf("IsCapture(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
