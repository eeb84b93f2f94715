package textutil

import "testing"

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"whisperx-large-v3", "whisperx-large-v3"},
		{"WhisperX Large", "whisperx_large"},
		{"  ffmpeg decode  ", "ffmpeg_decode"},
		{"../etc/passwd", "etc_passwd"},
		{"__--__", "unknown"},
		{"", "unknown"},
		{"café", "caf"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
