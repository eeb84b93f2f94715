package recognition

import (
	"errors"
	"testing"
)

func TestParseModelSize(t *testing.T) {
	tests := []struct {
		input string
		want  ModelSize
		name  string
	}{
		{"tiny", Tiny, "tiny"},
		{" Base ", Base, "base"},
		{"SMALL", Small, "small"},
		{"medium", Medium, "medium"},
		{"large", Large, "large-v3"},
	}
	for _, tt := range tests {
		got, err := ParseModelSize(tt.input)
		if err != nil {
			t.Fatalf("ParseModelSize(%q): %v", tt.input, err)
		}
		if got != tt.want || got.ModelName() != tt.name {
			t.Fatalf("ParseModelSize(%q) = %s/%s, want %s/%s", tt.input, got, got.ModelName(), tt.want, tt.name)
		}
	}

	for _, bad := range []string{"", "huge", "large-v3"} {
		if _, err := ParseModelSize(bad); !errors.Is(err, ErrUnknownModel) {
			t.Fatalf("ParseModelSize(%q) error = %v, want ErrUnknownModel", bad, err)
		}
	}
}
