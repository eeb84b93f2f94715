package reveal

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"testing"

	"audiosrt/internal/testsupport"
)

func TestCommandPerPlatform(t *testing.T) {
	path := filepath.Join("/tmp", "out", "talk.srt")
	tests := []struct {
		goos string
		name string
		args []string
	}{
		{"darwin", "open", []string{"-R", path}},
		{"windows", "explorer", []string{"/select,", filepath.Clean(path)}},
		{"linux", "xdg-open", []string{filepath.Join("/tmp", "out")}},
		{"freebsd", "xdg-open", []string{filepath.Join("/tmp", "out")}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := New().WithPlatform(tt.goos).Command(path)
			if name != tt.name || !slices.Equal(args, tt.args) {
				t.Fatalf("Command = %s %v, want %s %v", name, args, tt.name, tt.args)
			}
		})
	}
}

func TestRevealLaunchesFileManager(t *testing.T) {
	target := filepath.Join(t.TempDir(), "talk.srt")
	testsupport.WriteFile(t, target, 8)

	var gotName string
	var gotArgs []string
	r := New().WithPlatform("darwin").WithStarter(func(name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})
	if err := r.Reveal(target); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if gotName != "open" || !slices.Equal(gotArgs, []string{"-R", target}) {
		t.Fatalf("unexpected launch %s %v", gotName, gotArgs)
	}
}

func TestRevealErrors(t *testing.T) {
	launched := false
	r := New().WithStarter(func(string, ...string) error {
		launched = true
		return nil
	})

	if err := r.Reveal(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	err := r.Reveal(filepath.Join(t.TempDir(), "missing.srt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if launched {
		t.Fatal("file manager should not launch for invalid paths")
	}

	target := filepath.Join(t.TempDir(), "talk.srt")
	testsupport.WriteFile(t, target, 8)
	failing := New().WithStarter(func(string, ...string) error { return errors.New("no display") })
	if err := failing.Reveal(target); err == nil {
		t.Fatal("expected launch failure to surface")
	}
}
