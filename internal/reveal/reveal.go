// Package reveal opens the platform file manager with a generated file
// selected, or its parent directory where selection is unsupported.
package reveal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Starter launches a detached process.
type Starter func(name string, args ...string) error

func startDetached(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Revealer selects files in the platform file manager.
type Revealer struct {
	goos  string
	start Starter
}

// New returns a Revealer for the running platform.
func New() *Revealer {
	return &Revealer{goos: runtime.GOOS, start: startDetached}
}

// WithPlatform overrides the target operating system.
func (r *Revealer) WithPlatform(goos string) *Revealer {
	r.goos = goos
	return r
}

// WithStarter overrides how the file manager process is launched.
func (r *Revealer) WithStarter(start Starter) *Revealer {
	if start != nil {
		r.start = start
	}
	return r
}

// Command returns the program and arguments used to reveal path.
func (r *Revealer) Command(path string) (string, []string) {
	switch r.goos {
	case "darwin":
		return "open", []string{"-R", path}
	case "windows":
		return "explorer", []string{"/select,", filepath.Clean(path)}
	default:
		return "xdg-open", []string{filepath.Dir(path)}
	}
}

// Reveal shows path in the file manager. The path must exist.
func (r *Revealer) Reveal(path string) error {
	if path == "" {
		return errors.New("reveal: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("reveal: resolve %q: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("reveal: %w", err)
	}
	name, args := r.Command(abs)
	if err := r.start(name, args...); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
