package ingest

import (
	"os"
	"time"
)

// silentPeak is the largest absolute sample value treated as silence
// (about -66 dBFS).
const silentPeak = 16

// Audio is a decoded PCM buffer backed by a WAV file in a scratch directory.
type Audio struct {
	Source     string
	Path       string
	Codec      string
	SampleRate int
	Channels   int
	Samples    int64
	Peak       int

	dir string
}

// DurationSeconds returns the decoded length in seconds.
func (a *Audio) DurationSeconds() float64 {
	if a == nil || a.SampleRate <= 0 {
		return 0
	}
	return float64(a.Samples) / float64(a.SampleRate)
}

// Duration returns the decoded length.
func (a *Audio) Duration() time.Duration {
	return time.Duration(a.DurationSeconds() * float64(time.Second))
}

// Silent reports whether no sample rises above the silence floor.
func (a *Audio) Silent() bool {
	return a != nil && a.Peak <= silentPeak
}

// Dir returns the scratch directory owned by this buffer.
func (a *Audio) Dir() string {
	if a == nil {
		return ""
	}
	return a.dir
}

// Cleanup removes the scratch directory. It is safe to call more than once.
func (a *Audio) Cleanup() error {
	if a == nil || a.dir == "" {
		return nil
	}
	err := os.RemoveAll(a.dir)
	a.dir = ""
	return err
}
