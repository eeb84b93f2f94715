package recognition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"audiosrt/internal/ingest"
)

var (
	// ErrModelLoad reports a model tier that could not be made ready.
	ErrModelLoad = errors.New("model load failed")
	// ErrTranscription reports an inference run that did not produce words.
	ErrTranscription = errors.New("transcription failed")
	// ErrUnknownModel reports a model size outside the supported tiers.
	ErrUnknownModel = errors.New("unknown model size")
)

// ModelSize selects a recognition model tier.
type ModelSize string

// Supported tiers, smallest first.
const (
	Tiny   ModelSize = "tiny"
	Base   ModelSize = "base"
	Small  ModelSize = "small"
	Medium ModelSize = "medium"
	Large  ModelSize = "large"
)

// ModelSizes lists every tier in ascending size.
var ModelSizes = []ModelSize{Tiny, Base, Small, Medium, Large}

// ParseModelSize converts a user supplied tier name.
func ParseModelSize(value string) (ModelSize, error) {
	size := ModelSize(strings.ToLower(strings.TrimSpace(value)))
	if !size.Valid() {
		return "", fmt.Errorf("%w %q (want one of tiny, base, small, medium, large)", ErrUnknownModel, value)
	}
	return size, nil
}

// Valid reports whether the size is one of the supported tiers.
func (m ModelSize) Valid() bool {
	switch m {
	case Tiny, Base, Small, Medium, Large:
		return true
	}
	return false
}

// ModelName returns the backend model identifier for the tier.
func (m ModelSize) ModelName() string {
	if m == Large {
		return "large-v3"
	}
	return string(m)
}

func (m ModelSize) String() string { return string(m) }

// Word is one recognized word as reported by a backend, before
// normalization. Timed is false when the backend could not align it.
type Word struct {
	Text  string
	Start float64
	End   float64
	Timed bool
}

// Model runs inference for one loaded tier.
type Model interface {
	Transcribe(ctx context.Context, audio *ingest.Audio) ([]Word, error)
}

// Loader prepares a Model for a tier.
type Loader interface {
	Load(ctx context.Context, size ModelSize) (Model, error)
	Name() string
}
