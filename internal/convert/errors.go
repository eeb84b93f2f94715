package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"audiosrt/internal/ingest"
	"audiosrt/internal/recognition"
	"audiosrt/internal/services"
	"audiosrt/internal/srt"
)

// Kind classifies a conversion failure. Kinds are comparable error values,
// so errors.Is(err, convert.FileNotFound) works on any returned error.
type Kind string

// Failure kinds.
const (
	ConfigError                Kind = "ConfigError"
	FileNotFound               Kind = "FileNotFound"
	UnsupportedFormat          Kind = "UnsupportedFormat"
	CorruptAudio               Kind = "CorruptAudio"
	ModelLoadError             Kind = "ModelLoadError"
	TranscriptionError         Kind = "TranscriptionError"
	InternalInvariantViolation Kind = "InternalInvariantViolation"
	WriteError                 Kind = "WriteError"
	Canceled                   Kind = "Canceled"
)

func (k Kind) Error() string { return string(k) }

// Transient reports whether retrying the same input may succeed.
func (k Kind) Transient() bool {
	return k == ModelLoadError || k == TranscriptionError
}

func (k Kind) marker() error {
	switch k {
	case ConfigError:
		return services.ErrConfiguration
	case FileNotFound:
		return services.ErrNotFound
	case UnsupportedFormat, CorruptAudio:
		return services.ErrValidation
	case ModelLoadError, TranscriptionError:
		return services.ErrTransient
	case InternalInvariantViolation:
		return services.ErrInternal
	case WriteError:
		return services.ErrWrite
	}
	return nil
}

func (k Kind) summary() string {
	switch k {
	case ConfigError:
		return "invalid conversion settings"
	case FileNotFound:
		return "input file is missing"
	case UnsupportedFormat:
		return "input is not a supported audio file"
	case CorruptAudio:
		return "audio could not be decoded"
	case ModelLoadError:
		return "recognition model could not be loaded"
	case TranscriptionError:
		return "speech recognition failed"
	case InternalInvariantViolation:
		return "cue sequence violates ordering rules"
	case WriteError:
		return "subtitle file could not be written"
	case Canceled:
		return "conversion canceled"
	}
	return "conversion failed"
}

// Hint suggests an operator action for the kind.
func (k Kind) Hint() string {
	switch k {
	case ConfigError:
		return "model must be tiny|base|small|medium|large, max chars 20-100, max duration 1-10 seconds"
	case FileNotFound:
		return "check the input path"
	case UnsupportedFormat:
		return "convert the file to mp3, wav, m4a, flac or ogg"
	case CorruptAudio:
		return "re-encode the source; ffmpeg could not read its audio"
	case ModelLoadError:
		return "run audiosrt deps and check the recognition backend settings"
	case TranscriptionError:
		return "see the tool logs; try a smaller model if memory is short"
	case WriteError:
		return "check that the output directory exists and is writable"
	}
	return ""
}

// Stage names the pipeline step where a failure occurred.
type Stage string

// Pipeline stages in execution order.
const (
	StageValidate   Stage = "validate"
	StageIngest     Stage = "ingest"
	StageTranscribe Stage = "transcribe"
	StageSegment    Stage = "segment"
	StageEncode     Stage = "encode"
	StageWrite      Stage = "write"
)

// Error is the single error type returned by the converter.
type Error struct {
	Kind    Kind
	Stage   Stage
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s during %s", e.Kind, e.Stage)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the kind, the matching services marker, and the cause.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if marker := e.Kind.marker(); marker != nil {
		errs = append(errs, marker)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Transient reports whether the failure may succeed on retry.
func (e *Error) Transient() bool { return e != nil && e.Kind.Transient() }

// KindOf returns the kind carried by err, or "" when err is not a
// conversion error.
func KindOf(err error) Kind {
	var convErr *Error
	if errors.As(err, &convErr) {
		return convErr.Kind
	}
	return ""
}

func newError(kind Kind, stage Stage, path string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Path: path, Message: kind.summary(), Err: err}
}

// classify maps a stage failure onto a kind. Stage defaults cover errors
// that carry no package sentinel.
func classify(stage Stage, path string, err error) *Error {
	var convErr *Error
	if errors.As(err, &convErr) {
		return convErr
	}
	var kind Kind
	switch {
	case errors.Is(err, ingest.ErrFileNotFound):
		kind = FileNotFound
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		kind = UnsupportedFormat
	case errors.Is(err, ingest.ErrCorruptAudio):
		kind = CorruptAudio
	case errors.Is(err, recognition.ErrModelLoad):
		kind = ModelLoadError
	case errors.Is(err, recognition.ErrTranscription):
		kind = TranscriptionError
	case errors.Is(err, srt.ErrInvariant):
		kind = InternalInvariantViolation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = Canceled
	default:
		switch stage {
		case StageValidate:
			kind = ConfigError
		case StageTranscribe:
			kind = TranscriptionError
		case StageIngest, StageWrite:
			kind = WriteError
		default:
			kind = InternalInvariantViolation
		}
	}
	return newError(kind, stage, path, err)
}
