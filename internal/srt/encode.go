// Package srt encodes and parses SubRip subtitle text.
package srt

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"audiosrt/internal/transcript"
)

// ErrInvariant marks cue sequences that cannot be encoded because they break
// the ordering rules the segmenter guarantees.
var ErrInvariant = errors.New("cue invariant violated")

// Encode renders cues as SRT text with LF line endings. Cues must carry
// sequential 1-based indices, non-empty single-paragraph text and
// non-decreasing, non-overlapping times.
func Encode(cues []transcript.Cue) (string, error) {
	var b strings.Builder
	if err := Write(&b, cues); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Write streams the encoded cues to w after validating the whole sequence, so
// nothing is written for invalid input.
func Write(w io.Writer, cues []transcript.Cue) error {
	if err := Validate(cues); err != nil {
		return err
	}
	for _, cue := range cues {
		block := strconv.Itoa(cue.Index) + "\n" +
			FormatTimestamp(cue.Start) + " --> " + FormatTimestamp(cue.End) + "\n" +
			strings.TrimSpace(cue.Text) + "\n\n"
		if _, err := io.WriteString(w, block); err != nil {
			return fmt.Errorf("write cue %d: %w", cue.Index, err)
		}
	}
	return nil
}

// Validate reports the first cue that cannot be encoded.
func Validate(cues []transcript.Cue) error {
	var prevEnd int64
	for i, cue := range cues {
		if cue.Index != i+1 {
			return invariantError(i, "index %d out of sequence", cue.Index)
		}
		if cue.Start < 0 || cue.End < 0 {
			return invariantError(i, "negative time")
		}
		start, end := Milliseconds(cue.Start), Milliseconds(cue.End)
		if cue.End < cue.Start {
			return invariantError(i, "ends at %s before start %s", FormatTimestamp(cue.End), FormatTimestamp(cue.Start))
		}
		if i > 0 && start < prevEnd {
			return invariantError(i, "starts at %s before previous cue ends", FormatTimestamp(cue.Start))
		}
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			return invariantError(i, "empty text")
		}
		if strings.Contains(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
			return invariantError(i, "text contains a blank line")
		}
		prevEnd = end
	}
	return nil
}

func invariantError(position int, format string, args ...any) error {
	return fmt.Errorf("%w: cue %d: %s", ErrInvariant, position+1, fmt.Sprintf(format, args...))
}
