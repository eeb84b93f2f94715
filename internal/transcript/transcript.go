// Package transcript holds the timed text types that flow between the
// recognition, segmentation and subtitle encoding stages.
package transcript

import "unicode/utf8"

// Token is one recognized word or short phrase. Times are seconds from the
// start of the audio.
type Token struct {
	Text  string
	Start float64
	End   float64
}

// Duration returns the token span in seconds.
func (t Token) Duration() float64 {
	return t.End - t.Start
}

// Cue is one numbered subtitle entry.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Duration returns the cue span in seconds.
func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// TextLen measures text in characters, which is what cue length limits are
// expressed in.
func TextLen(s string) int {
	return utf8.RuneCountInString(s)
}
