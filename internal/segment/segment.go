// Package segment groups timed recognition tokens into subtitle cues that
// respect per-cue character and duration limits.
//
// Tokens are accumulated greedily into a candidate cue. The candidate is
// closed when the next token would push it past either limit, or early when a
// silence gap separates two tokens and the candidate already lasts long
// enough to read. Tokens are never split, so a single token that is longer
// than the limits on its own becomes its own cue unchanged.
package segment

import (
	"strings"

	"audiosrt/internal/transcript"
)

const (
	// DefaultSilenceGap is the pause, in seconds, treated as a phrase boundary.
	DefaultSilenceGap = 0.5
	// DefaultMinDuration is how long a cue must already last before a
	// silence gap may close it.
	DefaultMinDuration = 0.8

	epsilon = 1e-9
)

// Options bounds the cues produced by Segment.
type Options struct {
	MaxChars    int
	MaxDuration float64
	SilenceGap  float64
	MinDuration float64
}

// DefaultOptions returns options with the standard silence handling.
func DefaultOptions(maxChars int, maxDuration float64) Options {
	return Options{
		MaxChars:    maxChars,
		MaxDuration: maxDuration,
		SilenceGap:  DefaultSilenceGap,
		MinDuration: DefaultMinDuration,
	}
}

// Stats summarizes why cues were closed.
type Stats struct {
	Tokens        int
	Cues          int
	SilenceBreaks int
	LimitBreaks   int
	// Oversized counts single-token cues that exceed a limit on their own.
	Oversized int
}

// Segment converts tokens into ordered cues with 1-based indices. An empty
// token sequence yields an empty, non-nil result.
func Segment(tokens []transcript.Token, opts Options) []transcript.Cue {
	cues, _ := SegmentWithStats(tokens, opts)
	return cues
}

// SegmentWithStats is Segment plus a summary of the break decisions.
func SegmentWithStats(tokens []transcript.Token, opts Options) ([]transcript.Cue, Stats) {
	s := segmenter{opts: opts, cues: make([]transcript.Cue, 0, len(tokens)/4+1)}
	for _, token := range tokens {
		s.add(token)
	}
	s.commit()
	for i := range s.cues {
		s.cues[i].Index = i + 1
	}
	s.stats.Cues = len(s.cues)
	return s.cues, s.stats
}

type segmenter struct {
	opts  Options
	cues  []transcript.Cue
	stats Stats

	text    string
	start   float64
	end     float64
	count   int
	lastEnd float64
	seen    bool
}

func (s *segmenter) add(token transcript.Token) {
	text := strings.TrimSpace(token.Text)
	if text == "" {
		return
	}
	s.stats.Tokens++

	start, end := token.Start, token.End
	if s.seen && start < s.lastEnd {
		start = s.lastEnd
	}
	if end < start {
		end = start
	}
	s.lastEnd = end
	s.seen = true

	if s.count > 0 && s.isNaturalBreak(start) {
		s.commit()
		s.stats.SilenceBreaks++
	}

	if s.count == 0 {
		s.begin(text, start, end)
		return
	}

	prospectiveText := s.text + " " + text
	prospectiveDuration := end - s.start
	if transcript.TextLen(prospectiveText) <= s.opts.MaxChars && prospectiveDuration <= s.opts.MaxDuration+epsilon {
		s.text = prospectiveText
		s.end = end
		s.count++
		return
	}

	s.commit()
	s.stats.LimitBreaks++
	s.begin(text, start, end)
}

func (s *segmenter) isNaturalBreak(nextStart float64) bool {
	if s.opts.SilenceGap <= 0 {
		return false
	}
	gap := nextStart - s.end
	if gap+epsilon < s.opts.SilenceGap {
		return false
	}
	return s.end-s.start+epsilon >= s.opts.MinDuration
}

func (s *segmenter) begin(text string, start, end float64) {
	s.text = text
	s.start = start
	s.end = end
	s.count = 1
}

func (s *segmenter) commit() {
	if s.count == 0 {
		return
	}
	if s.count == 1 && (transcript.TextLen(s.text) > s.opts.MaxChars || s.end-s.start > s.opts.MaxDuration+epsilon) {
		s.stats.Oversized++
	}
	s.cues = append(s.cues, transcript.Cue{
		Start: s.start,
		End:   s.end,
		Text:  strings.TrimSpace(s.text),
	})
	s.text = ""
	s.count = 0
}
