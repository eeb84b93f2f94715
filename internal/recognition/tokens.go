package recognition

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"audiosrt/internal/transcript"
)

// normalizeTokens converts backend words into ordered, non-overlapping
// tokens. Words with empty text or missing timing are dropped.
func normalizeTokens(words []Word) []transcript.Token {
	tokens := make([]transcript.Token, 0, len(words))
	for _, word := range words {
		text := strings.Join(strings.Fields(norm.NFC.String(word.Text)), " ")
		if text == "" || !word.Timed {
			continue
		}
		if !finite(word.Start) || !finite(word.End) {
			continue
		}
		start := math.Max(word.Start, 0)
		end := word.End
		if n := len(tokens); n > 0 {
			prev := &tokens[n-1]
			if start < prev.Start {
				start = prev.Start
			}
			if prev.End > start {
				prev.End = start
			}
		}
		if end < start {
			end = start
		}
		tokens = append(tokens, transcript.Token{Text: text, Start: start, End: end})
	}
	return tokens
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
