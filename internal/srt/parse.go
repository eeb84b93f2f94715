package srt

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"audiosrt/internal/transcript"
)

// Parse reads SRT text. CRLF and LF line endings are both accepted and cue
// text may span several lines. Malformed blocks are reported with their
// position rather than skipped.
func Parse(content string) ([]transcript.Cue, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return []transcript.Cue{}, nil
	}

	blocks := strings.Split(content, "\n\n")
	cues := make([]transcript.Cue, 0, len(blocks))
	for n, block := range blocks {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			return nil, fmt.Errorf("block %d: expected index, timing and text", n+1)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("block %d: invalid index %q", n+1, lines[0])
		}
		parts := strings.Split(lines[1], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("block %d: invalid timing line %q", n+1, lines[1])
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("block %d: start: %w", n+1, err)
		}
		end, err := ParseTimestamp(firstField(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("block %d: end: %w", n+1, err)
		}
		cues = append(cues, transcript.Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return cues, nil
}

// ParseFile reads and parses an SRT file.
func ParseFile(path string) ([]transcript.Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return Parse(string(data))
}

// firstField drops position hints some writers append after the end time.
func firstField(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
