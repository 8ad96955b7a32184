// Package subtitles turns timed text (SRT, WebVTT, transcription segments)
// into subtitle entries.
package subtitles

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/kikiluvv/slopstudio/internal/timeline"
	"github.com/kikiluvv/slopstudio/pkg/util"
)

var ErrNoEntries = errors.New("no valid subtitle entries")

// cueTiming matches "start --> end" with optional trailing WebVTT cue settings
var cueTiming = regexp.MustCompile(`^\s*([0-9:.,]+)\s*-->\s*([0-9:.,]+)(?:\s+.*)?$`)

// Parse reads SRT or WebVTT content. Blocks that don't look like a cue are
// skipped; ErrNoEntries is returned with an empty slice when nothing parsed.
func Parse(content string) ([]timeline.SubtitleEntry, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var entries []timeline.SubtitleEntry
	for _, block := range splitBlocks(content) {
		entry, ok := parseBlock(block)
		if ok {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return []timeline.SubtitleEntry{}, ErrNoEntries
	}
	return entries, nil
}

// ParseFile reads and parses a timed-text file
func ParseFile(path string) ([]timeline.SubtitleEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitles: %w", err)
	}
	return Parse(string(data))
}

func splitBlocks(content string) [][]string {
	var blocks [][]string
	var cur []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

// parseBlock accepts an optional index or cue identifier line, a timing line
// and at least one line of text
func parseBlock(lines []string) (timeline.SubtitleEntry, bool) {
	timing := -1
	for i := 0; i < len(lines) && i < 2; i++ {
		if strings.Contains(lines[i], "-->") {
			timing = i
			break
		}
	}
	if timing < 0 {
		return timeline.SubtitleEntry{}, false
	}

	m := cueTiming.FindStringSubmatch(lines[timing])
	if m == nil {
		return timeline.SubtitleEntry{}, false
	}
	start, err := util.ParseSeconds(m[1])
	if err != nil {
		return timeline.SubtitleEntry{}, false
	}
	end, err := util.ParseSeconds(m[2])
	if err != nil || end <= start {
		return timeline.SubtitleEntry{}, false
	}

	text := strings.TrimSpace(strings.Join(lines[timing+1:], "\n"))
	if text == "" {
		return timeline.SubtitleEntry{}, false
	}
	return timeline.SubtitleEntry{StartTime: start, EndTime: end, Text: text}, true
}
