package subtitles

import (
	"fmt"
	"strings"

	"github.com/kikiluvv/slopstudio/internal/timeline"
	"github.com/kikiluvv/slopstudio/pkg/util"
)

// Segment is one transcription result. Start and End are timecodes or plain
// seconds.
type Segment struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
	Text  string `json:"text" yaml:"text"`
}

// FromSegments converts transcription segments into entries. Unparseable or
// empty segments are skipped.
func FromSegments(segments []Segment) ([]timeline.SubtitleEntry, error) {
	entries := make([]timeline.SubtitleEntry, 0, len(segments))
	var skipped int
	for _, s := range segments {
		start, err := util.ParseSeconds(s.Start)
		if err != nil {
			skipped++
			continue
		}
		end, err := util.ParseSeconds(s.End)
		text := strings.TrimSpace(s.Text)
		if err != nil || end <= start || text == "" {
			skipped++
			continue
		}
		entries = append(entries, timeline.SubtitleEntry{StartTime: start, EndTime: end, Text: text})
	}
	if len(entries) == 0 {
		return entries, fmt.Errorf("%d segments skipped: %w", skipped, ErrNoEntries)
	}
	return entries, nil
}
