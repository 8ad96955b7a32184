package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatDuration converts time.Duration to ffmpeg timestamp format
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := d.Seconds()
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// FormatSeconds renders a timeline position (seconds) as HH:MM:SS.mmm
func FormatSeconds(s float64) string {
	return FormatDuration(Duration(s))
}

// Duration converts float seconds to a time.Duration
func Duration(seconds float64) time.Duration {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// ParseTimestamp parses a timestamp string (HH:MM:SS.mmm, MM:SS.mmm or SS.mmm).
// A comma is accepted as the fraction separator so SRT timecodes parse too.
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid timestamp format: empty")
	}

	parts := strings.Split(strings.Replace(s, ",", ".", 1), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp format: %s", s)
	}

	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		// only the seconds field may carry a fraction
		if !last && strings.Contains(part, ".") {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		// minutes and seconds fields are bounded when a larger unit precedes them
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		total = total*60 + v
	}

	return Duration(total), nil
}

// ParseSeconds is ParseTimestamp returning float seconds
func ParseSeconds(s string) (float64, error) {
	d, err := ParseTimestamp(s)
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
