package util

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "00:00:01,000", want: time.Second},
		{in: "00:00:02.500", want: 2500 * time.Millisecond},
		{in: "01:02:03.250", want: time.Hour + 2*time.Minute + 3250*time.Millisecond},
		{in: "01:30.5", want: 90500 * time.Millisecond},
		{in: "45.5", want: 45500 * time.Millisecond},
		{in: "", wantErr: true},
		{in: "aa:bb", wantErr: true},
		{in: "00:61:00", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
		{in: "00.5:10", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseTimestamp(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimestamp(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := FormatSeconds(3723.5); got != "01:02:03.500" {
		t.Errorf("FormatSeconds = %q", got)
	}
	if got := FormatSeconds(-1); got != "00:00:00.000" {
		t.Errorf("FormatSeconds(-1) = %q", got)
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30000/1001"); got < 29.97 || got > 29.98 {
		t.Errorf("ParseFrameRate = %f", got)
	}
	if got := ParseFrameRate("30/0"); got != 0 {
		t.Errorf("ParseFrameRate with zero denominator = %f", got)
	}
}

func TestWithin(t *testing.T) {
	if !Within("/tmp/stage", "/tmp/stage/a.mp4") {
		t.Error("expected staged file to be within dir")
	}
	if Within("/tmp/stage", "/tmp/stage2/a.mp4") {
		t.Error("sibling dir must not count")
	}
	if Within("/tmp/stage", "/tmp/stage") {
		t.Error("dir itself must not count")
	}
}
