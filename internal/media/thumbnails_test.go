package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbnailTimes(t *testing.T) {
	opts := ThumbnailOptions{Lead: 0.1, Interval: 5, Tail: 0.1}

	tests := []struct {
		name     string
		duration float64
		want     []float64
	}{
		{"zero duration", 0, nil},
		{"short clip", 3, []float64{0.1, 2.9}},
		{"exact interval multiple", 10.2, []float64{0.1, 5.1, 10.1}},
		{"long clip", 12, []float64{0.1, 5.1, 10.1, 11.9}},
		{"shorter than lead and tail", 0.15, []float64{0.05, 0.1}},
		{"lead equals end", 0.2, []float64{0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ThumbnailTimes(tt.duration, opts)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
		})
	}
}

func TestThumbnailTimesAscendingAndUnique(t *testing.T) {
	times := ThumbnailTimes(61.3, ThumbnailOptions{Lead: 0.1, Interval: 2.5, Tail: 0.1})
	for i := 1; i < len(times); i++ {
		assert.Greater(t, times[i]-times[i-1], sampleEpsilon)
	}
	assert.Equal(t, 0.1, times[0])
	assert.InDelta(t, 61.2, times[len(times)-1], 1e-9)
}

func TestExtractThumbnailsAbandoned(t *testing.T) {
	h := &fakeHandle{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	thumbs, err := extractThumbnails(ctx, h, []float64{0.1, 5}, 160)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, thumbs)
	assert.Empty(t, h.captures)
}
