package media

import (
	"context"
	"math"
	"sort"

	"github.com/nfnt/resize"

	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// ThumbnailOptions controls thumbnail sampling
type ThumbnailOptions struct {
	Lead     float64 // first sample offset from the start
	Interval float64
	Tail     float64 // last sample offset from the end
	Width    uint
}

const sampleEpsilon = 0.001

// ThumbnailTimes returns the ascending, deduplicated sample times for a
// video of the given duration: lead, every interval after it, and the point
// tail seconds before the end.
func ThumbnailTimes(duration float64, opts ThumbnailOptions) []float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil
	}

	clamp := func(t float64) float64 {
		return math.Max(0, math.Min(duration, t))
	}

	end := duration - opts.Tail
	times := []float64{clamp(opts.Lead)}
	if opts.Interval > 0 {
		for t := opts.Lead + opts.Interval; t < end; t += opts.Interval {
			times = append(times, clamp(t))
		}
	}
	times = append(times, clamp(end))

	sort.Float64s(times)
	out := times[:1]
	for _, t := range times[1:] {
		if t-out[len(out)-1] > sampleEpsilon {
			out = append(out, t)
		}
	}
	return out
}

// extractThumbnails captures every sample time from h. It stops early and
// returns ctx's error when the registration is torn down mid-sequence.
func extractThumbnails(ctx context.Context, h Handle, times []float64, width uint) ([]timeline.Thumbnail, error) {
	thumbs := make([]timeline.Thumbnail, 0, len(times))
	for _, t := range times {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := h.Capture(ctx, t)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return thumbs, err
		}
		if width > 0 && uint(img.Bounds().Dx()) > width {
			img = resize.Resize(width, 0, img, resize.Bilinear)
		}
		thumbs = append(thumbs, timeline.Thumbnail{Time: t, Image: img})
	}
	return thumbs, nil
}
