package timeline

import (
	"math"
	"sort"
)

// Interpolate returns the value of a time-sorted keyframe list at t.
//
// With no keyframes the default is returned. Before the first keyframe the
// first value holds, after the last the last value holds, and a query exactly
// on a keyframe time returns that keyframe's value unchanged. Between two
// keyframes each component is interpolated linearly. A NaN time resolves to
// the last value.
func Interpolate(frames []Keyframe, t float64, def Value) Value {
	n := len(frames)
	if n == 0 {
		return def
	}
	if math.IsNaN(t) {
		return frames[n-1].Value
	}
	if t <= frames[0].Time {
		return frames[0].Value
	}
	if t >= frames[n-1].Time {
		return frames[n-1].Value
	}

	i := sort.Search(n, func(i int) bool { return frames[i].Time >= t })
	next := frames[i]
	if next.Time == t {
		return next.Value
	}
	prev := frames[i-1]

	span := next.Time - prev.Time
	if span <= 0 {
		return next.Value
	}
	ratio := (t - prev.Time) / span
	return Value{
		X: prev.Value.X + (next.Value.X-prev.Value.X)*ratio,
		Y: prev.Value.Y + (next.Value.Y-prev.Value.Y)*ratio,
	}
}

// InsertKeyframe inserts k into a time-sorted list, replacing any keyframe
// already at the same time. The input slice is not modified.
func InsertKeyframe(frames []Keyframe, k Keyframe) []Keyframe {
	i := sort.Search(len(frames), func(i int) bool { return frames[i].Time >= k.Time })
	out := make([]Keyframe, 0, len(frames)+1)
	out = append(out, frames[:i]...)
	out = append(out, k)
	if i < len(frames) && frames[i].Time == k.Time {
		i++
	}
	return append(out, frames[i:]...)
}

// sortKeyframes orders a list by time and keeps the last entry written for
// each distinct time.
func sortKeyframes(frames []Keyframe) []Keyframe {
	if len(frames) < 2 {
		return frames
	}
	sort.SliceStable(frames, func(i, j int) bool { return frames[i].Time < frames[j].Time })
	out := frames[:0]
	for _, k := range frames {
		if len(out) > 0 && out[len(out)-1].Time == k.Time {
			out[len(out)-1] = k
			continue
		}
		out = append(out, k)
	}
	return out
}
