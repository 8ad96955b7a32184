package timeline

import "image"

// Kind is the variant tag of a clip
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// IsMedia reports whether clips of this kind are backed by a decodable media handle
func (k Kind) IsMedia() bool {
	return k == KindVideo || k == KindImage
}

// Property names a clip field that can be edited
type Property string

const (
	PropPosition Property = "position"
	PropScale    Property = "scale"
	PropRotation Property = "rotation"
	PropOpacity  Property = "opacity"
	PropStart    Property = "start"
	PropDuration Property = "duration"
	PropText     Property = "text"
)

// AnimatableProperties lists the properties that accept keyframes, in display order
var AnimatableProperties = []Property{PropPosition, PropScale, PropRotation, PropOpacity}

// Animatable reports whether the property can hold keyframes
func (p Property) Animatable() bool {
	switch p {
	case PropPosition, PropScale, PropRotation, PropOpacity:
		return true
	}
	return false
}

// Vec2 is a 2D value. Positions are canvas fractions.
type Vec2 struct {
	X float64
	Y float64
}

// Value is a keyframe value. Scalar properties only use X.
type Value = Vec2

// Scalar wraps a scalar keyframe value
func Scalar(v float64) Value {
	return Value{X: v}
}

// Keyframe pins a property value at an absolute timeline time
type Keyframe struct {
	Time  float64
	Value Value
}

// Keyframes holds the per-property keyframe lists of a clip
type Keyframes map[Property][]Keyframe

// Thumbnail is a downscaled frame sampled from a video clip
type Thumbnail struct {
	Time  float64
	Image image.Image
}

// Transform is the spatial state of a clip at one instant
type Transform struct {
	Position Vec2
	Scale    Vec2
	Rotation float64
	Opacity  float64
}

// Clip represents a timed element placed on a track
type Clip struct {
	ID      string
	Kind    Kind
	Source  string // media locator, or the literal text for text clips
	TrackID string
	AssetID string

	StartTime float64
	Duration  float64
	EndTime   float64

	Position Vec2
	Scale    Vec2
	Rotation float64 // degrees
	Opacity  float64

	Keyframes Keyframes

	Name       string
	Thumbnails []Thumbnail
	Width      int
	Height     int
}

// DefaultTransform is the transform a freshly created clip starts with
func DefaultTransform() Transform {
	return Transform{
		Scale:   Vec2{X: 1, Y: 1},
		Opacity: 1,
	}
}

// Static returns the clip's non-animated transform fields
func (c Clip) Static() Transform {
	return Transform{
		Position: c.Position,
		Scale:    c.Scale,
		Rotation: c.Rotation,
		Opacity:  c.Opacity,
	}
}

// StaticValue returns the static value of an animatable property
func (c Clip) StaticValue(prop Property) (Value, bool) {
	switch prop {
	case PropPosition:
		return c.Position, true
	case PropScale:
		return c.Scale, true
	case PropRotation:
		return Scalar(c.Rotation), true
	case PropOpacity:
		return Scalar(c.Opacity), true
	}
	return Value{}, false
}

// ValueAt returns the effective value of an animatable property at t, falling
// back to the static value when the property has no keyframes.
func (c Clip) ValueAt(prop Property, t float64) (Value, bool) {
	def, ok := c.StaticValue(prop)
	if !ok {
		return Value{}, false
	}
	return Interpolate(c.Keyframes[prop], t, def), true
}

// TransformAt interpolates every animatable property at t
func (c Clip) TransformAt(t float64) Transform {
	pos, _ := c.ValueAt(PropPosition, t)
	scale, _ := c.ValueAt(PropScale, t)
	rot, _ := c.ValueAt(PropRotation, t)
	op, _ := c.ValueAt(PropOpacity, t)
	return Transform{
		Position: pos,
		Scale:    scale,
		Rotation: rot.X,
		Opacity:  clamp01(op.X),
	}
}

// Contains reports whether t falls in [StartTime, EndTime)
func (c Clip) Contains(t float64) bool {
	return t >= c.StartTime && t < c.EndTime
}

// clone deep-copies the keyframe and thumbnail slices. Thumbnail images are
// never mutated once created, so they are shared.
func (c Clip) clone() Clip {
	out := c
	if c.Keyframes != nil {
		out.Keyframes = make(Keyframes, len(c.Keyframes))
		for prop, frames := range c.Keyframes {
			out.Keyframes[prop] = append([]Keyframe(nil), frames...)
		}
	}
	if c.Thumbnails != nil {
		out.Thumbnails = append([]Thumbnail(nil), c.Thumbnails...)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
