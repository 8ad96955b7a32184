// Package gesture turns pointer gestures on the preview and the timeline into
// clip property writes and keyframes.
package gesture

import (
	"errors"
	"math"

	"github.com/kikiluvv/slopstudio/internal/editor"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

var (
	ErrDegenerate = errors.New("degenerate gesture geometry")
	ErrRejected   = errors.New("gesture rejected for subtitle clip")
)

const (
	// Epsilon is the smallest change promoted to a keyframe
	Epsilon = 1e-6
	// MinScale bounds preview resizing
	MinScale = 0.01
)

// Target is the on-screen handle a gesture moves, in its own coordinate space
type Target interface {
	Position() (x, y float64)
	SetPosition(x, y float64)
	Size() (w, h float64)
	SetSize(w, h float64)
	Rotation() float64
	SetRotation(deg float64)
	// Reset returns the target to a neutral transform
	Reset()
}

// Box is a plain Target
type Box struct {
	X, Y    float64
	W, H    float64
	Degrees float64
}

func (b *Box) Position() (float64, float64) { return b.X, b.Y }
func (b *Box) SetPosition(x, y float64)     { b.X, b.Y = x, y }
func (b *Box) Size() (float64, float64)     { return b.W, b.H }
func (b *Box) SetSize(w, h float64)         { b.W, b.H = w, h }
func (b *Box) Rotation() float64            { return b.Degrees }
func (b *Box) SetRotation(deg float64)      { b.Degrees = deg }
func (b *Box) Reset()                       { *b = Box{} }

// Editor is the subset of the clip manager gestures write through
type Editor interface {
	UpdateProperty(patch editor.Patch) error
	SetKeyframe(prop timeline.Property, at float64, value timeline.Value) error
}

func changed(a, b timeline.Value) bool {
	return math.Abs(a.X-b.X) > Epsilon || math.Abs(a.Y-b.Y) > Epsilon
}

// NormalizeDegrees maps any angle into [0, 360)
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}
