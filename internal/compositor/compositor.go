// Package compositor renders the clips active at one instant onto an image.
package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/kikiluvv/slopstudio/internal/fonts"
	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// Frames gives read access to the current visual content of media clips
type Frames interface {
	Frame(clipID string) image.Image
}

// TextStyle is how ordinary text clips are drawn
type TextStyle struct {
	FontFamily string
	FontSize   float64 // canvas pixels
	Color      string
}

// Options configures a Compositor
type Options struct {
	Background string
	Text       TextStyle
}

// Compositor draws project frames. It is not safe for concurrent use.
type Compositor struct {
	logger     zerolog.Logger
	fonts      *fonts.Registry
	background color.NRGBA
	text       TextStyle
	textColor  color.NRGBA
}

// New creates a compositor
func New(logger zerolog.Logger, registry *fonts.Registry, opts Options) (*Compositor, error) {
	bg, err := ParseColor(opts.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	fg, err := ParseColor(opts.Text.Color)
	if err != nil {
		return nil, fmt.Errorf("text color: %w", err)
	}
	if opts.Text.FontSize <= 0 {
		return nil, fmt.Errorf("text font size must be positive")
	}
	return &Compositor{
		logger:     logging.Component(logger, "compositor"),
		fonts:      registry,
		background: bg,
		text:       opts.Text,
		textColor:  fg,
	}, nil
}

// Render clears dst and draws every clip active at t in track order. dst may
// be any size; canvas coordinates are scaled to fit it.
func (c *Compositor) Render(dst *image.RGBA, t float64, p *timeline.Project, frames Frames) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)
	if p.Width <= 0 || p.Height <= 0 || dst.Bounds().Empty() {
		return
	}

	v := viewport{
		origin: dst.Bounds().Min,
		kx:     float64(dst.Bounds().Dx()) / float64(p.Width),
		ky:     float64(dst.Bounds().Dy()) / float64(p.Height),
		width:  float64(p.Width),
		height: float64(p.Height),
	}

	for _, active := range p.ActiveAt(t) {
		clip := active.Clip
		switch {
		case active.Subtitle:
			c.drawSubtitle(dst, v, clip, p.SubtitleStyle)
		case clip.Kind == timeline.KindText:
			c.drawText(dst, v, clip, t)
		case clip.Kind.IsMedia():
			if frames == nil {
				continue
			}
			img := frames.Frame(clip.ID)
			if img == nil {
				continue
			}
			w, h := clip.Width, clip.Height
			if w <= 0 || h <= 0 {
				w, h = img.Bounds().Dx(), img.Bounds().Dy()
			}
			tr := clip.TransformAt(t)
			c.drawTransformed(dst, v, img, float64(w)*tr.Scale.X, float64(h)*tr.Scale.Y, tr)
		}
	}
}

// viewport maps canvas pixels onto the destination image
type viewport struct {
	origin        image.Point
	kx, ky        float64
	width, height float64
}

// drawTransformed draws img into the box of size bw x bh canvas pixels whose
// top-left corner is the clip position, rotated about the box center
func (c *Compositor) drawTransformed(dst *image.RGBA, v viewport, img image.Image, bw, bh float64, tr timeline.Transform) {
	if tr.Opacity <= 0 || bw == 0 || bh == 0 {
		return
	}
	sr := img.Bounds()
	iw, ih := float64(sr.Dx()), float64(sr.Dy())
	if iw == 0 || ih == 0 {
		return
	}

	left := tr.Position.X * v.width
	top := tr.Position.Y * v.height
	cx := float64(v.origin.X) + (left+bw/2)*v.kx
	cy := float64(v.origin.Y) + (top+bh/2)*v.ky
	sx := bw * v.kx / iw
	sy := bh * v.ky / ih
	ox := float64(sr.Min.X) + iw/2
	oy := float64(sr.Min.Y) + ih/2

	rad := tr.Rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	a, b := cos*sx, -sin*sy
	d, e := sin*sx, cos*sy
	m := f64.Aff3{
		a, b, cx - a*ox - b*oy,
		d, e, cy - d*ox - e*oy,
	}

	var opts *draw.Options
	if tr.Opacity < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(math.Round(tr.Opacity * 255))})}
	}
	draw.ApproxBiLinear.Transform(dst, m, img, sr, draw.Over, opts)
}

// drawText draws an ordinary text clip inside its interpolated transform
func (c *Compositor) drawText(dst *image.RGBA, v viewport, clip timeline.Clip, t float64) {
	lines := splitLines(clip.Source)
	if len(lines) == 0 {
		return
	}
	face, err := c.fonts.Face(c.text.FontFamily, c.text.FontSize*v.kx, fonts.Style{})
	if err != nil {
		c.logger.Debug().Err(err).Str("clip", clip.ID).Msg("no face for text clip")
		return
	}
	layer := textBlock{lines: lines, face: face, color: c.textColor, align: timeline.AlignCenter}.render()
	if layer == nil {
		return
	}

	tr := clip.TransformAt(t)
	// the layer is rasterized at destination scale; convert back to canvas pixels
	bw := float64(layer.Bounds().Dx()) / v.kx * tr.Scale.X
	bh := float64(layer.Bounds().Dy()) / v.kx * tr.Scale.Y
	c.drawTransformed(dst, v, layer, bw, bh, tr)
}

// drawSubtitle lays a subtitle out with the subtitle style: wrapped to the
// canvas, anchored at the bottom margin and aligned horizontally
func (c *Compositor) drawSubtitle(dst *image.RGBA, v viewport, clip timeline.Clip, style timeline.SubtitleStyle) {
	size := style.FontSize
	if size <= 0 {
		size = c.text.FontSize
	}
	face, err := c.fonts.Face(style.FontFamily, size*v.kx, fonts.Style{Bold: style.Bold, Italic: style.Italic})
	if err != nil {
		c.logger.Debug().Err(err).Str("clip", clip.ID).Msg("no face for subtitle")
		return
	}

	dw := float64(dst.Bounds().Dx())
	dh := float64(dst.Bounds().Dy())
	margin := 0.05 * dw
	padding := int(math.Round(size * v.kx * 0.25))

	block := textBlock{
		lines:      wrapLines(face, clip.Source, int(dw-2*margin)-2*padding),
		face:       face,
		color:      mustColor(style.Color, color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
		background: mustColor(style.Background, color.NRGBA{}),
		align:      style.Alignment,
		underline:  style.Underline,
		padding:    padding,
	}
	layer := block.render()
	if layer == nil {
		return
	}

	lw, lh := float64(layer.Bounds().Dx()), float64(layer.Bounds().Dy())
	var x float64
	switch style.Alignment {
	case timeline.AlignLeft:
		x = margin
	case timeline.AlignRight:
		x = dw - margin - lw
	default:
		x = (dw - lw) / 2
	}
	y := dh*(1-style.BottomMargin) - lh

	at := dst.Bounds().Min.Add(image.Pt(int(math.Round(x)), int(math.Round(y))))
	draw.Draw(dst, layer.Bounds().Add(at), layer, image.Point{}, draw.Over)
}
