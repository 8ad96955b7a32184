package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// textBlock is a laid out run of lines ready to rasterize
type textBlock struct {
	lines      []string
	face       font.Face
	color      color.Color
	background color.NRGBA
	align      timeline.Alignment
	underline  bool
	padding    int
}

// render rasterizes the block onto a transparent layer sized to fit it
func (b textBlock) render() *image.RGBA {
	if len(b.lines) == 0 {
		return nil
	}

	m := b.face.Metrics()
	ascent := m.Ascent.Ceil()
	lineH := m.Height.Ceil()
	if lineH <= 0 {
		lineH = ascent + m.Descent.Ceil()
	}

	widths := make([]int, len(b.lines))
	maxW := 0
	for i, line := range b.lines {
		widths[i] = font.MeasureString(b.face, line).Ceil()
		maxW = max(maxW, widths[i])
	}
	if maxW == 0 {
		return nil
	}

	w := maxW + 2*b.padding
	h := lineH*len(b.lines) + 2*b.padding
	layer := image.NewRGBA(image.Rect(0, 0, w, h))
	if b.background.A > 0 {
		draw.Draw(layer, layer.Bounds(), image.NewUniform(b.background), image.Point{}, draw.Src)
	}

	src := image.NewUniform(b.color)
	d := font.Drawer{Dst: layer, Src: src, Face: b.face}
	thickness := max(1, lineH/16)
	for i, line := range b.lines {
		x := b.padding
		switch b.align {
		case timeline.AlignCenter:
			x += (maxW - widths[i]) / 2
		case timeline.AlignRight:
			x += maxW - widths[i]
		}
		baseline := b.padding + i*lineH + ascent
		d.Dot = fixed.P(x, baseline)
		d.DrawString(line)

		if b.underline && widths[i] > 0 {
			y := baseline + thickness + 1
			r := image.Rect(x, y, x+widths[i], y+thickness).Intersect(layer.Bounds())
			draw.Draw(layer, r, src, image.Point{}, draw.Over)
		}
	}
	return layer
}

// wrapLines splits text on newlines and greedily wraps each paragraph to
// maxWidth pixels. A single word wider than maxWidth gets a line of its own.
func wrapLines(face font.Face, text string, maxWidth int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if maxWidth > 0 && font.MeasureString(face, candidate).Ceil() > maxWidth {
				out = append(out, line)
				line = w
				continue
			}
			line = candidate
		}
		out = append(out, line)
	}
	return out
}

// splitLines keeps explicit line breaks and drops trailing blank lines
func splitLines(text string) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 1 && strings.TrimSpace(lines[0]) == "" {
		return nil
	}
	return lines
}
