package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/kikiluvv/slopstudio/internal/gesture"
	"github.com/kikiluvv/slopstudio/internal/studio"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// previewArea shows the composited surface at the current zoom. Dragging
// moves the selected clip, shift-dragging scales it and alt-dragging
// rotates it.
type previewArea struct {
	widget.BaseWidget

	studio   *studio.Studio
	image    *canvas.Image
	scroll   *container.Scroll
	modifier fyne.KeyModifier

	onError func(err error)
}

func newPreviewArea(s *studio.Studio, onError func(error)) *previewArea {
	img := canvas.NewImageFromImage(s.Surface())
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleFastest

	p := &previewArea{
		studio:  s,
		image:   img,
		scroll:  container.NewScroll(container.NewCenter(img)),
		onError: onError,
	}
	p.ExtendBaseWidget(p)
	return p
}

func (p *previewArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(p.scroll)
}

// Resize reports the container size to the zoom controller
func (p *previewArea) Resize(size fyne.Size) {
	p.BaseWidget.Resize(size)
	p.studio.ContainerResized(float64(size.Width), float64(size.Height))
}

// update applies the zoom and re-targets the gesture box at the selection
func (p *previewArea) update(proj *timeline.Project) {
	zoom := float32(proj.Zoom.Level)
	p.image.SetMinSize(fyne.NewSize(float32(proj.Width)*zoom, float32(proj.Height)*zoom))
	p.scroll.Refresh()
	syncTarget(p.studio.Preview().Target(), proj, p.studio.Time())
}

// redraw shows the latest surface
func (p *previewArea) redraw() {
	p.image.Refresh()
}

// MouseDown remembers the modifiers the gesture started with
func (p *previewArea) MouseDown(ev *desktop.MouseEvent) {
	p.modifier = ev.Modifier
}

func (p *previewArea) MouseUp(*desktop.MouseEvent) {}

// Dragged maps the drag onto the selected clip
func (p *previewArea) Dragged(ev *fyne.DragEvent) {
	ctl := p.studio.Preview()
	dx, dy := float64(ev.Dragged.DX), float64(ev.Dragged.DY)

	var err error
	switch {
	case p.modifier&fyne.KeyModifierShift != 0:
		w, h := ctl.Target().Size()
		if w > 0 {
			nw := w + dx
			err = ctl.Resize(nw, nw*h/w)
		}
	case p.modifier&fyne.KeyModifierAlt != 0:
		err = ctl.Rotate(ctl.Target().Rotation() + dx)
	default:
		err = ctl.Drag(dx, dy)
	}
	if err != nil {
		p.onError(err)
	}
}

// DragEnd finishes the gesture
func (p *previewArea) DragEnd() {
	p.modifier = 0
}

// syncTarget places the gesture box over the selected clip in screen units
func syncTarget(target gesture.Target, p *timeline.Project, t float64) {
	c, ok := p.Clip(p.Playback.SelectedClipID)
	if !ok || p.IsSubtitle(c.ID) {
		target.Reset()
		return
	}
	zoom := p.Zoom.Level
	tr := c.TransformAt(t)
	target.SetPosition(tr.Position.X*float64(p.Width)*zoom, tr.Position.Y*float64(p.Height)*zoom)
	target.SetSize(float64(c.Width)*tr.Scale.X*zoom, float64(c.Height)*tr.Scale.Y*zoom)
	target.SetRotation(tr.Rotation)
}
