package gui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/kikiluvv/slopstudio/internal/studio"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

const (
	rowHeight  = 28
	edgeWidth  = 6
	rowPadding = 4
)

var (
	clipColor     = color.NRGBA{R: 0x3a, G: 0x6e, B: 0xa5, A: 0xff}
	textColor     = color.NRGBA{R: 0x8a, G: 0x5a, B: 0xa8, A: 0xff}
	subtitleColor = color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	selectedColor = color.NRGBA{R: 0xf2, G: 0xb1, B: 0x34, A: 0xff}
	playheadColor = color.NRGBA{R: 0xe0, G: 0x30, B: 0x30, A: 0xff}
)

// edge says which part of a clip a pointer is over
type edge int

const (
	edgeNone edge = iota
	edgeBody
	edgeStart
	edgeEnd
)

// hitTest finds the clip under (x, y) in strip coordinates
func hitTest(p *timeline.Project, pps, x, y float64) (string, edge) {
	row := int(y / rowHeight)
	if row < 0 || row >= len(p.Tracks) || pps <= 0 {
		return "", edgeNone
	}
	for _, c := range p.Tracks[row].Clips {
		left := c.StartTime * pps
		right := c.EndTime * pps
		if x < left || x > right {
			continue
		}
		switch {
		case x-left <= edgeWidth && right-left > 3*edgeWidth:
			return c.ID, edgeStart
		case right-x <= edgeWidth && right-left > 3*edgeWidth:
			return c.ID, edgeEnd
		}
		return c.ID, edgeBody
	}
	return "", edgeNone
}

// timelineStrip draws one row per track and turns drags into timeline
// gestures. Tapping empty space seeks.
type timelineStrip struct {
	widget.BaseWidget

	studio  *studio.Studio
	content *fyne.Container
	head    *canvas.Line
	rows    int
	drag    edge

	onError func(err error)
}

func newTimelineStrip(s *studio.Studio, onError func(error)) *timelineStrip {
	t := &timelineStrip{
		studio:  s,
		content: container.NewWithoutLayout(),
		onError: onError,
	}
	t.ExtendBaseWidget(t)
	return t
}

func (t *timelineStrip) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

func (t *timelineStrip) pps() float64 {
	return t.studio.Timeline().PixelsPerSecond
}

// update rebuilds the strip from p
func (t *timelineStrip) update(p *timeline.Project) {
	pps := t.pps()
	subs := p.SubtitleIDs()

	extent := canvas.NewRectangle(color.Transparent)
	extent.SetMinSize(fyne.NewSize(float32((p.TotalDuration+5)*pps), float32(len(p.Tracks)*rowHeight)))
	objs := []fyne.CanvasObject{extent}

	for row, tr := range p.Tracks {
		for _, c := range tr.Clips {
			fill := clipColor
			_, sub := subs[c.ID]
			switch {
			case sub:
				fill = subtitleColor
			case c.Kind == timeline.KindText:
				fill = textColor
			}
			rect := canvas.NewRectangle(fill)
			if c.ID == p.Playback.SelectedClipID {
				rect.StrokeColor = selectedColor
				rect.StrokeWidth = 2
			}
			pos := fyne.NewPos(float32(c.StartTime*pps), float32(row*rowHeight))
			size := fyne.NewSize(float32(c.Duration*pps), rowHeight-rowPadding)
			rect.Move(pos)
			rect.Resize(size)

			label := canvas.NewText(clipLabel(c), color.White)
			label.TextSize = 11
			label.Move(pos.Add(fyne.NewPos(4, 4)))
			objs = append(objs, rect, label)
		}
	}

	t.head = canvas.NewLine(playheadColor)
	t.rows = len(p.Tracks)
	objs = append(objs, t.head)
	t.movePlayhead(t.studio.Time())

	t.content.Objects = objs
	t.content.Refresh()
}

// movePlayhead places the playhead at time at
func (t *timelineStrip) movePlayhead(at float64) {
	if t.head == nil {
		return
	}
	x := float32(at * t.pps())
	t.head.Position1 = fyne.NewPos(x, 0)
	t.head.Position2 = fyne.NewPos(x, float32(t.rows*rowHeight))
	t.head.Refresh()
}

func clipLabel(c timeline.Clip) string {
	name := c.Name
	if c.Kind == timeline.KindText {
		name = c.Source
	}
	return fmt.Sprintf("%s  %.1fs", name, c.Duration)
}

// Tapped selects the clip under the pointer, or seeks on empty space
func (t *timelineStrip) Tapped(ev *fyne.PointEvent) {
	p := t.studio.Snapshot()
	id, _ := hitTest(p, t.pps(), float64(ev.Position.X), float64(ev.Position.Y))
	if id == "" {
		t.studio.Player().Seek(float64(ev.Position.X) / t.pps())
		t.movePlayhead(t.studio.Time())
		return
	}
	if err := t.studio.Editor().Select(id); err != nil {
		t.onError(err)
	}
}

// Dragged moves or trims the clip the drag started on
func (t *timelineStrip) Dragged(ev *fyne.DragEvent) {
	if t.drag == edgeNone {
		start := ev.Position.Subtract(ev.Dragged)
		id, e := hitTest(t.studio.Snapshot(), t.pps(), float64(start.X), float64(start.Y))
		if id == "" {
			return
		}
		if err := t.studio.Editor().Select(id); err != nil {
			t.onError(err)
			return
		}
		t.drag = e
	}

	dx := float64(ev.Dragged.DX)
	var err error
	switch t.drag {
	case edgeStart:
		err = t.studio.Timeline().ResizeStart(dx)
	case edgeEnd:
		err = t.studio.Timeline().ResizeEnd(dx)
	default:
		err = t.studio.Timeline().Drag(dx)
	}
	if err != nil {
		t.drag = edgeNone
		t.onError(err)
	}
}

// DragEnd finishes the gesture
func (t *timelineStrip) DragEnd() {
	t.drag = edgeNone
}
