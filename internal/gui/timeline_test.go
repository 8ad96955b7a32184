package gui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kikiluvv/slopstudio/internal/gesture"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

func stripProject() *timeline.Project {
	p := timeline.New(1920, 1080)
	p.AppendClip(0, timeline.Clip{ID: "a", Kind: timeline.KindText, StartTime: 0, Duration: 4})
	p.AppendClip(0, timeline.Clip{ID: "b", Kind: timeline.KindText, StartTime: 5, Duration: 0.1})
	p.AppendClip(1, timeline.Clip{ID: "c", Kind: timeline.KindImage, StartTime: 1, Duration: 2})
	p.Normalize(0.1)
	return p
}

func TestHitTest(t *testing.T) {
	p := stripProject()
	const pps = 50

	tests := []struct {
		name string
		x, y float64
		id   string
		edge edge
	}{
		{"body", 100, 10, "a", edgeBody},
		{"start edge", 2, 10, "a", edgeStart},
		{"end edge", 198, 10, "a", edgeEnd},
		{"gap", 220, 10, "", edgeNone},
		{"short clip has no edges", 251, 10, "b", edgeBody},
		{"second track", 60, rowHeight + 5, "c", edgeBody},
		{"below tracks", 60, 3 * rowHeight, "", edgeNone},
		{"above", 60, -1, "", edgeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, e := hitTest(p, pps, tt.x, tt.y)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.edge, e)
		})
	}

	id, _ := hitTest(p, 0, 10, 10)
	assert.Empty(t, id)
}

func TestSyncTarget(t *testing.T) {
	p := stripProject()
	p.UpdateClip("c", func(c *timeline.Clip) {
		c.Width, c.Height = 400, 200
		c.Position = timeline.Vec2{X: 0.5, Y: 0.25}
		c.Scale = timeline.Vec2{X: 2, Y: 2}
		c.Rotation = 30
	})
	p.Zoom.Level = 0.5
	p.Playback.SelectedClipID = "c"

	box := &gesture.Box{}
	syncTarget(box, p, 1.5)
	assert.Equal(t, gesture.Box{X: 480, Y: 135, W: 400, H: 200, Degrees: 30}, *box)

	p.Playback.SelectedClipID = ""
	syncTarget(box, p, 1.5)
	assert.Equal(t, gesture.Box{}, *box)
}
