// Package gui is the fyne editor window around a studio session.
package gui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/config"
	"github.com/kikiluvv/slopstudio/internal/editor"
	"github.com/kikiluvv/slopstudio/internal/gesture"
	"github.com/kikiluvv/slopstudio/internal/runloop"
	"github.com/kikiluvv/slopstudio/internal/studio"
	"github.com/kikiluvv/slopstudio/internal/subtitles"
	"github.com/kikiluvv/slopstudio/internal/timeline"
	"github.com/kikiluvv/slopstudio/internal/viewport"
	"github.com/kikiluvv/slopstudio/pkg/util"
)

// Options lists what to open on start
type Options struct {
	Media     []string
	Subtitles string
	// Watch re-ingests Subtitles whenever the file changes
	Watch bool
}

var (
	mediaExtensions    = []string{".mp4", ".mov", ".m4v", ".mkv", ".webm", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}
	subtitleExtensions = []string{".srt", ".vtt"}
	rates              = []string{"0.25x", "0.5x", "1x", "1.5x", "2x"}
)

// Run opens the editor window and blocks until it is closed
func Run(logger zerolog.Logger, cfg *config.Config, opts Options) error {
	a := app.NewWithID("slopstudio")
	w := a.NewWindow("slopStudio")
	w.Resize(fyne.NewSize(1280, 860))

	st, err := studio.New(logger, cfg, studio.Options{
		Dispatcher: runloop.DispatchFunc(fyne.Do),
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())

	status := widget.NewLabel("Ready")
	report := func(err error) {
		switch {
		case errors.Is(err, gesture.ErrDegenerate):
			return
		case errors.Is(err, gesture.ErrRejected), errors.Is(err, editor.ErrSubtitleClip):
			status.SetText("Subtitles can only be changed with the subtitle controls")
		default:
			status.SetText(err.Error())
		}
	}

	preview := newPreviewArea(st, report)
	strip := newTimelineStrip(st, report)

	timeLabel := widget.NewLabel(clock(0, 0))
	seek := widget.NewSlider(0, 1)
	seek.Step = 0.01
	var syncing bool
	seek.OnChanged = func(v float64) {
		if syncing {
			return
		}
		st.Player().Seek(v)
		strip.movePlayhead(st.Time())
	}
	showTime := func() {
		p := st.Snapshot()
		syncing = true
		seek.Max = max(p.TotalDuration, 0.01)
		seek.SetValue(st.Time())
		syncing = false
		timeLabel.SetText(clock(st.Time(), p.TotalDuration))
		strip.movePlayhead(st.Time())
	}

	playButton := widget.NewButton("Play", nil)
	playButton.OnTapped = func() {
		if err := st.Player().Toggle(); err != nil {
			report(err)
		}
	}

	mute := widget.NewCheck("Mute", st.SetMuted)
	rate := widget.NewSelect(rates, func(v string) {
		r, err := strconv.ParseFloat(strings.TrimSuffix(v, "x"), 64)
		if err == nil {
			err = st.SetRate(r)
		}
		if err != nil {
			report(err)
		}
	})
	rate.SetSelected("1x")

	zoomChoices := []string{string(timeline.ZoomFit), string(timeline.ZoomFill)}
	for _, pct := range viewport.Presets {
		zoomChoices = append(zoomChoices, fmt.Sprintf("%g%%", pct))
	}
	zoom := widget.NewSelect(zoomChoices, func(v string) {
		var err error
		if pct, ok := strings.CutSuffix(v, "%"); ok {
			var n float64
			if n, err = strconv.ParseFloat(pct, 64); err == nil {
				_, err = st.Viewport().SelectPercent(n)
			}
		} else {
			_, err = st.Viewport().SelectMode(timeline.ZoomMode(v))
		}
		if err != nil {
			report(err)
		}
	})
	zoom.SetSelected(string(timeline.ZoomFit))

	textEntry := widget.NewEntry()
	textEntry.SetPlaceHolder("Text")
	addText := widget.NewButton("Add Text", func() {
		text := strings.TrimSpace(textEntry.Text)
		if text == "" {
			text = "Text"
		}
		if _, err := st.Editor().AddTextClip(text); err != nil {
			report(err)
		}
	})
	updateText := widget.NewButton("Set Text", func() {
		if err := st.Editor().UpdateText(textEntry.Text); err != nil {
			report(err)
		}
	})
	deleteButton := widget.NewButton("Delete", func() {
		if err := st.Editor().Delete(); err != nil {
			report(err)
		}
	})

	opacity := widget.NewSlider(0, 1)
	opacity.Step = 0.01
	opacity.OnChangeEnded = func(v float64) {
		if err := st.Editor().UpdateProperty(editor.Patch{Opacity: &v}); err != nil {
			report(err)
		}
	}

	keyProps := make([]string, 0, len(timeline.AnimatableProperties))
	for _, prop := range timeline.AnimatableProperties {
		keyProps = append(keyProps, string(prop))
	}
	keyProp := widget.NewSelect(keyProps, nil)
	keyProp.SetSelected(string(timeline.PropPosition))
	keyButton := widget.NewButton("Keyframe", func() {
		prop := timeline.Property(keyProp.Selected)
		if err := st.Editor().AddOrUpdateKeyframe(prop, st.Time()); err != nil {
			report(err)
		}
	})

	importButton := widget.NewButton("Import Media", func() {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				report(err)
				return
			}
			if r == nil {
				return
			}
			defer r.Close()
			if err := upload(st, r.URI().Name(), r); err != nil {
				report(err)
			}
		}, w)
		fd.SetFilter(storage.NewExtensionFileFilter(mediaExtensions))
		fd.Show()
	})

	subtitlesButton := widget.NewButton("Load Subtitles", func() {
		fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err != nil {
				report(err)
				return
			}
			if r == nil {
				return
			}
			defer r.Close()
			data, err := io.ReadAll(r)
			if err != nil {
				report(err)
				return
			}
			if err := st.SubtitlesReady(string(data)); err != nil {
				report(err)
			}
		}, w)
		fd.SetFilter(storage.NewExtensionFileFilter(subtitleExtensions))
		fd.Show()
	})

	alignment := widget.NewSelect([]string{
		string(timeline.AlignLeft), string(timeline.AlignCenter), string(timeline.AlignRight),
	}, func(v string) {
		style := st.Snapshot().SubtitleStyle
		style.Alignment = timeline.Alignment(v)
		if err := st.Editor().RestyleSubtitles(style); err != nil {
			report(err)
		}
	})
	alignment.SetSelected(string(st.Snapshot().SubtitleStyle.Alignment))

	st.OnDraw = func(*image.RGBA) {
		preview.redraw()
		showTime()
		if st.Playing() {
			playButton.SetText("Pause")
		} else {
			playButton.SetText("Play")
		}
	}
	st.OnChange = func(p *timeline.Project) {
		preview.update(p)
		strip.update(p)
		if c, ok := p.Clip(p.Playback.SelectedClipID); ok && !p.IsSubtitle(c.ID) {
			opacity.SetValue(c.Opacity)
			if c.Kind == timeline.KindText {
				textEntry.SetText(c.Source)
			}
		}
		showTime()
	}
	st.OnError = func(clipID string, err error) {
		dialog.ShowError(fmt.Errorf("a clip was removed because its media failed to load: %w", err), w)
	}

	for _, path := range opts.Media {
		if _, err := st.AddMedia(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("could not open media")
		}
	}
	if opts.Subtitles != "" {
		loadSubtitles(st, opts.Subtitles, report)
		if opts.Watch {
			go watchSubtitles(ctx, logger, st, opts.Subtitles, report)
		}
	}
	preview.update(st.Snapshot())
	strip.update(st.Snapshot())

	transport := container.NewHBox(playButton, mute, rate, widget.NewLabel("Zoom"), zoom, timeLabel)
	tools := container.NewHBox(
		importButton, subtitlesButton, alignment,
		widget.NewSeparator(),
		textEntry, addText, updateText, deleteButton,
		widget.NewSeparator(),
		keyProp, keyButton, widget.NewLabel("Opacity"),
	)
	bottom := container.NewVBox(
		seek,
		transport,
		container.NewBorder(nil, nil, tools, nil, opacity),
		container.NewGridWrap(fyne.NewSize(1240, 160), container.NewScroll(strip)),
		status,
	)
	w.SetContent(container.NewBorder(nil, bottom, nil, nil, preview))

	w.SetOnClosed(func() {
		cancel()
		st.Close()
	})
	w.ShowAndRun()
	return nil
}

func upload(st *studio.Studio, name string, r io.Reader) error {
	asset, err := st.Upload(name, r)
	if err != nil {
		return err
	}
	_, err = st.AssetIngested(asset.ID, "")
	return err
}

func loadSubtitles(st *studio.Studio, path string, report func(error)) {
	data, err := os.ReadFile(path)
	if err != nil {
		report(err)
		return
	}
	if err := st.SubtitlesReady(string(data)); err != nil {
		report(err)
	}
}

func watchSubtitles(ctx context.Context, logger zerolog.Logger, st *studio.Studio, path string, report func(error)) {
	err := subtitles.Watch(ctx, logger, path, func(entries []timeline.SubtitleEntry, err error) {
		fyne.Do(func() {
			if err != nil && !errors.Is(err, subtitles.ErrNoEntries) {
				report(err)
				return
			}
			if err := st.Editor().IngestSubtitles(entries); err != nil {
				report(err)
			}
		})
	})
	if err != nil {
		fyne.Do(func() { report(err) })
	}
}

func clock(t, total float64) string {
	return util.FormatSeconds(t) + " / " + util.FormatSeconds(total)
}
