package editor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// BeginIngest registers an asset that is still only reachable through its
// temporary local path
func (m *Manager) BeginIngest(name, localPath string) (timeline.MediaAsset, error) {
	kind, err := m.Sniff(localPath)
	if err != nil {
		m.logger.Warn().Err(err).Str("path", localPath).Msg("ingest rejected")
		return timeline.MediaAsset{}, fmt.Errorf("ingest %s: %w", name, err)
	}

	asset := timeline.MediaAsset{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		LocalPath: localPath,
	}
	m.store.Update(func(p *timeline.Project) {
		p.Assets = append(p.Assets, asset)
	})

	m.logger.Debug().
		Str("asset", asset.ID).
		Str("kind", string(kind)).
		Str("path", localPath).
		Msg("ingest started")
	return asset, nil
}

// IngestMedia completes an ingest: the asset switches to its durable locator
// and a clip for it is appended after every existing clip and selected. An
// empty durable locator keeps the asset on its local path.
func (m *Manager) IngestMedia(assetID, durable string) (timeline.Clip, error) {
	asset, ok := m.store.Snapshot().Asset(assetID)
	if !ok {
		m.logger.Warn().Str("asset", assetID).Msg("ingest completed for unknown asset")
		return timeline.Clip{}, ErrUnknownAsset
	}

	duration := m.opts.ImageDuration
	if asset.Kind == timeline.KindVideo {
		duration = m.opts.PlaceholderVideoDuration
	}

	id := uuid.NewString()
	snap := m.store.Update(func(p *timeline.Project) {
		p.UpdateAsset(assetID, func(a *timeline.MediaAsset) {
			if durable != "" {
				a.RemoteURL = durable
				a.LocalPath = ""
			}
		})
		a, _ := p.Asset(assetID)

		c := newClip(id, asset.Kind, a.Locator(), p.MaxEndTime(), duration)
		c.AssetID = assetID
		c.Name = asset.Name
		p.AppendClip(0, c)
		p.Playback.SelectedClipID = id
	})

	c, _ := snap.Clip(id)
	m.logger.Info().
		Str("clip", id).
		Str("asset", assetID).
		Str("kind", string(asset.Kind)).
		Float64("start", c.StartTime).
		Msg("media ingested")
	return c, nil
}

// IngestSubtitles replaces the subtitle list wholesale and materializes each
// entry as a text clip on the subtitle track. Entries without an id get one.
func (m *Manager) IngestSubtitles(entries []timeline.SubtitleEntry) error {
	subs := make([]timeline.SubtitleEntry, 0, len(entries))
	for _, e := range entries {
		if !finite(e.StartTime, e.EndTime) || e.EndTime <= e.StartTime {
			m.logger.Debug().Float64("start", e.StartTime).Float64("end", e.EndTime).Msg("skipping empty subtitle entry")
			continue
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		subs = append(subs, e)
	}

	m.store.Update(func(p *timeline.Project) {
		old := p.SubtitleIDs()
		tracks := p.Tracks[:0:0]
		for _, tr := range p.Tracks {
			if tr.ID == timeline.SubtitleTrackID {
				continue
			}
			kept := tr.Clips[:0:0]
			for _, c := range tr.Clips {
				if _, ok := old[c.ID]; !ok {
					kept = append(kept, c)
				}
			}
			tr.Clips = kept
			tracks = append(tracks, tr)
		}

		track := timeline.Track{ID: timeline.SubtitleTrackID}
		for _, e := range subs {
			c := newClip(e.ID, timeline.KindText, e.Text, e.StartTime, e.EndTime-e.StartTime)
			c.Name = "Subtitle"
			track.Clips = append(track.Clips, c)
		}
		p.Tracks = append(tracks, track)
		p.Subtitles = subs

		if _, ok := old[p.Playback.SelectedClipID]; ok || p.IsSubtitle(p.Playback.SelectedClipID) {
			p.Playback.SelectedClipID = ""
		}
	})

	m.logger.Info().Int("entries", len(subs)).Msg("subtitles ingested")
	return nil
}

// RestyleSubtitles replaces the style applied to every subtitle
func (m *Manager) RestyleSubtitles(style timeline.SubtitleStyle) error {
	if !finite(style.FontSize, style.BottomMargin) || style.FontSize <= 0 || style.BottomMargin < 0 || style.BottomMargin >= 1 {
		return m.reject("restyle", "", ErrInvalidStyle)
	}
	switch style.Alignment {
	case timeline.AlignLeft, timeline.AlignCenter, timeline.AlignRight:
	case "":
		style.Alignment = timeline.AlignCenter
	default:
		return m.reject("restyle", "", fmt.Errorf("alignment %q: %w", style.Alignment, ErrInvalidStyle))
	}

	m.store.Update(func(p *timeline.Project) {
		p.SubtitleStyle = style
	})
	return nil
}
