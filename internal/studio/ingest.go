package studio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/kikiluvv/slopstudio/internal/config"
	"github.com/kikiluvv/slopstudio/internal/subtitles"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// AddMedia ingests a local file in one step; the asset keeps its path
func (s *Studio) AddMedia(path string) (timeline.Clip, error) {
	asset, err := s.editor.BeginIngest(filepath.Base(path), path)
	if err != nil {
		return timeline.Clip{}, err
	}
	return s.editor.IngestMedia(asset.ID, "")
}

// Upload copies r into the staging directory and registers the copy as a
// temporary asset. AssetIngested completes it.
func (s *Studio) Upload(name string, r io.Reader) (timeline.MediaAsset, error) {
	path, err := s.staging.store(name, r)
	if err != nil {
		return timeline.MediaAsset{}, err
	}
	asset, err := s.editor.BeginIngest(name, path)
	if err != nil {
		s.staging.remove(path)
		return timeline.MediaAsset{}, err
	}
	return asset, nil
}

// AssetIngested completes an ingest. An empty durable locator keeps the
// staged copy.
func (s *Studio) AssetIngested(assetID, durable string) (timeline.Clip, error) {
	return s.editor.IngestMedia(assetID, durable)
}

// SubtitlesReady parses timed text and replaces the subtitles with it. When
// nothing parses the subtitles are cleared and ErrNoEntries is returned.
func (s *Studio) SubtitlesReady(content string) error {
	entries, err := subtitles.Parse(content)
	if err != nil && !errors.Is(err, subtitles.ErrNoEntries) {
		return err
	}
	if errors.Is(err, subtitles.ErrNoEntries) {
		s.logger.Warn().Msg("subtitle source had no valid entries")
	}
	if ingestErr := s.editor.IngestSubtitles(entries); ingestErr != nil {
		return ingestErr
	}
	return err
}

// TranscriptReady replaces the subtitles with transcription segments
func (s *Studio) TranscriptReady(segments []subtitles.Segment) error {
	entries, err := subtitles.FromSegments(segments)
	if err != nil {
		s.logger.Warn().Err(err).Int("segments", len(segments)).Msg("transcript had no valid segments")
	}
	if ingestErr := s.editor.IngestSubtitles(entries); ingestErr != nil {
		return ingestErr
	}
	return err
}

// SubtitleStyle converts configured subtitle defaults
func SubtitleStyle(c config.SubtitleConfig) (timeline.SubtitleStyle, error) {
	align := timeline.Alignment(c.Alignment)
	switch align {
	case timeline.AlignLeft, timeline.AlignCenter, timeline.AlignRight:
	case "":
		align = timeline.AlignCenter
	default:
		return timeline.SubtitleStyle{}, fmt.Errorf("unknown subtitle alignment %q", c.Alignment)
	}
	return timeline.SubtitleStyle{
		FontFamily:   c.FontFamily,
		FontSize:     c.FontSize,
		Alignment:    align,
		Bold:         c.Bold,
		Italic:       c.Italic,
		Underline:    c.Underline,
		Color:        c.Color,
		Background:   c.Background,
		BottomMargin: c.BottomMargin,
	}, nil
}
