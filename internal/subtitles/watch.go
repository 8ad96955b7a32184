package subtitles

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/logging"
	"github.com/kikiluvv/slopstudio/internal/timeline"
)

// Watch re-parses path whenever it is written or replaced and hands the
// result to fn. It blocks until ctx is done. fn runs on the watcher
// goroutine.
func Watch(ctx context.Context, logger zerolog.Logger, path string, fn func([]timeline.SubtitleEntry, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	// watch the directory so editors that save by rename are still seen
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger = logging.Component(logger, "subtitles").With().Str("path", abs).Logger()
	logger.Debug().Msg("watching subtitle file")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			entries, err := ParseFile(abs)
			logger.Debug().Int("entries", len(entries)).Err(err).Msg("subtitle file changed")
			fn(entries, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}
