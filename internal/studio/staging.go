package studio

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/timeline"
	"github.com/kikiluvv/slopstudio/pkg/util"
)

// staging tracks temporary copies of uploaded media. A copy is removed once
// no asset points at it any more.
type staging struct {
	logger zerolog.Logger
	dir    string
	files  map[string]bool
}

func newStaging(logger zerolog.Logger, dir string) *staging {
	return &staging{logger: logger, dir: dir, files: make(map[string]bool)}
}

func (s *staging) store(name string, r io.Reader) (string, error) {
	if err := util.EnsureDir(s.dir); err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}
	ext := filepath.Ext(name)
	f, err := util.TempFile(s.dir, "upload-", ext)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}
	path := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		util.CleanupFiles(path)
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		util.CleanupFiles(path)
		return "", fmt.Errorf("failed to stage %s: %w", name, err)
	}

	s.files[path] = true
	s.logger.Debug().Str("name", name).Str("path", path).Msg("media staged")
	return path, nil
}

// collect removes staged files that no asset of p references
func (s *staging) collect(p *timeline.Project) {
	if len(s.files) == 0 {
		return
	}
	referenced := make(map[string]bool, len(p.Assets))
	for _, a := range p.Assets {
		if a.LocalPath != "" {
			referenced[a.LocalPath] = true
		}
	}
	for path := range s.files {
		if referenced[path] {
			continue
		}
		s.remove(path)
	}
}

func (s *staging) removeAll() {
	for path := range s.files {
		s.remove(path)
	}
}

func (s *staging) remove(path string) {
	delete(s.files, path)
	if !util.Within(s.dir, path) {
		return
	}
	util.CleanupFiles(path)
	s.logger.Debug().Str("path", path).Msg("staged media removed")
}

// Staged lists the staged files still in use
func (s *Studio) Staged() []string {
	out := make([]string, 0, len(s.staging.files))
	for path := range s.staging.files {
		out = append(out, path)
	}
	return out
}
