package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kikiluvv/slopstudio/pkg/util"
)

// ImageHandle is a still image decoded once on Load
type ImageHandle struct {
	source string

	mu  sync.Mutex
	img image.Image
}

// NewImageHandle creates an unloaded handle for source
func NewImageHandle(source string) *ImageHandle {
	return &ImageHandle{source: source}
}

func (h *ImageHandle) Source() string { return h.source }

// Load fetches and decodes the image
func (h *ImageHandle) Load(ctx context.Context) (Metadata, error) {
	rc, err := openLocator(ctx, h.source)
	if err != nil {
		return Metadata{}, err
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return Metadata{}, fmt.Errorf("decode %s: %w", h.source, err)
	}

	h.mu.Lock()
	h.img = img
	h.mu.Unlock()

	b := img.Bounds()
	return Metadata{Width: b.Dx(), Height: b.Dy()}, nil
}

// Capture returns the decoded image regardless of t
func (h *ImageHandle) Capture(ctx context.Context, t float64) (image.Image, error) {
	if img := h.Frame(); img != nil {
		return img, nil
	}
	return nil, fmt.Errorf("image %s not loaded", h.source)
}

func (h *ImageHandle) Seek(t float64)    {}
func (h *ImageHandle) Play(rate float64) {}
func (h *ImageHandle) Pause()            {}
func (h *ImageHandle) Paused() bool      { return true }
func (h *ImageHandle) Position() float64 { return 0 }

func (h *ImageHandle) Frame() image.Image {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.img
}

func (h *ImageHandle) Close() error {
	h.mu.Lock()
	h.img = nil
	h.mu.Unlock()
	return nil
}

// openLocator opens a local path or an http(s) URL
func openLocator(ctx context.Context, locator string) (io.ReadCloser, error) {
	if !util.IsRemote(locator) {
		f, err := os.Open(locator)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", locator, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", locator, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", locator, resp.StatusCode)
	}
	return resp.Body, nil
}
