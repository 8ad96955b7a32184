// Package media binds timeline clips to decodable media handles.
package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/h2non/filetype"

	"github.com/kikiluvv/slopstudio/internal/timeline"
	"github.com/kikiluvv/slopstudio/pkg/util"
)

// ErrUnsupported is returned for media the editor cannot decode
var ErrUnsupported = errors.New("unsupported media")

// Metadata is what a handle learns about its source once loaded
type Metadata struct {
	Width    int
	Height   int
	Duration float64 // seconds; zero for stills
}

// Handle is an off-screen decodable media resource bound to one locator.
// Load and Capture may be called from any goroutine; the remaining methods are
// called from the editor goroutine.
type Handle interface {
	Source() string
	Load(ctx context.Context) (Metadata, error)
	// Capture returns the frame at t without disturbing playback position or state
	Capture(ctx context.Context, t float64) (image.Image, error)
	Seek(t float64)
	Play(rate float64)
	Pause()
	Paused() bool
	Position() float64
	// Frame returns the current visual content, or nil before the first decode
	Frame() image.Image
	Close() error
}

// Opener creates handles. notify is invoked from any goroutine whenever the
// handle's visible frame changes.
type Opener interface {
	Open(kind timeline.Kind, source string, notify func()) (Handle, error)
}

// OpenerFunc adapts a function to an Opener
type OpenerFunc func(kind timeline.Kind, source string, notify func()) (Handle, error)

// Open calls f
func (f OpenerFunc) Open(kind timeline.Kind, source string, notify func()) (Handle, error) {
	return f(kind, source, notify)
}

// DefaultOpener opens images in-process and videos through ffmpeg
type DefaultOpener struct {
	Decoder     FrameDecoder
	DecodeWidth int
}

// Open implements Opener
func (o DefaultOpener) Open(kind timeline.Kind, source string, notify func()) (Handle, error) {
	switch kind {
	case timeline.KindImage:
		return NewImageHandle(source), nil
	case timeline.KindVideo:
		if o.Decoder == nil {
			return nil, fmt.Errorf("no video decoder configured: %w", ErrUnsupported)
		}
		return NewVideoHandle(o.Decoder, source, o.DecodeWidth, notify), nil
	}
	return nil, fmt.Errorf("%s clips: %w", kind, ErrUnsupported)
}

var (
	videoExtensions = map[string]bool{
		"mp4": true, "mov": true, "m4v": true, "mkv": true, "webm": true, "avi": true, "mpg": true, "mpeg": true,
	}
	imageExtensions = map[string]bool{
		"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true, "webp": true, "tif": true, "tiff": true,
	}
)

// SniffKind decides whether a file is a video or an image by its header,
// falling back to the extension for remote locators and unknown headers.
func SniffKind(path string) (timeline.Kind, error) {
	if !util.IsRemote(path) {
		if t, err := filetype.MatchFile(path); err == nil && t != filetype.Unknown {
			switch t.MIME.Type {
			case "video":
				return timeline.KindVideo, nil
			case "image":
				return timeline.KindImage, nil
			}
		}
	}

	ext := util.GetExtension(strings.SplitN(path, "?", 2)[0])
	switch {
	case videoExtensions[ext]:
		return timeline.KindVideo, nil
	case imageExtensions[ext]:
		return timeline.KindImage, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupported)
}
