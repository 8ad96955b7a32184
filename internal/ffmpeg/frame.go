package ffmpeg

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"time"

	"github.com/kikiluvv/slopstudio/pkg/util"
)

// ExtractFrame writes the frame at ts of input to output as a single image
func (e *Executor) ExtractFrame(ctx context.Context, input string, ts time.Duration, output string, opts FrameOptions) error {
	if input == "" || output == "" {
		return fmt.Errorf("input and output are required")
	}
	if ts < 0 {
		ts = 0
	}

	seek := []string{"-ss", util.FormatDuration(ts)}
	args := make([]string, 0, 12)
	if opts.Accurate {
		args = append(args, "-i", input)
		args = append(args, seek...)
	} else {
		args = append(args, seek...)
		args = append(args, "-i", input)
	}
	args = append(args, "-frames:v", "1")
	if filter := NewFilterBuilder().ScaleWidth(opts.Width).Build(); filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args, output)

	e.logger.Debug().
		Str("input", input).
		Dur("at", ts).
		Int("width", opts.Width).
		Msg("extracting frame")

	logLine := func(line string) {
		e.logger.Trace().Str("input", input).Msg(line)
	}
	if err := e.Run(ctx, RunOptions{Args: args, LogHandler: logLine}); err != nil {
		return fmt.Errorf("extract frame at %s: %w", util.FormatDuration(ts), err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("frame not written: %w", err)
	}
	if info.Size() == 0 {
		// ffmpeg exits cleanly when seeking past the last frame
		return fmt.Errorf("no frame at %s", util.FormatDuration(ts))
	}
	return nil
}

// Frame decodes the frame at ts of input into memory
func (e *Executor) Frame(ctx context.Context, input string, ts time.Duration, opts FrameOptions) (image.Image, error) {
	f, err := util.TempFile("", "slopstudio-frame-", ".png")
	if err != nil {
		return nil, err
	}
	tmp := f.Name()
	f.Close()
	defer util.CleanupFiles(tmp)

	if err := e.ExtractFrame(ctx, input, ts, tmp, opts); err != nil {
		return nil, err
	}
	return decodeFile(tmp)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// WritePNG encodes img to path
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
