package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/slopstudio/internal/logging"
)

// Options locates the ffmpeg binaries. Empty paths are looked up on PATH.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	Threads     int
}

// Executor runs ffprobe and ffmpeg
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	ffmpegPath, err := resolve(opts.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, err
	}

	ffprobePath, err := resolve(opts.FFprobePath, "ffprobe")
	if err != nil {
		return nil, err
	}

	return &Executor{
		logger:      logging.Component(logger, "ffmpeg"),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
	}, nil
}

func resolve(path, name string) (string, error) {
	if path == "" {
		path = name
	}
	found, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", name, err)
	}
	return found, nil
}

// stderrTail is how many trailing stderr lines a failed run reports
const stderrTail = 5

// Run executes ffmpeg with the given arguments. Stderr lines go to the log
// handler, and the last few are attached to the error of a failed run.
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	// Build args with threads BEFORE other arguments
	baseArgs := []string{"-y", "-hide_banner", "-loglevel", "error"}

	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", fmt.Sprintf("%d", e.threads))
	}

	args := append(baseArgs, opts.Args...)

	e.logger.Trace().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := collectOutput(stderr, stderrTail, opts.LogHandler)

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return runError(err, tail)
	}

	return nil
}

// collectOutput reads r line by line, passing each line to handler, and
// returns the last keep non-empty lines
func collectOutput(r io.Reader, keep int, handler func(string)) []string {
	scanner := bufio.NewScanner(r)
	var tail []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if handler != nil {
			handler(line)
		}
		tail = append(tail, line)
		if len(tail) > keep {
			tail = tail[1:]
		}
	}
	return tail
}

func runError(err error, tail []string) error {
	if len(tail) == 0 {
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	return fmt.Errorf("ffmpeg execution failed: %w: %s", err, strings.Join(tail, "; "))
}

// IsCanceled reports whether err came from a canceled or expired context
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
