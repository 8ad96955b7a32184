package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Bitrate    int64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args []string
	// LogHandler receives every non-empty stderr line
	LogHandler func(line string)
}

// FrameOptions configures single frame extraction
type FrameOptions struct {
	// Width scales the frame keeping aspect ratio; zero keeps the source size
	Width int
	// Accurate decodes from the previous keyframe instead of seeking input-side
	Accurate bool
}
