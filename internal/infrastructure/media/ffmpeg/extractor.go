package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor shells out to ffmpeg to pull a mono 16 kHz PCM WAV track out
// of an uploaded answer video. 16 kHz mono is what the transcription
// sidecar expects.
type Extractor struct {
	binary string
}

func New() *Extractor {
	return NewWithBinary("ffmpeg")
}

func NewWithBinary(binary string) *Extractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Extractor{binary: binary}
}

// Extract writes the audio next to the video, swapping the extension
// for .wav, and returns the audio path.
func (e *Extractor) Extract(ctx context.Context, videoPath string) (string, error) {
	audioPath := AudioPathFor(videoPath)

	args := []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg %s: %w: %s", videoPath, err, tail(stderr.String(), 400))
	}
	return audioPath, nil
}

// AudioPathFor maps a video path to its extracted-audio sibling.
func AudioPathFor(videoPath string) string {
	if idx := strings.LastIndexByte(videoPath, '.'); idx > strings.LastIndexByte(videoPath, '/') {
		return videoPath[:idx] + ".wav"
	}
	return videoPath + ".wav"
}

// tail keeps the end of ffmpeg's stderr, where the actual error lives.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
