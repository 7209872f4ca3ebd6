package ffmpeg

import (
	"context"
	"strings"
	"testing"
)

func TestAudioPathFor(t *testing.T) {
	cases := []struct {
		video string
		want  string
	}{
		{"/uploads/s-1/q-1.webm", "/uploads/s-1/q-1.wav"},
		{"/uploads/s-1/q-1.mp4", "/uploads/s-1/q-1.wav"},
		{"/uploads/s.1/clip", "/uploads/s.1/clip.wav"},
		{"clip.webm", "clip.wav"},
	}
	for _, tc := range cases {
		if got := AudioPathFor(tc.video); got != tc.want {
			t.Errorf("AudioPathFor(%q) = %q, want %q", tc.video, got, tc.want)
		}
	}
}

func TestExtractAudioReportsMissingBinary(t *testing.T) {
	extractor := NewWithBinary("ffmpeg-binary-that-does-not-exist")
	_, err := extractor.Extract(context.Background(), "/tmp/nope.webm")
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
	if !strings.Contains(err.Error(), "/tmp/nope.webm") {
		t.Fatalf("error must name the input, got %v", err)
	}
}

func TestTailTruncatesLongStderr(t *testing.T) {
	long := strings.Repeat("x", 1000)
	got := tail(long, 400)
	if len(got) != 403 {
		t.Fatalf("len = %d, want 403", len(got))
	}
	if !strings.HasPrefix(got, "...") {
		t.Fatalf("truncated output must be marked: %q", got[:10])
	}
}
