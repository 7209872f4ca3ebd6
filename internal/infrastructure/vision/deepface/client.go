package deepface

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/core/analysis"
	"github.com/kirillkom/hirenet-interview/internal/core/domain"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/resilience"
)

// Client talks to the DeepFace emotion sidecar, which samples frames from
// an answer video and classifies each detected face. Aggregation into the
// distribution and indices happens here, not in the sidecar, so the
// numbers stay consistent with the rest of the pipeline.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithResilienceExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 180 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type analyzeRequest struct {
	VideoPath string `json:"video_path"`
}

type analyzeResponse struct {
	Frames []struct {
		Timestamp       float64            `json:"timestamp"`
		DominantEmotion string             `json:"dominant_emotion"`
		EmotionScores   map[string]float64 `json:"emotion_scores"`
	} `json:"frames"`
}

// Analyze returns the aggregated emotion profile for a video. A video in
// which no face is ever detected yields an empty profile, not an error;
// only an unreadable stream fails.
func (c *Client) Analyze(ctx context.Context, videoPath string) (domain.EmotionAnalysis, error) {
	var response analyzeResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/analyze", analyzeRequest{VideoPath: videoPath}, &response, "analyze")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "deepface.analyze", call, classifySidecarError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.EmotionAnalysis{}, err
	}

	frames := make([]domain.FrameEmotion, 0, len(response.Frames))
	for _, f := range response.Frames {
		frames = append(frames, domain.FrameEmotion{
			Timestamp:       f.Timestamp,
			DominantEmotion: f.DominantEmotion,
			EmotionScores:   f.EmotionScores,
		})
	}
	return analysis.AggregateEmotions(frames), nil
}
