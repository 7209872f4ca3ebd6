package whisperx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/resilience"
)

// Client talks to the WhisperX transcription sidecar. The sidecar mounts
// the same upload volume as the worker, so requests pass the audio path
// rather than streaming bytes.
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

type transcribeRequest struct {
	AudioPath string `json:"audio_path"`
}

type transcribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Words    []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Score float64 `json:"score"`
	} `json:"words"`
}

func (c *Client) Transcribe(ctx context.Context, audioPath string) (domain.Transcription, error) {
	var response transcribeResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/transcribe", transcribeRequest{AudioPath: audioPath}, &response, "transcribe")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "whisperx.transcribe", call, classifySidecarError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.Transcription{}, err
	}

	words := make([]domain.WordTimestamp, 0, len(response.Words))
	for _, w := range response.Words {
		words = append(words, domain.WordTimestamp{
			Word:  w.Word,
			Start: w.Start,
			End:   w.End,
			Score: w.Score,
		})
	}
	return domain.Transcription{
		Transcript: strings.TrimSpace(response.Text),
		Words:      words,
		Language:   response.Language,
	}, nil
}
