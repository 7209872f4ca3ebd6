package openrouter

import (
	"context"
	"errors"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/hirenet-interview/internal/infrastructure/resilience"
)

// classifyLLMError maps chat-completion failures onto retry and breaker
// behaviour. Server-side trouble (5xx, rate limits) and transport errors
// retry; a 4xx means the request itself is wrong, so retrying would only
// burn tokens.
func classifyLLMError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.HTTPStatusCode >= http.StatusInternalServerError ||
			apiErr.HTTPStatusCode == http.StatusTooManyRequests
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: true}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	// Unknown shapes are treated as transport trouble.
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
