package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
	"github.com/kirillkom/hirenet-interview/internal/infrastructure/resilience"
)

// Evaluator scores a (question, transcript) pair with an OpenAI-compatible
// chat model behind OpenRouter. Failures are returned to the caller; the
// pipeline decides whether to substitute a fallback verdict.
type Evaluator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	executor    *resilience.Executor
}

type Option func(*Evaluator)

func WithResilienceExecutor(executor *resilience.Executor) Option {
	return func(e *Evaluator) {
		e.executor = executor
	}
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

func New(cfg Config, opts ...Option) *Evaluator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.3
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	e := &Evaluator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Evaluate(ctx context.Context, questionText, transcript string) (domain.LLMEvaluation, error) {
	request := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildEvaluationPrompt(questionText, transcript)},
		},
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	}

	var content string
	call := func(ctx context.Context) error {
		resp, err := e.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("chat completion returned no choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	var err error
	if e.executor != nil {
		err = e.executor.Execute(ctx, "openrouter.evaluate", call, classifyLLMError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.LLMEvaluation{}, err
	}

	return parseEvaluation(content)
}

// parseEvaluation decodes the model output strictly. Anything outside the
// documented schema is rejected so a drifting model cannot smuggle garbage
// scores into stored results.
func parseEvaluation(raw string) (domain.LLMEvaluation, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return domain.LLMEvaluation{}, fmt.Errorf("no JSON object in model response: %s", truncate(raw, 300))
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(payload)))
	decoder.DisallowUnknownFields()

	var eval domain.LLMEvaluation
	if err := decoder.Decode(&eval); err != nil {
		return domain.LLMEvaluation{}, fmt.Errorf("decode evaluation: %w", err)
	}
	if err := validateEvaluation(eval); err != nil {
		return domain.LLMEvaluation{}, err
	}

	if eval.PersonalityTraits == nil {
		eval.PersonalityTraits = map[string]int{}
	}
	if eval.Strengths == nil {
		eval.Strengths = []string{}
	}
	if eval.Weaknesses == nil {
		eval.Weaknesses = []string{}
	}
	return eval, nil
}

func validateEvaluation(eval domain.LLMEvaluation) error {
	scores := map[string]int{
		"clarity_score":    eval.ClarityScore,
		"confidence_score": eval.ConfidenceScore,
		"logic_score":      eval.LogicScore,
		"relevance_score":  eval.RelevanceScore,
		"overall_score":    eval.OverallScore,
	}
	for name, score := range scores {
		if score < 0 || score > 10 {
			return fmt.Errorf("evaluation %s out of range: %d", name, score)
		}
	}
	for trait, score := range eval.PersonalityTraits {
		if score < 0 || score > 10 {
			return fmt.Errorf("personality trait %s out of range: %d", trait, score)
		}
	}

	switch eval.CommunicationLevel {
	case domain.CommunicationLow, domain.CommunicationMedium, domain.CommunicationHigh:
	default:
		return fmt.Errorf("unknown communication_level %q", eval.CommunicationLevel)
	}
	switch eval.FinalVerdict {
	case domain.CategoryHighlyRecommended, domain.CategoryRecommended, domain.CategoryAverage, domain.CategoryNotRecommended:
	default:
		return fmt.Errorf("unknown final_verdict %q", eval.FinalVerdict)
	}
	return nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
