// Package scoring is the deterministic score-aggregation engine. It is pure
// computation over answer fields: no I/O, no clock, no randomness.
package scoring

import (
	"math"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

// Component weights for the per-answer score. Hesitation is inverted: more
// hesitation lowers the score.
const (
	llmWeight        = 0.40
	emotionWeight    = 0.20
	commWeight       = 0.20
	hesitationWeight = 0.20
)

// ScoreAnswer computes the weighted final score in [0,10] for one answer.
// A missing LLM evaluation contributes zero to its component.
func ScoreAnswer(answer domain.Answer) float64 {
	var llmScore float64
	commLevel := domain.CommunicationLow
	if answer.LLMEvaluation != nil {
		llmScore = float64(answer.LLMEvaluation.OverallScore)
		commLevel = answer.LLMEvaluation.CommunicationLevel
	}

	hesitationInverted := math.Max(0, 10-answer.HesitationScore)

	final := llmScore*llmWeight +
		answer.ConfidenceIndex*emotionWeight +
		communicationScore(commLevel)*commWeight +
		hesitationInverted*hesitationWeight

	return round2(math.Min(final, 10.0))
}

// AggregateSession averages the per-answer final scores and classifies the
// result. An empty answer list yields (0, Not Recommended).
func AggregateSession(answers []domain.Answer) (float64, domain.Category) {
	if len(answers) == 0 {
		return 0.0, domain.CategoryNotRecommended
	}

	var total float64
	for _, a := range answers {
		total += a.AnswerFinalScore
	}
	score := round2(total / float64(len(answers)))
	return score, Classify(score)
}

// Classify maps a final score to its recommendation category. Thresholds are
// inclusive lower bounds.
func Classify(score float64) domain.Category {
	switch {
	case score >= 8.0:
		return domain.CategoryHighlyRecommended
	case score >= 6.0:
		return domain.CategoryRecommended
	case score >= 4.0:
		return domain.CategoryAverage
	default:
		return domain.CategoryNotRecommended
	}
}

func communicationScore(level domain.CommunicationLevel) float64 {
	switch level {
	case domain.CommunicationHigh:
		return 10.0
	case domain.CommunicationMedium:
		return 6.0
	case domain.CommunicationLow:
		return 2.0
	default:
		return 5.0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
