package analysis

import (
	"math"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

// AggregateEmotions reduces per-frame emotion scores to a percentage
// distribution plus the confidence and nervousness indices. With zero frames
// all outputs are empty/zero; the caller must not treat that as a failure.
func AggregateEmotions(frames []domain.FrameEmotion) domain.EmotionAnalysis {
	if len(frames) == 0 {
		return domain.EmotionAnalysis{
			FrameEmotions: []domain.FrameEmotion{},
			Distribution:  map[string]float64{},
		}
	}

	totals := make(map[string]float64)
	var totalWeight float64
	for _, frame := range frames {
		for emotion, score := range frame.EmotionScores {
			totals[emotion] += score
			totalWeight += score
		}
	}

	distribution := make(map[string]float64, len(totals))
	if totalWeight > 0 {
		for emotion, sum := range totals {
			distribution[emotion] = round2(sum / totalWeight * 100)
		}
	}

	// happy + neutral read as composure, fear + sad + angry as nervousness.
	positive := distribution["happy"] + distribution["neutral"]
	negative := distribution["fear"] + distribution["sad"] + distribution["angry"]

	return domain.EmotionAnalysis{
		FrameEmotions:    frames,
		Distribution:     distribution,
		ConfidenceIndex:  round2(math.Min(positive/100*10, 10)),
		NervousnessScore: round2(math.Min(negative/100*10, 10)),
	}
}
