package analysis

import (
	"math"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

// LongPauseThreshold is the minimum gap between adjacent words that counts
// as a hesitation pause, in seconds.
const LongPauseThreshold = 2.0

// DetectLongPauses scans adjacent word pairs and returns every gap exceeding
// LongPauseThreshold, in time order.
func DetectLongPauses(words []domain.WordTimestamp) []domain.Pause {
	pauses := make([]domain.Pause, 0)
	for i := 1; i < len(words); i++ {
		gap := words[i].Start - words[i-1].End
		if gap > LongPauseThreshold {
			pauses = append(pauses, domain.Pause{
				AfterWord:  words[i-1].Word,
				BeforeWord: words[i].Word,
				Duration:   round3(gap),
				AtTime:     words[i-1].End,
			})
		}
	}
	return pauses
}

// HesitationScore maps a long-pause count to a 0-10 score: count x 1.5,
// capped at 10.
func HesitationScore(pauseCount int) float64 {
	return round2(math.Min(float64(pauseCount)*1.5, 10.0))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
