package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

// buildAnswerPatch turns a typed AnswerPatch into a SET clause plus ordered
// args. Column names are fixed here, never caller-supplied, which keeps the
// writer stages from drifting on key names.
func buildAnswerPatch(patch domain.AnswerPatch) (string, []any, error) {
	clauses := make([]string, 0, 13)
	args := make([]any, 0, 13)

	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addJSON := func(column string, value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", column, err)
		}
		add(column, raw)
		return nil
	}

	if patch.AudioPath != nil {
		add("audio_path", *patch.AudioPath)
	}
	if patch.Transcript != nil {
		add("transcript", *patch.Transcript)
	}
	if patch.WordTimestamps != nil {
		if err := addJSON("word_timestamps", patch.WordTimestamps); err != nil {
			return "", nil, err
		}
	}
	if patch.PauseCount != nil {
		add("pause_count", *patch.PauseCount)
	}
	if patch.LongPauses != nil {
		if err := addJSON("long_pauses", patch.LongPauses); err != nil {
			return "", nil, err
		}
	}
	if patch.HesitationScore != nil {
		add("hesitation_score", *patch.HesitationScore)
	}
	if patch.FrameEmotions != nil {
		if err := addJSON("frame_emotions", patch.FrameEmotions); err != nil {
			return "", nil, err
		}
	}
	if patch.EmotionDistribution != nil {
		if err := addJSON("emotion_distribution", patch.EmotionDistribution); err != nil {
			return "", nil, err
		}
	}
	if patch.ConfidenceIndex != nil {
		add("confidence_index", *patch.ConfidenceIndex)
	}
	if patch.NervousnessScore != nil {
		add("nervousness_score", *patch.NervousnessScore)
	}
	if patch.LLMEvaluation != nil {
		if err := addJSON("llm_evaluation", patch.LLMEvaluation); err != nil {
			return "", nil, err
		}
	}
	if patch.AnswerFinalScore != nil {
		add("answer_final_score", *patch.AnswerFinalScore)
	}
	if patch.Processed != nil {
		add("processed", *patch.Processed)
	}

	return strings.Join(clauses, ", "), args, nil
}
