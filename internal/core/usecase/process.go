package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/core/analysis"
	"github.com/kirillkom/hirenet-interview/internal/core/domain"
	"github.com/kirillkom/hirenet-interview/internal/core/ports"
	"github.com/kirillkom/hirenet-interview/internal/core/scoring"
)

// StageTimeouts bounds each external stage call so a stuck dependency cannot
// hold a worker slot indefinitely. A timeout counts as a stage failure.
type StageTimeouts struct {
	Extract    time.Duration
	Transcribe time.Duration
	Emotion    time.Duration
	Evaluate   time.Duration
}

func (t StageTimeouts) normalize() StageTimeouts {
	out := t
	if out.Extract <= 0 {
		out.Extract = 30 * time.Second
	}
	if out.Transcribe <= 0 {
		out.Transcribe = 120 * time.Second
	}
	if out.Emotion <= 0 {
		out.Emotion = 120 * time.Second
	}
	if out.Evaluate <= 0 {
		out.Evaluate = 60 * time.Second
	}
	return out
}

// StageObserver receives per-stage timing for metrics. Implementations must
// be safe for concurrent use.
type StageObserver interface {
	ObserveStage(stage string, duration time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveStage(string, time.Duration, error) {}

// ProcessAnswerUseCase runs the ordered stage sequence for one answer:
// audio extraction, transcription, pause detection, emotion analysis, LLM
// evaluation, scoring. After each stage only that stage's fields are
// persisted, so a late failure never loses earlier work. Any stage failure
// is contained: the answer is forced terminal with a diagnostic transcript
// marker and the error never propagates to other runs.
type ProcessAnswerUseCase struct {
	repo      ports.SessionRepository
	extractor ports.AudioExtractor
	stt       ports.Transcriber
	emotions  ports.EmotionAnalyzer
	evaluator ports.AnswerEvaluator
	timeouts  StageTimeouts
	observer  StageObserver
}

func NewProcessAnswerUseCase(
	repo ports.SessionRepository,
	extractor ports.AudioExtractor,
	stt ports.Transcriber,
	emotions ports.EmotionAnalyzer,
	evaluator ports.AnswerEvaluator,
	timeouts StageTimeouts,
	observer StageObserver,
) *ProcessAnswerUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ProcessAnswerUseCase{
		repo:      repo,
		extractor: extractor,
		stt:       stt,
		emotions:  emotions,
		evaluator: evaluator,
		timeouts:  timeouts.normalize(),
		observer:  observer,
	}
}

func (uc *ProcessAnswerUseCase) Process(ctx context.Context, job domain.ProcessingJob) error {
	answer, err := uc.repo.GetAnswer(ctx, job.SessionID, job.QuestionID)
	if err != nil {
		return fmt.Errorf("fetch answer for processing: %w", err)
	}
	if answer.Processed {
		slog.Info("answer_already_processed", "session_id", job.SessionID, "question_id", job.QuestionID)
		return nil
	}

	if err := uc.runPipeline(ctx, job, answer); err != nil {
		return uc.containFailure(ctx, job, err)
	}
	return nil
}

func (uc *ProcessAnswerUseCase) runPipeline(ctx context.Context, job domain.ProcessingJob, answer *domain.Answer) error {
	audioPath, err := uc.extractAudio(ctx, answer.VideoPath)
	if err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	if err := uc.patch(ctx, job, domain.AnswerPatch{AudioPath: &audioPath}); err != nil {
		return err
	}

	transcription, err := uc.transcribe(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("transcribe audio: %w", err)
	}
	if err := uc.patch(ctx, job, domain.AnswerPatch{
		Transcript:     &transcription.Transcript,
		WordTimestamps: emptyIfNil(transcription.Words),
	}); err != nil {
		return err
	}

	// Pause detection is pure computation over the aligned words.
	pauses := analysis.DetectLongPauses(transcription.Words)
	pauseCount := len(pauses)
	hesitation := analysis.HesitationScore(pauseCount)
	if err := uc.patch(ctx, job, domain.AnswerPatch{
		PauseCount:      &pauseCount,
		LongPauses:      pauses,
		HesitationScore: &hesitation,
	}); err != nil {
		return err
	}

	emotions, err := uc.analyzeEmotions(ctx, answer.VideoPath)
	if err != nil {
		return fmt.Errorf("analyze emotions: %w", err)
	}
	if err := uc.patch(ctx, job, domain.AnswerPatch{
		FrameEmotions:       emptyIfNil(emotions.FrameEmotions),
		EmotionDistribution: emptyMapIfNil(emotions.Distribution),
		ConfidenceIndex:     &emotions.ConfidenceIndex,
		NervousnessScore:    &emotions.NervousnessScore,
	}); err != nil {
		return err
	}

	evaluation := uc.evaluate(ctx, job, answer.QuestionText, transcription.Transcript)
	if err := uc.patch(ctx, job, domain.AnswerPatch{LLMEvaluation: &evaluation}); err != nil {
		return err
	}

	scored := domain.Answer{
		QuestionID:      job.QuestionID,
		QuestionText:    answer.QuestionText,
		ConfidenceIndex: emotions.ConfidenceIndex,
		HesitationScore: hesitation,
		LLMEvaluation:   &evaluation,
	}
	finalScore := scoring.ScoreAnswer(scored)
	processed := true
	if err := uc.patch(ctx, job, domain.AnswerPatch{
		AnswerFinalScore: &finalScore,
		Processed:        &processed,
	}); err != nil {
		return err
	}

	slog.Info("answer_processed",
		"session_id", job.SessionID,
		"question_id", job.QuestionID,
		"final_score", finalScore,
		"pause_count", pauseCount,
	)
	return nil
}

func (uc *ProcessAnswerUseCase) extractAudio(ctx context.Context, videoPath string) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, uc.timeouts.Extract)
	defer cancel()

	start := time.Now()
	audioPath, err := uc.extractor.Extract(stageCtx, videoPath)
	uc.observer.ObserveStage("extract_audio", time.Since(start), err)
	return audioPath, err
}

func (uc *ProcessAnswerUseCase) transcribe(ctx context.Context, audioPath string) (domain.Transcription, error) {
	stageCtx, cancel := context.WithTimeout(ctx, uc.timeouts.Transcribe)
	defer cancel()

	start := time.Now()
	transcription, err := uc.stt.Transcribe(stageCtx, audioPath)
	uc.observer.ObserveStage("transcribe", time.Since(start), err)
	return transcription, err
}

func (uc *ProcessAnswerUseCase) analyzeEmotions(ctx context.Context, videoPath string) (domain.EmotionAnalysis, error) {
	stageCtx, cancel := context.WithTimeout(ctx, uc.timeouts.Emotion)
	defer cancel()

	start := time.Now()
	emotions, err := uc.emotions.Analyze(stageCtx, videoPath)
	uc.observer.ObserveStage("analyze_emotions", time.Since(start), err)
	return emotions, err
}

// evaluate never fails the pipeline. An empty transcript skips the external
// call and takes the deterministic lowest-score evaluation; an evaluator
// outage degrades to the neutral mid-range fallback.
func (uc *ProcessAnswerUseCase) evaluate(ctx context.Context, job domain.ProcessingJob, questionText, transcript string) domain.LLMEvaluation {
	if strings.TrimSpace(transcript) == "" {
		return domain.NoSpeechEvaluation()
	}

	stageCtx, cancel := context.WithTimeout(ctx, uc.timeouts.Evaluate)
	defer cancel()

	start := time.Now()
	evaluation, err := uc.evaluator.Evaluate(stageCtx, questionText, transcript)
	uc.observer.ObserveStage("evaluate", time.Since(start), err)
	if err != nil {
		slog.Error("evaluator_fallback",
			"session_id", job.SessionID,
			"question_id", job.QuestionID,
			"error", err,
		)
		return domain.FallbackEvaluation(err.Error())
	}
	return evaluation
}

// containFailure forces the answer terminal so it is never retried
// automatically. The transcript carries a truncated diagnostic unless the
// transcription stage already wrote one.
func (uc *ProcessAnswerUseCase) containFailure(ctx context.Context, job domain.ProcessingJob, runErr error) error {
	slog.Error("pipeline_failed",
		"session_id", job.SessionID,
		"question_id", job.QuestionID,
		"error", runErr,
	)

	processed := true
	patch := domain.AnswerPatch{Processed: &processed}

	current, err := uc.repo.GetAnswer(ctx, job.SessionID, job.QuestionID)
	if err != nil || current.Transcript == "" {
		marker := diagnosticMarker(runErr)
		patch.Transcript = &marker
	}

	if err := uc.repo.UpdateAnswerFields(ctx, job.SessionID, job.QuestionID, patch); err != nil {
		return fmt.Errorf("%w; mark answer terminal: %v", runErr, err)
	}
	return runErr
}

func (uc *ProcessAnswerUseCase) patch(ctx context.Context, job domain.ProcessingJob, patch domain.AnswerPatch) error {
	if err := uc.repo.UpdateAnswerFields(ctx, job.SessionID, job.QuestionID, patch); err != nil {
		return fmt.Errorf("persist stage fields: %w", err)
	}
	return nil
}

func diagnosticMarker(err error) string {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return "[ERROR: " + msg + "]"
}

func emptyIfNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func emptyMapIfNil(in map[string]float64) map[string]float64 {
	if in == nil {
		return map[string]float64{}
	}
	return in
}
