package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

// SessionRepository persists sessions and their answers. Answer updates are
// column-scoped and keyed by (sessionID, questionID) so concurrent pipeline
// runs for the same session never clobber each other's fields.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.InterviewSession) error
	GetSession(ctx context.Context, sessionID string) (*domain.InterviewSession, error)
	ListSessionsByCandidate(ctx context.Context, candidateID string) ([]domain.InterviewSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SetSessionProcessing(ctx context.Context, sessionID string) error
	SaveSessionResult(ctx context.Context, sessionID string, score float64, category domain.Category, completedAt time.Time) error

	AppendAnswerStub(ctx context.Context, sessionID string, answer domain.Answer) error
	GetAnswer(ctx context.Context, sessionID, questionID string) (*domain.Answer, error)
	UpdateAnswerFields(ctx context.Context, sessionID, questionID string, patch domain.AnswerPatch) error
}

// QuestionRepository persists the interview question bank.
type QuestionRepository interface {
	UpsertQuestions(ctx context.Context, questions []domain.Question) error
	ListQuestions(ctx context.Context) ([]domain.Question, error)
}

// ArtifactStorage stores uploaded videos and derived audio. Save returns the
// absolute path of the stored artifact for downstream tooling (ffmpeg).
type ArtifactStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue carries processing jobs from the dispatcher to the workers.
type MessageQueue interface {
	PublishAnswerSubmitted(ctx context.Context, job domain.ProcessingJob) error
	SubscribeAnswerSubmitted(ctx context.Context, handler func(context.Context, domain.ProcessingJob) error) error
}

// AudioExtractor produces a mono fixed-sample-rate waveform from a video.
type AudioExtractor interface {
	Extract(ctx context.Context, videoPath string) (string, error)
}

// Transcriber produces a transcript with word-level timestamps.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (domain.Transcription, error)
}

// EmotionAnalyzer classifies sampled video frames and aggregates an emotion
// distribution. It fails only on an unreadable stream, never on zero faces.
type EmotionAnalyzer interface {
	Analyze(ctx context.Context, videoPath string) (domain.EmotionAnalysis, error)
}

// AnswerEvaluator scores (question, transcript) with an LLM.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, questionText, transcript string) (domain.LLMEvaluation, error)
}
