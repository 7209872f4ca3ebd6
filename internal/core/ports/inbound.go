package ports

import (
	"context"
	"io"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

// SubmitAnswerCommand carries one finished upload into the dispatcher.
type SubmitAnswerCommand struct {
	SessionID    string
	CandidateID  string
	QuestionID   string
	QuestionText string
	Video        io.Reader
}

// AnswerDispatcher is the inbound contract for accepting uploads and
// scheduling exactly one pipeline run per accepted submission.
type AnswerDispatcher interface {
	Submit(ctx context.Context, cmd SubmitAnswerCommand) (*domain.Answer, error)
}

// AnswerProcessor is the inbound contract for one asynchronous pipeline run.
type AnswerProcessor interface {
	Process(ctx context.Context, job domain.ProcessingJob) error
}

// SessionFinalizer computes the one-shot session aggregate.
type SessionFinalizer interface {
	Finalize(ctx context.Context, sessionID string) error
}

// SessionService is the inbound contract for session lifecycle and reads.
type SessionService interface {
	Start(ctx context.Context, candidateID, name, email string) (*domain.InterviewSession, error)
	Get(ctx context.Context, sessionID, candidateID string) (*domain.InterviewSession, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]domain.InterviewSession, error)
	Delete(ctx context.Context, sessionID, candidateID string) error
	AnswerStatus(ctx context.Context, sessionID, questionID string) (bool, error)
}
