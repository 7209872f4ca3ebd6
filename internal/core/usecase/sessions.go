package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
	"github.com/kirillkom/hirenet-interview/internal/core/ports"
)

// SessionUseCase covers the session lifecycle around the pipeline: start,
// reads, deletion and the per-answer status poll.
type SessionUseCase struct {
	repo ports.SessionRepository
}

func NewSessionUseCase(repo ports.SessionRepository) *SessionUseCase {
	return &SessionUseCase{repo: repo}
}

func (uc *SessionUseCase) Start(ctx context.Context, candidateID, name, email string) (*domain.InterviewSession, error) {
	if strings.TrimSpace(candidateID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start session", fmt.Errorf("candidate id is required"))
	}

	session := &domain.InterviewSession{
		ID:             uuid.NewString(),
		CandidateID:    candidateID,
		CandidateName:  name,
		CandidateEmail: email,
		Answers:        []domain.Answer{},
		Category:       domain.CategoryNotRecommended,
		Status:         domain.StatusInProgress,
		StartedAt:      time.Now().UTC(),
	}
	if err := uc.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (uc *SessionUseCase) Get(ctx context.Context, sessionID, candidateID string) (*domain.InterviewSession, error) {
	session, err := uc.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	if session.CandidateID != candidateID {
		return nil, domain.WrapError(domain.ErrForbidden, "get session", fmt.Errorf("session %s is not owned by candidate", sessionID))
	}
	return session, nil
}

func (uc *SessionUseCase) ListByCandidate(ctx context.Context, candidateID string) ([]domain.InterviewSession, error) {
	sessions, err := uc.repo.ListSessionsByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Delete removes the session as a whole unit; answers cascade with it.
func (uc *SessionUseCase) Delete(ctx context.Context, sessionID, candidateID string) error {
	session, err := uc.repo.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("fetch session: %w", err)
	}
	if session.CandidateID != candidateID {
		return domain.WrapError(domain.ErrForbidden, "delete session", fmt.Errorf("session %s is not owned by candidate", sessionID))
	}
	if err := uc.repo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// AnswerStatus reports only the processed flag. Contained failures are not a
// separate status; they surface through the transcript diagnostic.
func (uc *SessionUseCase) AnswerStatus(ctx context.Context, sessionID, questionID string) (bool, error) {
	answer, err := uc.repo.GetAnswer(ctx, sessionID, questionID)
	if err != nil {
		return false, fmt.Errorf("fetch answer: %w", err)
	}
	return answer.Processed, nil
}
