package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
	"github.com/kirillkom/hirenet-interview/internal/core/ports"
	"github.com/kirillkom/hirenet-interview/internal/core/scoring"
)

// FinalizeSessionUseCase runs the one-shot aggregate when a session is
// marked complete. By default it is best-effort: it aggregates whatever
// per-answer scores exist at invocation time and does not wait for in-flight
// runs. With requireProcessed it instead refuses while any answer is still
// pending, for deployments that want a hard barrier.
type FinalizeSessionUseCase struct {
	repo             ports.SessionRepository
	requireProcessed bool
	now              func() time.Time
}

func NewFinalizeSessionUseCase(repo ports.SessionRepository, requireProcessed bool) *FinalizeSessionUseCase {
	return &FinalizeSessionUseCase{
		repo:             repo,
		requireProcessed: requireProcessed,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (uc *FinalizeSessionUseCase) Finalize(ctx context.Context, sessionID string) error {
	session, err := uc.repo.GetSession(ctx, sessionID)
	if err != nil {
		// Finalization races against whole-session deletion; a vanished
		// session is a silent no-op, not an error.
		if domain.IsKind(err, domain.ErrSessionNotFound) {
			slog.Info("finalize_skipped_missing_session", "session_id", sessionID)
			return nil
		}
		return fmt.Errorf("fetch session for finalize: %w", err)
	}

	if uc.requireProcessed {
		for _, answer := range session.Answers {
			if !answer.Processed {
				return domain.WrapError(domain.ErrAnswersPending, "finalize session",
					fmt.Errorf("question %s not processed", answer.QuestionID))
			}
		}
	}

	score, category := scoring.AggregateSession(session.Answers)
	if err := uc.repo.SaveSessionResult(ctx, sessionID, score, category, uc.now()); err != nil {
		return fmt.Errorf("save session result: %w", err)
	}

	slog.Info("session_finalized",
		"session_id", sessionID,
		"final_score", score,
		"category", string(category),
		"answer_count", len(session.Answers),
	)
	return nil
}
