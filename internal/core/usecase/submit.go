package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
	"github.com/kirillkom/hirenet-interview/internal/core/ports"
)

// SubmitAnswerUseCase is the job dispatcher: it validates a finished upload,
// persists the pending answer stub and schedules exactly one pipeline run.
// The caller is never blocked on analysis.
type SubmitAnswerUseCase struct {
	repo    ports.SessionRepository
	storage ports.ArtifactStorage
	queue   ports.MessageQueue
}

func NewSubmitAnswerUseCase(
	repo ports.SessionRepository,
	storage ports.ArtifactStorage,
	queue ports.MessageQueue,
) *SubmitAnswerUseCase {
	return &SubmitAnswerUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *SubmitAnswerUseCase) Submit(ctx context.Context, cmd ports.SubmitAnswerCommand) (*domain.Answer, error) {
	if strings.TrimSpace(cmd.SessionID) == "" || strings.TrimSpace(cmd.QuestionID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit answer", fmt.Errorf("session id and question id are required"))
	}

	session, err := uc.repo.GetSession(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	if session.CandidateID != cmd.CandidateID {
		return nil, domain.WrapError(domain.ErrForbidden, "submit answer", fmt.Errorf("session %s is not owned by candidate", cmd.SessionID))
	}
	if session.AnswerByQuestion(cmd.QuestionID) != nil {
		return nil, domain.WrapError(domain.ErrDuplicateAnswer, "submit answer", fmt.Errorf("question %s already answered", cmd.QuestionID))
	}

	videoKey := artifactKey(cmd.SessionID, cmd.QuestionID)
	videoPath, err := uc.storage.Save(ctx, videoKey, cmd.Video)
	if err != nil {
		return nil, fmt.Errorf("save video artifact: %w", err)
	}

	answer := domain.Answer{
		QuestionID:   cmd.QuestionID,
		QuestionText: cmd.QuestionText,
		VideoPath:    videoPath,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.repo.AppendAnswerStub(ctx, cmd.SessionID, answer); err != nil {
		// No answer row references the video, so remove it instead of
		// leaving an orphan on disk. Losing a duplicate race lands here
		// via the (session_id, question_id) key.
		if removeErr := uc.storage.Remove(ctx, videoKey); removeErr != nil {
			slog.Warn("orphaned_video_artifact",
				"session_id", cmd.SessionID,
				"question_id", cmd.QuestionID,
				"key", videoKey,
				"error", removeErr,
			)
		}
		return nil, fmt.Errorf("append answer stub: %w", err)
	}

	// Monotonic: only flips in_progress -> processing, never backward.
	if err := uc.repo.SetSessionProcessing(ctx, cmd.SessionID); err != nil {
		return nil, fmt.Errorf("mark session processing: %w", err)
	}

	job := domain.ProcessingJob{
		SessionID:   cmd.SessionID,
		QuestionID:  cmd.QuestionID,
		SubmittedAt: time.Now().UTC(),
	}
	if err := uc.queue.PublishAnswerSubmitted(ctx, job); err != nil {
		return nil, fmt.Errorf("publish processing job: %w", err)
	}

	slog.Info("answer_submitted",
		"session_id", cmd.SessionID,
		"question_id", cmd.QuestionID,
		"video_path", videoPath,
	)
	return &answer, nil
}

func artifactKey(sessionID, questionID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, questionID)
	return sessionID + "/" + safe + ".webm"
}
