package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

func TestGetSessionLoadsAnswers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	now := time.Now()

	sessionRows := sqlmock.NewRows([]string{
		"id", "candidate_id", "candidate_name", "candidate_email",
		"final_score", "category", "status", "started_at", "completed_at",
	}).AddRow("s-1", "c-1", "Ada", "ada@example.com", 0.0, "Not Recommended", "processing", now, nil)
	mock.ExpectQuery("FROM sessions").WithArgs("s-1").WillReturnRows(sessionRows)

	answerRows := sqlmock.NewRows([]string{
		"question_id", "question_text", "video_path", "audio_path", "transcript", "word_timestamps",
		"pause_count", "long_pauses", "hesitation_score", "frame_emotions", "emotion_distribution",
		"confidence_index", "nervousness_score", "llm_evaluation", "answer_final_score", "processed", "created_at",
	}).AddRow(
		"q-1", "Tell me about yourself", "/v/q-1.webm", "/v/q-1.wav", "hello",
		[]byte(`[{"word":"hello","start":0,"end":0.4,"score":0.9}]`),
		0, []byte(`[]`), 0.0, []byte(`[]`), []byte(`{"neutral":100}`),
		10.0, 0.0, []byte(`{"overall_score":7,"communication_level":"High"}`), 8.2, true, now,
	)
	mock.ExpectQuery("FROM answers").WithArgs("s-1").WillReturnRows(answerRows)

	session, err := repo.GetSession(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(session.Answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(session.Answers))
	}
	answer := session.Answers[0]
	if len(answer.WordTimestamps) != 1 || answer.WordTimestamps[0].Word != "hello" {
		t.Fatalf("word timestamps not decoded: %+v", answer.WordTimestamps)
	}
	if answer.LLMEvaluation == nil || answer.LLMEvaluation.OverallScore != 7 {
		t.Fatalf("evaluation not decoded: %+v", answer.LLMEvaluation)
	}
	if answer.EmotionDistribution["neutral"] != 100 {
		t.Fatalf("distribution not decoded: %+v", answer.EmotionDistribution)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectQuery("FROM sessions").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.GetSession(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUpdateAnswerFieldsWritesOnlyPatchedColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	transcript := "spoken words"
	mock.ExpectExec(`UPDATE answers\s+SET transcript = \$1, word_timestamps = \$2\s+WHERE session_id = \$3 AND question_id = \$4`).
		WithArgs("spoken words", []byte(`[]`), "s-1", "q-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	patch := domain.AnswerPatch{
		Transcript:     &transcript,
		WordTimestamps: []domain.WordTimestamp{},
	}
	if err := repo.UpdateAnswerFields(context.Background(), "s-1", "q-1", patch); err != nil {
		t.Fatalf("UpdateAnswerFields() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateAnswerFieldsEmptyPatchIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	if err := repo.UpdateAnswerFields(context.Background(), "s-1", "q-1", domain.AnswerPatch{}); err != nil {
		t.Fatalf("empty patch must be a no-op, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateAnswerFieldsMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	processed := true
	mock.ExpectExec("UPDATE answers").
		WithArgs(true, "s-1", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateAnswerFields(context.Background(), "s-1", "ghost", domain.AnswerPatch{Processed: &processed})
	if !domain.IsKind(err, domain.ErrAnswerNotFound) {
		t.Fatalf("expected ErrAnswerNotFound, got %v", err)
	}
}

func TestSetSessionProcessingGuardsTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectExec("UPDATE sessions").
		WithArgs("s-1", "processing", "in_progress").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Already-processing/completed sessions match zero rows; not an error.
	if err := repo.SetSessionProcessing(context.Background(), "s-1"); err != nil {
		t.Fatalf("SetSessionProcessing() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteSessionMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectExec("DELETE FROM sessions").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteSession(context.Background(), "missing"); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
