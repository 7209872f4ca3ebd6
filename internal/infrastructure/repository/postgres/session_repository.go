package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// SessionRepository is the answer state store: one row per session, one row
// per answer keyed by (session_id, question_id). Stage writes update only
// the columns a stage produced, so concurrent pipeline runs for the same
// session never read-modify-write each other's fields.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	candidate_name TEXT NOT NULL DEFAULT '',
	candidate_email TEXT NOT NULL DEFAULT '',
	final_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT 'Not Recommended',
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_sessions_candidate ON sessions(candidate_id, started_at DESC);

CREATE TABLE IF NOT EXISTS answers (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	question_id TEXT NOT NULL,
	question_text TEXT NOT NULL DEFAULT '',
	video_path TEXT NOT NULL DEFAULT '',
	audio_path TEXT NOT NULL DEFAULT '',
	transcript TEXT NOT NULL DEFAULT '',
	word_timestamps JSONB NOT NULL DEFAULT '[]'::jsonb,
	pause_count INTEGER NOT NULL DEFAULT 0,
	long_pauses JSONB NOT NULL DEFAULT '[]'::jsonb,
	hesitation_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	frame_emotions JSONB NOT NULL DEFAULT '[]'::jsonb,
	emotion_distribution JSONB NOT NULL DEFAULT '{}'::jsonb,
	confidence_index DOUBLE PRECISION NOT NULL DEFAULT 0,
	nervousness_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	llm_evaluation JSONB,
	answer_final_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	processed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, question_id)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *domain.InterviewSession) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (id, candidate_id, candidate_name, candidate_email, final_score, category, status, started_at, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		session.ID, session.CandidateID, session.CandidateName, session.CandidateEmail,
		session.FinalScore, string(session.Category), string(session.Status), session.StartedAt, session.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*domain.InterviewSession, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, candidate_id, candidate_name, candidate_email, final_score, category, status, started_at, completed_at
FROM sessions
WHERE id = $1
`, sessionID)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id=%s", sessionID))
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	answers, err := r.listAnswers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Answers = answers
	return session, nil
}

// ListSessionsByCandidate returns session summaries without their answers.
func (r *SessionRepository) ListSessionsByCandidate(ctx context.Context, candidateID string) ([]domain.InterviewSession, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, candidate_id, candidate_name, candidate_email, final_score, category, status, started_at, completed_at
FROM sessions
WHERE candidate_id = $1
ORDER BY started_at DESC
`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.InterviewSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrSessionNotFound, "delete session", fmt.Errorf("id=%s", sessionID))
	}
	return nil
}

// SetSessionProcessing flips in_progress to processing. Status transitions
// are monotonic, so any other current status is left untouched.
func (r *SessionRepository) SetSessionProcessing(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE sessions
SET status = $2
WHERE id = $1 AND status = $3
`, sessionID, string(domain.StatusProcessing), string(domain.StatusInProgress))
	if err != nil {
		return fmt.Errorf("set session processing: %w", err)
	}
	return nil
}

func (r *SessionRepository) SaveSessionResult(ctx context.Context, sessionID string, score float64, category domain.Category, completedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE sessions
SET final_score = $2, category = $3, status = $4, completed_at = $5
WHERE id = $1
`, sessionID, score, string(category), string(domain.StatusCompleted), completedAt)
	if err != nil {
		return fmt.Errorf("save session result: %w", err)
	}
	return nil
}

func (r *SessionRepository) AppendAnswerStub(ctx context.Context, sessionID string, answer domain.Answer) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO answers (session_id, question_id, question_text, video_path, created_at)
VALUES ($1,$2,$3,$4,$5)
`, sessionID, answer.QuestionID, answer.QuestionText, answer.VideoPath, answer.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return domain.WrapError(domain.ErrDuplicateAnswer, "append answer stub", err)
			case pgForeignKeyViolation:
				return domain.WrapError(domain.ErrSessionNotFound, "append answer stub", err)
			}
		}
		return fmt.Errorf("insert answer stub: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetAnswer(ctx context.Context, sessionID, questionID string) (*domain.Answer, error) {
	row := r.db.QueryRowContext(ctx, answerSelect+`
WHERE session_id = $1 AND question_id = $2
`, sessionID, questionID)

	answer, err := scanAnswer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrAnswerNotFound, "get answer", fmt.Errorf("session=%s question=%s", sessionID, questionID))
		}
		return nil, fmt.Errorf("scan answer: %w", err)
	}
	return answer, nil
}

// UpdateAnswerFields applies a typed field patch to exactly one answer row.
// Only the patched columns appear in the SET clause.
func (r *SessionRepository) UpdateAnswerFields(ctx context.Context, sessionID, questionID string, patch domain.AnswerPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	set, args, err := buildAnswerPatch(patch)
	if err != nil {
		return fmt.Errorf("build answer patch: %w", err)
	}
	args = append(args, sessionID, questionID)

	query := fmt.Sprintf(`
UPDATE answers
SET %s
WHERE session_id = $%d AND question_id = $%d
`, set, len(args)-1, len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update answer fields: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update answer rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrAnswerNotFound, "update answer fields", fmt.Errorf("session=%s question=%s", sessionID, questionID))
	}
	return nil
}

func (r *SessionRepository) listAnswers(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	rows, err := r.db.QueryContext(ctx, answerSelect+`
WHERE session_id = $1
ORDER BY created_at ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Answer, 0)
	for rows.Next() {
		answer, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, *answer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return out, nil
}

const answerSelect = `
SELECT question_id, question_text, video_path, audio_path, transcript, word_timestamps,
	pause_count, long_pauses, hesitation_score, frame_emotions, emotion_distribution,
	confidence_index, nervousness_score, llm_evaluation, answer_final_score, processed, created_at
FROM answers
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.InterviewSession, error) {
	var session domain.InterviewSession
	var category, status string
	var completedAt sql.NullTime

	err := row.Scan(
		&session.ID, &session.CandidateID, &session.CandidateName, &session.CandidateEmail,
		&session.FinalScore, &category, &status, &session.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	session.Category = domain.Category(category)
	session.Status = domain.SessionStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	session.Answers = []domain.Answer{}
	return &session, nil
}

func scanAnswer(row rowScanner) (*domain.Answer, error) {
	var answer domain.Answer
	var wordsRaw, pausesRaw, framesRaw, distributionRaw []byte
	var evaluationRaw []byte

	err := row.Scan(
		&answer.QuestionID, &answer.QuestionText, &answer.VideoPath, &answer.AudioPath,
		&answer.Transcript, &wordsRaw, &answer.PauseCount, &pausesRaw, &answer.HesitationScore,
		&framesRaw, &distributionRaw, &answer.ConfidenceIndex, &answer.NervousnessScore,
		&evaluationRaw, &answer.AnswerFinalScore, &answer.Processed, &answer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(wordsRaw, &answer.WordTimestamps); err != nil {
		return nil, fmt.Errorf("unmarshal word timestamps: %w", err)
	}
	if err := json.Unmarshal(pausesRaw, &answer.LongPauses); err != nil {
		return nil, fmt.Errorf("unmarshal long pauses: %w", err)
	}
	if err := json.Unmarshal(framesRaw, &answer.FrameEmotions); err != nil {
		return nil, fmt.Errorf("unmarshal frame emotions: %w", err)
	}
	if err := json.Unmarshal(distributionRaw, &answer.EmotionDistribution); err != nil {
		return nil, fmt.Errorf("unmarshal emotion distribution: %w", err)
	}
	if len(evaluationRaw) > 0 {
		var evaluation domain.LLMEvaluation
		if err := json.Unmarshal(evaluationRaw, &evaluation); err != nil {
			return nil, fmt.Errorf("unmarshal llm evaluation: %w", err)
		}
		answer.LLMEvaluation = &evaluation
	}
	return &answer, nil
}
