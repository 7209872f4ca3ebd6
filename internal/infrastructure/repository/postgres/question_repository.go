package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/hirenet-interview/internal/core/domain"
)

type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS questions (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute questions ddl: %w", err)
	}
	return nil
}

// UpsertQuestions makes the seed idempotent across restarts.
func (r *QuestionRepository) UpsertQuestions(ctx context.Context, questions []domain.Question) error {
	for _, q := range questions {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO questions (id, text, category, position)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, category = EXCLUDED.category, position = EXCLUDED.position
`, q.ID, q.Text, q.Category, q.Position)
		if err != nil {
			return fmt.Errorf("upsert question %s: %w", q.ID, err)
		}
	}
	return nil
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, text, category, position
FROM questions
ORDER BY position ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &q.Position); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}
