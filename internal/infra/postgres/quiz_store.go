package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizzer-session-service/internal/domain"
)

// QuizStore reads and writes quiz JSONB documents in Postgres.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDetail, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDetail{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDetail{}, fmt.Errorf("load quiz: %w", err)
	}
	var detail domain.QuizDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return domain.QuizDetail{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return detail, nil
}

func (s *QuizStore) LoadSummaries(ctx context.Context) ([]domain.QuizSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quizzes ORDER BY data->>'title', id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var summaries []domain.QuizSummary
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var detail domain.QuizDetail
		if err := json.Unmarshal(raw, &detail); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		summaries = append(summaries, detail.Summary())
	}
	return summaries, rows.Err()
}

// CreateQuiz validates and stores a new quiz, assigning an id when the
// authoring form did not send one.
func (s *QuizStore) CreateQuiz(ctx context.Context, detail domain.QuizDetail) (string, error) {
	if detail.ID == "" {
		detail.ID = uuid.NewString()
	}
	if err := detail.Validate(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		return "", fmt.Errorf("marshal quiz: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, data) VALUES ($1, $2::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
		detail.ID, raw); err != nil {
		return "", fmt.Errorf("insert quiz: %w", err)
	}
	return detail.ID, nil
}
