package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

const resultColumns = `id, quiz_id, quiz_title, student_id, student_email, student_name, answers,
	score, total_questions, time_taken_seconds, status, completed_at`

// ResultRepository persists graded submissions. Rows are never updated.
type ResultRepository struct {
	db DB
}

func NewResultRepository(db DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) InsertResult(ctx context.Context, result domain.Result) (domain.Result, error) {
	answers := result.Answers
	if answers == nil {
		answers = []domain.AnswerEntry{}
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return domain.Result{}, fmt.Errorf("encode answers: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO results (`+resultColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		result.ID, result.QuizID, result.QuizTitle, result.StudentID, result.StudentEmail, result.StudentName, payload,
		result.Score, result.TotalQuestions, result.TimeTakenSeconds, result.Status, result.CompletedAt,
	)
	if err != nil {
		return domain.Result{}, fmt.Errorf("insert result: %w", err)
	}
	return result, nil
}

// ListResultsByStudent returns the student's history, most recent first.
func (r *ResultRepository) ListResultsByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Result, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+resultColumns+` FROM results
		WHERE student_id = $1
		ORDER BY completed_at DESC, seq DESC`, studentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanResult)
}

// ListCompletedResults returns completed results for a quiz in insertion order.
func (r *ResultRepository) ListCompletedResults(ctx context.Context, quizID uuid.UUID) ([]domain.Result, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+resultColumns+` FROM results
		WHERE quiz_id = $1 AND status = $2
		ORDER BY seq`, quizID, domain.ResultStatusCompleted)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanResult)
}

func scanResult(row pgx.CollectableRow) (domain.Result, error) {
	var (
		res     domain.Result
		answers []byte
	)
	err := row.Scan(&res.ID, &res.QuizID, &res.QuizTitle, &res.StudentID, &res.StudentEmail, &res.StudentName, &answers,
		&res.Score, &res.TotalQuestions, &res.TimeTakenSeconds, &res.Status, &res.CompletedAt)
	if err != nil {
		return domain.Result{}, err
	}
	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return domain.Result{}, fmt.Errorf("decode answers: %w", err)
	}
	res.CompletedAt = res.CompletedAt.UTC()
	return res, nil
}
