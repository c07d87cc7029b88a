package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

const quizColumns = `id, title, description, duration_minutes, access_code, created_by,
	is_always_available, available_from, available_to, created_at`

// QuizRepository persists quizzes and their questions.
type QuizRepository struct {
	db DB
}

func NewQuizRepository(db DB) *QuizRepository {
	return &QuizRepository{db: db}
}

func (r *QuizRepository) AccessCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quizzes WHERE access_code = $1)`, code).Scan(&exists)
	return exists, err
}

// CreateQuiz inserts the quiz and its questions in one transaction.
func (r *QuizRepository) CreateQuiz(ctx context.Context, quiz domain.Quiz, questions []domain.Question) (domain.Quiz, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO quizzes (`+quizColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		quiz.ID, quiz.Title, quiz.Description, quiz.DurationMinutes, quiz.AccessCode, quiz.CreatedBy,
		quiz.IsAlwaysAvailable, quiz.AvailableFrom, quiz.AvailableTo, quiz.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "quizzes_access_code_key") {
			return domain.Quiz{}, domain.ErrAccessCodeTaken
		}
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}

	batch := &pgx.Batch{}
	for i, q := range questions {
		batch.Queue(`
			INSERT INTO questions (id, quiz_id, position, text, options, correct_option_index, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			q.ID, quiz.ID, i, q.Text, q.Options, q.CorrectOptionIndex, q.CreatedBy,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Quiz{}, fmt.Errorf("insert questions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Quiz{}, fmt.Errorf("commit quiz: %w", err)
	}

	out := quiz
	out.Questions = append([]domain.Question(nil), questions...)
	return out, nil
}

func (r *QuizRepository) GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	return r.getOne(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id)
}

func (r *QuizRepository) GetQuizByAccessCode(ctx context.Context, code string) (domain.Quiz, error) {
	return r.getOne(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE access_code = $1`, code)
}

// ListQuizzesByOwner returns the owner's quizzes newest first, questions resolved.
func (r *QuizRepository) ListQuizzesByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Quiz, error) {
	rows, err := r.db.Query(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE created_by = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	quizzes, err := pgx.CollectRows(rows, scanQuiz)
	if err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return quizzes, nil
	}

	ids := make([]uuid.UUID, len(quizzes))
	for i, q := range quizzes {
		ids[i] = q.ID
	}
	byQuiz, err := r.questionsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range quizzes {
		attachQuestions(&quizzes[i], byQuiz[quizzes[i].ID])
	}
	return quizzes, nil
}

// DeleteQuiz removes the quiz; questions go with it through ON DELETE CASCADE.
func (r *QuizRepository) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("quiz")
	}
	return nil
}

func (r *QuizRepository) getOne(ctx context.Context, sql string, arg any) (domain.Quiz, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := pgx.CollectExactlyOneRow(rows, scanQuiz)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.NotFound("quiz")
	}
	if err != nil {
		return domain.Quiz{}, err
	}

	byQuiz, err := r.questionsFor(ctx, []uuid.UUID{quiz.ID})
	if err != nil {
		return domain.Quiz{}, err
	}
	attachQuestions(&quiz, byQuiz[quiz.ID])
	return quiz, nil
}

func (r *QuizRepository) questionsFor(ctx context.Context, quizIDs []uuid.UUID) (map[uuid.UUID][]domain.Question, error) {
	rows, err := r.db.Query(ctx, `
		SELECT quiz_id, id, text, options, correct_option_index, created_by
		FROM questions
		WHERE quiz_id = ANY($1)
		ORDER BY quiz_id, position`, quizIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.Question, len(quizIDs))
	for rows.Next() {
		var (
			quizID uuid.UUID
			q      domain.Question
		)
		if err := rows.Scan(&quizID, &q.ID, &q.Text, &q.Options, &q.CorrectOptionIndex, &q.CreatedBy); err != nil {
			return nil, err
		}
		out[quizID] = append(out[quizID], q)
	}
	return out, rows.Err()
}

func attachQuestions(quiz *domain.Quiz, questions []domain.Question) {
	quiz.Questions = questions
	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	quiz.QuestionIDs = make([]uuid.UUID, len(questions))
	for i, q := range questions {
		quiz.QuestionIDs[i] = q.ID
	}
}

func scanQuiz(row pgx.CollectableRow) (domain.Quiz, error) {
	var (
		q        domain.Quiz
		from, to *time.Time
	)
	err := row.Scan(&q.ID, &q.Title, &q.Description, &q.DurationMinutes, &q.AccessCode, &q.CreatedBy,
		&q.IsAlwaysAvailable, &from, &to, &q.CreatedAt)
	if err != nil {
		return domain.Quiz{}, err
	}
	q.AvailableFrom, q.AvailableTo = utcPtr(from), utcPtr(to)
	q.CreatedAt = q.CreatedAt.UTC()
	return q, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
