package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/classquiz/internal/domain"
	"github.com/gokatarajesh/classquiz/internal/metrics"
	"github.com/gokatarajesh/classquiz/internal/quiz"
)

// Store is what the engine needs from persistence.
type Store interface {
	GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
	InsertResult(ctx context.Context, result domain.Result) (domain.Result, error)
	ListResultsByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Result, error)
}

// Catalog resolves quizzes by access code.
type Catalog interface {
	GetByAccessCode(ctx context.Context, code string) (domain.Quiz, error)
}

// Notifier is told about every persisted result.
type Notifier interface {
	ResultRecorded(ctx context.Context, result domain.Result) error
}

// Snapshot is what a student receives when a session starts. Deadline is advisory;
// the server enforces the duration on submit.
type Snapshot struct {
	Quiz      quiz.PublicQuiz `json:"quiz"`
	StartedAt time.Time       `json:"startedAt"`
	Deadline  time.Time       `json:"deadline"`
}

// Service grades submissions and serves student history.
type Service struct {
	store    Store
	catalog  Catalog
	notifier Notifier
	policy   DurationPolicy
	metrics  *metrics.Recorder
	now      func() time.Time
	logger   zerolog.Logger
}

// ServiceOptions configures optional collaborators.
type ServiceOptions struct {
	Duration DurationPolicy
	Notifier Notifier
	Metrics  *metrics.Recorder
	Clock    func() time.Time
}

func NewService(store Store, catalog Catalog, opts ServiceOptions, logger zerolog.Logger) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	policy := opts.Duration
	if policy.Mode == "" {
		policy.Mode = DurationSeconds
	}
	return &Service{
		store:    store,
		catalog:  catalog,
		notifier: opts.Notifier,
		policy:   policy,
		metrics:  opts.Metrics,
		now:      clock,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// StartSession returns the student-facing snapshot of the quiz behind accessCode.
func (s *Service) StartSession(ctx context.Context, accessCode string, student domain.Identity) (Snapshot, error) {
	q, err := s.catalog.GetByAccessCode(ctx, accessCode)
	if err != nil {
		return Snapshot{}, err
	}
	now := s.now().UTC()
	if err := CheckAvailability(q, now); err != nil {
		return Snapshot{}, err
	}

	s.logger.Debug().
		Str("quiz_id", q.ID.String()).
		Str("student_id", student.UserID.String()).
		Msg("session started")

	return Snapshot{
		Quiz:      quiz.StudentView(q),
		StartedAt: now,
		Deadline:  now.Add(time.Duration(q.DurationMinutes) * time.Minute),
	}, nil
}

// SubmitAnswers grades and records one attempt.
func (s *Service) SubmitAnswers(ctx context.Context, student domain.Identity, req SubmitRequest) (domain.Result, error) {
	result, err := s.submit(ctx, student, req)
	if err != nil {
		if kind := domain.KindOf(err); kind != "" {
			s.metrics.Submission(string(kind), 0, 0)
		}
		return domain.Result{}, err
	}
	s.metrics.Submission("accepted", result.Score, result.TotalQuestions)
	return result, nil
}

func (s *Service) submit(ctx context.Context, student domain.Identity, req SubmitRequest) (domain.Result, error) {
	in, err := req.Validate()
	if err != nil {
		return domain.Result{}, err
	}

	q, err := s.store.GetQuiz(ctx, in.QuizID)
	if err != nil {
		return domain.Result{}, err
	}

	now := s.now().UTC()
	if err := CheckAvailability(q, now); err != nil {
		return domain.Result{}, err
	}
	if err := s.policy.Check(q.DurationMinutes, in.TimeTakenSeconds); err != nil {
		return domain.Result{}, err
	}

	result := domain.Result{
		ID:               uuid.New(),
		QuizID:           q.ID,
		QuizTitle:        q.Title,
		StudentID:        student.UserID,
		StudentEmail:     student.Email,
		StudentName:      student.Name,
		Answers:          in.Answers,
		Score:            Grade(q.Questions, in.Answers),
		TotalQuestions:   len(q.Questions),
		TimeTakenSeconds: in.TimeTakenSeconds,
		Status:           domain.ResultStatusCompleted,
		CompletedAt:      now,
	}

	saved, err := s.store.InsertResult(ctx, result)
	if err != nil {
		return domain.Result{}, fmt.Errorf("save result: %w", err)
	}

	s.logger.Info().
		Str("quiz_id", saved.QuizID.String()).
		Str("student_id", saved.StudentID.String()).
		Int("score", saved.Score).
		Int("total", saved.TotalQuestions).
		Msg("submission graded")

	if s.notifier != nil {
		if err := s.notifier.ResultRecorded(ctx, saved); err != nil {
			s.logger.Warn().Err(err).Str("quiz_id", saved.QuizID.String()).Msg("leaderboard notification failed")
		}
	}
	return saved, nil
}

// ResultsForStudent returns the student's results, most recent first.
func (s *Service) ResultsForStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Result, error) {
	results, err := s.store.ListResultsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if results == nil {
		return []domain.Result{}, nil
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompletedAt.After(results[j].CompletedAt)
	})
	return results, nil
}
