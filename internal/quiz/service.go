package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/classquiz/internal/accesscode"
	"github.com/gokatarajesh/classquiz/internal/domain"
	"github.com/gokatarajesh/classquiz/internal/metrics"
)

// insertAttempts bounds how often a create retries after the store rejects a duplicate access code.
const insertAttempts = 5

// Store is the persistence contract for the catalog.
// Implementations resolve Questions in QuestionIDs order and return domain.ErrAccessCodeTaken
// when the unique constraint on access code rejects an insert.
type Store interface {
	AccessCodeExists(ctx context.Context, code string) (bool, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz, questions []domain.Question) (domain.Quiz, error)
	GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
	GetQuizByAccessCode(ctx context.Context, code string) (domain.Quiz, error)
	ListQuizzesByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Quiz, error)
	DeleteQuiz(ctx context.Context, id uuid.UUID) error
}

// Cache holds quizzes by access code. A miss returns (nil, nil).
type Cache interface {
	Get(ctx context.Context, code string) (*domain.Quiz, error)
	Set(ctx context.Context, quiz domain.Quiz) error
	Delete(ctx context.Context, code string) error
}

// Service owns quiz creation, lookup and deletion.
type Service struct {
	store   Store
	cache   Cache
	codes   *accesscode.Generator
	metrics *metrics.Recorder
	now     func() time.Time
	logger  zerolog.Logger
}

// ServiceOptions configures optional collaborators.
type ServiceOptions struct {
	Cache   Cache
	Codes   *accesscode.Generator
	Metrics *metrics.Recorder
	Clock   func() time.Time
}

// NewService wires a catalog service.
func NewService(store Store, opts ServiceOptions, logger zerolog.Logger) *Service {
	codes := opts.Codes
	if codes == nil {
		codes = accesscode.NewGenerator(accesscode.Options{Observer: opts.Metrics.AccessCodeAttempts})
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:   store,
		cache:   opts.Cache,
		codes:   codes,
		metrics: opts.Metrics,
		now:     clock,
		logger:  logger.With().Str("component", "quiz_catalog").Logger(),
	}
}

// CreateQuiz validates req and persists the questions and the quiz as one unit.
func (s *Service) CreateQuiz(ctx context.Context, creator domain.Identity, req CreateQuizRequest) (domain.Quiz, error) {
	if err := req.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	questions := make([]domain.Question, len(req.Questions))
	questionIDs := make([]uuid.UUID, len(req.Questions))
	for i, in := range req.Questions {
		id := uuid.New()
		questions[i] = domain.Question{
			ID:                 id,
			Text:               strings.TrimSpace(in.Text),
			Options:            append([]string(nil), in.Options...),
			CorrectOptionIndex: *in.CorrectOptionIndex,
			CreatedBy:          creator.UserID,
		}
		questionIDs[i] = id
	}

	quiz := domain.Quiz{
		ID:                uuid.New(),
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		DurationMinutes:   req.DurationMinutes,
		CreatedBy:         creator.UserID,
		QuestionIDs:       questionIDs,
		IsAlwaysAvailable: req.IsAlwaysAvailable,
		CreatedAt:         s.now().UTC(),
	}
	if !req.IsAlwaysAvailable {
		from, to := req.AvailableFrom.UTC(), req.AvailableTo.UTC()
		quiz.AvailableFrom, quiz.AvailableTo = &from, &to
	}

	for attempt := 1; attempt <= insertAttempts; attempt++ {
		code, err := s.codes.GenerateUnique(ctx, s.store.AccessCodeExists)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.AccessCode = code

		created, err := s.store.CreateQuiz(ctx, quiz, questions)
		if errors.Is(err, domain.ErrAccessCodeTaken) {
			s.logger.Warn().Str("access_code", code).Int("attempt", attempt).Msg("access code collided on insert")
			continue
		}
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
		}

		s.metrics.QuizCreated()
		s.logger.Info().
			Str("quiz_id", created.ID.String()).
			Str("teacher_id", creator.UserID.String()).
			Str("access_code", created.AccessCode).
			Int("questions", len(questions)).
			Msg("quiz created")
		return created, nil
	}

	return domain.Quiz{}, &domain.Error{
		Kind:    domain.KindCapacityExhausted,
		Message: fmt.Sprintf("access code collided on %d consecutive inserts", insertAttempts),
	}
}

// GetByAccessCode resolves a quiz with its questions. The owner is not exposed.
func (s *Service) GetByAccessCode(ctx context.Context, code string) (domain.Quiz, error) {
	code = NormalizeCode(code)
	if !accesscode.Valid(code) {
		return domain.Quiz{}, domain.NotFound("quiz")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, code)
		if err != nil {
			s.logger.Warn().Err(err).Str("access_code", code).Msg("quiz cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	quiz, err := s.store.GetQuizByAccessCode(ctx, code)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.CreatedBy = uuid.Nil

	if s.cache != nil {
		if err := s.cache.Set(ctx, quiz); err != nil {
			s.logger.Warn().Err(err).Str("access_code", code).Msg("quiz cache write failed")
		}
	}
	return quiz, nil
}

// ListByOwner returns every quiz the teacher created, questions resolved.
func (s *Service) ListByOwner(ctx context.Context, teacherID uuid.UUID) ([]domain.Quiz, error) {
	quizzes, err := s.store.ListQuizzesByOwner(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	return quizzes, nil
}

// DeleteQuiz removes a quiz and its questions. Only the owner may delete.
func (s *Service) DeleteQuiz(ctx context.Context, id uuid.UUID, requesterID uuid.UUID) error {
	quiz, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return err
	}
	if quiz.CreatedBy != requesterID {
		return domain.Forbidden("you are not authorized to delete this quiz")
	}

	if err := s.store.DeleteQuiz(ctx, id); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, quiz.AccessCode); err != nil {
			s.logger.Warn().Err(err).Str("access_code", quiz.AccessCode).Msg("quiz cache eviction failed")
		}
	}

	s.metrics.QuizDeleted()
	s.logger.Info().Str("quiz_id", id.String()).Str("teacher_id", requesterID.String()).Msg("quiz deleted")
	return nil
}

// NormalizeCode upper-cases and trims a user-entered access code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
