package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

// Store is an in-process implementation of every persistence contract. It enforces the same
// constraints as the Postgres schema (unique access code, unique email) and is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]domain.User
	emails    map[string]uuid.UUID
	questions map[uuid.UUID]domain.Question
	quizzes   map[uuid.UUID]domain.Quiz
	codes     map[string]uuid.UUID
	results   []domain.Result
}

func NewStore() *Store {
	return &Store{
		users:     make(map[uuid.UUID]domain.User),
		emails:    make(map[string]uuid.UUID),
		questions: make(map[uuid.UUID]domain.Question),
		quizzes:   make(map[uuid.UUID]domain.Quiz),
		codes:     make(map[string]uuid.UUID),
	}
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.emails[key]; exists {
		return domain.User{}, domain.ErrConflict
	}
	s.users[user.ID] = user
	s.emails[key] = user.ID
	return user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.NotFound("user")
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.NotFound("user")
	}
	return user, nil
}

func (s *Store) AccessCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.codes[code]
	return exists, nil
}

// CreateQuiz inserts questions and quiz atomically.
func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz, questions []domain.Question) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[quiz.AccessCode]; exists {
		return domain.Quiz{}, domain.ErrAccessCodeTaken
	}
	for _, q := range questions {
		s.questions[q.ID] = cloneQuestion(q)
	}
	stored := quiz
	stored.QuestionIDs = append([]uuid.UUID(nil), quiz.QuestionIDs...)
	stored.Questions = nil
	s.quizzes[quiz.ID] = stored
	s.codes[quiz.AccessCode] = quiz.ID
	return s.resolve(stored), nil
}

func (s *Store) GetQuiz(_ context.Context, id uuid.UUID) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.NotFound("quiz")
	}
	return s.resolve(quiz), nil
}

func (s *Store) GetQuizByAccessCode(_ context.Context, code string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.codes[code]
	if !ok {
		return domain.Quiz{}, domain.NotFound("quiz")
	}
	return s.resolve(s.quizzes[id]), nil
}

// ListQuizzesByOwner returns the owner's quizzes, newest first.
func (s *Store) ListQuizzesByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.CreatedBy == ownerID {
			out = append(out, s.resolve(quiz))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteQuiz removes the quiz and its questions. Results are kept.
func (s *Store) DeleteQuiz(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.NotFound("quiz")
	}
	for _, qid := range quiz.QuestionIDs {
		delete(s.questions, qid)
	}
	delete(s.codes, quiz.AccessCode)
	delete(s.quizzes, id)
	return nil
}

func (s *Store) InsertResult(_ context.Context, result domain.Result) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := result
	stored.Answers = cloneAnswers(result.Answers)
	s.results = append(s.results, stored)
	return result, nil
}

// ListResultsByStudent returns the student's results, most recent first.
func (s *Store) ListResultsByStudent(_ context.Context, studentID uuid.UUID) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Result
	for _, r := range s.results {
		if r.StudentID == studentID {
			out = append(out, cloneResult(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}

// ListCompletedResults returns completed results for a quiz in insertion order.
func (s *Store) ListCompletedResults(_ context.Context, quizID uuid.UUID) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Result
	for _, r := range s.results {
		if r.QuizID == quizID && r.Status == domain.ResultStatusCompleted {
			out = append(out, cloneResult(r))
		}
	}
	return out, nil
}

// QuestionCount is used by tests to assert cascade deletes.
func (s *Store) QuestionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions)
}

func (s *Store) resolve(quiz domain.Quiz) domain.Quiz {
	out := quiz
	out.QuestionIDs = append([]uuid.UUID(nil), quiz.QuestionIDs...)
	out.Questions = make([]domain.Question, 0, len(quiz.QuestionIDs))
	for _, qid := range quiz.QuestionIDs {
		if q, ok := s.questions[qid]; ok {
			out.Questions = append(out.Questions, cloneQuestion(q))
		}
	}
	return out
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

func cloneResult(r domain.Result) domain.Result {
	r.Answers = cloneAnswers(r.Answers)
	return r
}

func cloneAnswers(in []domain.AnswerEntry) []domain.AnswerEntry {
	if in == nil {
		return nil
	}
	out := make([]domain.AnswerEntry, len(in))
	copy(out, in)
	return out
}
