package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/classquiz/internal/db/memory"
	"github.com/gokatarajesh/classquiz/internal/domain"
	"github.com/gokatarajesh/classquiz/internal/quiz"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) ResultRecorded(ctx context.Context, result domain.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

type fixture struct {
	store   *memory.Store
	catalog *quiz.Service
	svc     *Service
	now     time.Time
	teacher domain.Identity
	student domain.Identity
}

func newFixture(t *testing.T, opts ServiceOptions) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.NewStore(),
		now:     time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
		teacher: domain.Identity{UserID: uuid.New(), Role: domain.RoleTeacher},
		student: domain.Identity{UserID: uuid.New(), Role: domain.RoleStudent, Email: "s@example.com", Name: "Sam Student"},
	}
	clock := func() time.Time { return f.now }
	f.catalog = quiz.NewService(f.store, quiz.ServiceOptions{Clock: clock}, zerolog.Nop())
	opts.Clock = clock
	f.svc = NewService(f.store, f.catalog, opts, zerolog.Nop())
	return f
}

func intPtr(v int) *int { return &v }

func (f *fixture) createQuiz(t *testing.T, mutate func(*quiz.CreateQuizRequest)) domain.Quiz {
	t.Helper()
	req := quiz.CreateQuizRequest{
		Title:           "Capitals",
		DurationMinutes: 10,
		Questions: []quiz.QuestionInput{
			{Text: "France", Options: []string{"Lyon", "Paris"}, CorrectOptionIndex: intPtr(1)},
			{Text: "Italy", Options: []string{"Rome", "Milan"}, CorrectOptionIndex: intPtr(0)},
			{Text: "Spain", Options: []string{"Madrid", "Seville", "Bilbao"}, CorrectOptionIndex: intPtr(0)},
		},
		IsAlwaysAvailable: true,
	}
	if mutate != nil {
		mutate(&req)
	}
	created, err := f.catalog.CreateQuiz(context.Background(), f.teacher, req)
	require.NoError(t, err)
	return created
}

func submission(quizID uuid.UUID, timeTaken int, answers ...AnswerPayload) SubmitRequest {
	if answers == nil {
		answers = []AnswerPayload{}
	}
	return SubmitRequest{QuizID: quizID.String(), Answers: &answers, TimeTaken: &timeTaken}
}

func answer(q domain.Question, given string) AnswerPayload {
	return AnswerPayload{QuestionID: q.ID.String(), GivenAnswer: GivenAnswer{Value: &given}}
}

func TestSubmitAnswersGradesAndPersists(t *testing.T) {
	notifier := &mockNotifier{}
	notifier.On("ResultRecorded", mock.Anything, mock.AnythingOfType("domain.Result")).Return(nil).Once()

	f := newFixture(t, ServiceOptions{Notifier: notifier})
	q := f.createQuiz(t, nil)

	result, err := f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 120,
		answer(q.Questions[0], "1"),
		answer(q.Questions[1], "1"),
	))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Equal(t, 120, result.TimeTakenSeconds)
	assert.Equal(t, domain.ResultStatusCompleted, result.Status)
	assert.Equal(t, "Capitals", result.QuizTitle)
	assert.Equal(t, "Sam Student", result.StudentName)
	assert.Equal(t, f.now, result.CompletedAt)
	require.Len(t, result.Answers, 2)
	assert.Equal(t, "1", *result.Answers[1].GivenAnswer)

	history, err := f.svc.ResultsForStudent(context.Background(), f.student.UserID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.ID, history[0].ID)
	notifier.AssertExpectations(t)
}

func TestSubmitAnswersScores(t *testing.T) {
	f := newFixture(t, ServiceOptions{})
	q := f.createQuiz(t, nil)

	all, err := f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10,
		answer(q.Questions[0], "1"), answer(q.Questions[1], "0"), answer(q.Questions[2], "0"),
	))
	require.NoError(t, err)
	assert.Equal(t, 3, all.Score)

	none, err := f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10,
		answer(q.Questions[0], "0"), answer(q.Questions[1], "x"),
		AnswerPayload{QuestionID: uuid.NewString(), GivenAnswer: GivenAnswer{Value: strPtr("1")}},
	))
	require.NoError(t, err)
	assert.Equal(t, 0, none.Score)
	assert.Equal(t, 3, none.TotalQuestions)

	empty, err := f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Score)
	assert.Empty(t, empty.Answers)
}

func strPtr(s string) *string { return &s }

func TestSubmitAnswersRejections(t *testing.T) {
	f := newFixture(t, ServiceOptions{})
	q := f.createQuiz(t, nil)

	_, err := f.svc.SubmitAnswers(context.Background(), f.student, submission(uuid.New(), 10))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.SubmitAnswers(context.Background(), f.student, SubmitRequest{QuizID: q.ID.String(), TimeTaken: intPtr(3)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 601))
	assert.ErrorIs(t, err, domain.ErrDurationExceeded)

	history, err := f.svc.ResultsForStudent(context.Background(), f.student.UserID)
	require.NoError(t, err)
	assert.Empty(t, history, "rejected submissions are not recorded")
}

func TestSubmitAnswersLegacyMinutes(t *testing.T) {
	f := newFixture(t, ServiceOptions{Duration: DurationPolicy{Mode: DurationLegacyMinutes}})
	q := f.createQuiz(t, nil)

	_, err := f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10))
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 11))
	assert.ErrorIs(t, err, domain.ErrDurationExceeded)
}

func TestSubmitAnswersAvailabilityWindow(t *testing.T) {
	f := newFixture(t, ServiceOptions{})
	from := f.now.Add(time.Hour)
	to := from.Add(time.Hour)
	q := f.createQuiz(t, func(r *quiz.CreateQuizRequest) {
		r.IsAlwaysAvailable = false
		r.AvailableFrom, r.AvailableTo = &from, &to
	})

	_, err := f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10))
	assert.ErrorIs(t, err, domain.ErrNotAvailable)

	f.now = from
	_, err = f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10))
	assert.NoError(t, err)

	f.now = to.Add(time.Second)
	_, err = f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10))
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
}

// incompleteStore serves a quiz whose window lost a bound.
type incompleteStore struct {
	*memory.Store
}

func (s incompleteStore) GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error) {
	q, err := s.Store.GetQuiz(ctx, id)
	if err != nil {
		return q, err
	}
	q.IsAlwaysAvailable = false
	q.AvailableTo = nil
	return q, nil
}

func TestSubmitAnswersScheduleIncomplete(t *testing.T) {
	f := newFixture(t, ServiceOptions{})
	q := f.createQuiz(t, nil)
	svc := NewService(incompleteStore{f.store}, f.catalog, ServiceOptions{Clock: func() time.Time { return f.now }}, zerolog.Nop())

	_, err := svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10))
	assert.ErrorIs(t, err, domain.ErrScheduleIncomplete)
}

func TestSubmitAnswersSurvivesNotifierFailure(t *testing.T) {
	notifier := &mockNotifier{}
	notifier.On("ResultRecorded", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	f := newFixture(t, ServiceOptions{Notifier: notifier})
	q := f.createQuiz(t, nil)

	_, err := f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10))
	require.NoError(t, err)
	notifier.AssertNumberOfCalls(t, "ResultRecorded", 1)
}

func TestStartSession(t *testing.T) {
	f := newFixture(t, ServiceOptions{})
	q := f.createQuiz(t, nil)

	snap, err := f.svc.StartSession(context.Background(), q.AccessCode, f.student)
	require.NoError(t, err)
	assert.Equal(t, q.ID, snap.Quiz.ID)
	assert.Len(t, snap.Quiz.Questions, 3)
	assert.Equal(t, f.now, snap.StartedAt)
	assert.Equal(t, f.now.Add(10*time.Minute), snap.Deadline)

	_, err = f.svc.StartSession(context.Background(), "NOPE00", f.student)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStartSessionOutsideWindow(t *testing.T) {
	f := newFixture(t, ServiceOptions{})
	from := f.now.Add(-2 * time.Hour)
	to := f.now.Add(-time.Hour)
	q := f.createQuiz(t, func(r *quiz.CreateQuizRequest) {
		r.IsAlwaysAvailable = false
		r.AvailableFrom, r.AvailableTo = &from, &to
	})

	_, err := f.svc.StartSession(context.Background(), q.AccessCode, f.student)
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
}

func TestResultsForStudentOrdering(t *testing.T) {
	f := newFixture(t, ServiceOptions{})
	q := f.createQuiz(t, nil)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		res, err := f.svc.SubmitAnswers(context.Background(), f.student, submission(q.ID, 10))
		require.NoError(t, err)
		ids = append(ids, res.ID)
		f.now = f.now.Add(time.Minute)
	}

	// quiz deletion does not erase history
	require.NoError(t, f.catalog.DeleteQuiz(context.Background(), q.ID, f.teacher.UserID))

	history, err := f.svc.ResultsForStudent(context.Background(), f.student.UserID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{history[0].ID, history[1].ID, history[2].ID})
	assert.Equal(t, "Capitals", history[0].QuizTitle)

	other, err := f.svc.ResultsForStudent(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, other)
}
