package quiz

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

// QuestionInput is a question as authored in the create-quiz form.
type QuestionInput struct {
	Text               string   `json:"questionText"`
	Options            []string `json:"options"`
	CorrectOptionIndex *int     `json:"correctAnswerIndex"`
}

// CreateQuizRequest is the create-quiz payload.
type CreateQuizRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Questions         []QuestionInput `json:"questions"`
	DurationMinutes   int             `json:"duration"`
	IsAlwaysAvailable bool            `json:"isAlwaysAvailable"`
	AvailableFrom     *time.Time      `json:"availableFrom"`
	AvailableTo       *time.Time      `json:"availableTo"`
}

// Validate checks the request once at the boundary. Errors are domain validation errors.
func (r *CreateQuizRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return domain.Validation("title", "title is required")
	}
	if hasNUL(r.Title) {
		return domain.Validation("title", "title must not contain NUL characters")
	}
	if hasNUL(r.Description) {
		return domain.Validation("description", "description must not contain NUL characters")
	}
	if len(r.Questions) == 0 {
		return domain.Validation("questions", "at least one question is required")
	}
	if r.DurationMinutes <= 0 {
		return domain.Validation("duration", "duration must be a positive number of minutes")
	}
	for i, q := range r.Questions {
		if err := q.validate(i); err != nil {
			return err
		}
	}
	if !r.IsAlwaysAvailable {
		if r.AvailableFrom == nil || r.AvailableTo == nil {
			return domain.Validation("availableFrom", "availableFrom and availableTo are required if quiz is not always available")
		}
		if !r.AvailableFrom.Before(*r.AvailableTo) {
			return domain.Validation("availableFrom", "availableFrom must be before availableTo")
		}
	}
	return nil
}

func (q QuestionInput) validate(i int) error {
	field := "questions[" + strconv.Itoa(i) + "]"
	if strings.TrimSpace(q.Text) == "" {
		return domain.Validation(field+".questionText", "question text is required")
	}
	if hasNUL(q.Text) {
		return domain.Validation(field+".questionText", "question text must not contain NUL characters")
	}
	if len(q.Options) < 2 {
		return domain.Validation(field+".options", "a question needs at least two options")
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return domain.Validation(field+".options", "options must not be empty")
		}
		if hasNUL(opt) {
			return domain.Validation(field+".options", "options must not contain NUL characters")
		}
	}
	if q.CorrectOptionIndex == nil {
		return domain.Validation(field+".correctAnswerIndex", "correct answer index is required")
	}
	if idx := *q.CorrectOptionIndex; idx < 0 || idx >= len(q.Options) {
		return domain.Validation(field+".correctAnswerIndex", "correct answer index is out of range")
	}
	return nil
}

// hasNUL reports a NUL byte, which Postgres TEXT and JSONB columns reject.
func hasNUL(s string) bool {
	return strings.IndexByte(s, 0) >= 0
}

// PublicQuestion is a question as shown to a student: no correct answer.
type PublicQuestion struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"questionText"`
	Options []string  `json:"options"`
}

// PublicQuiz is the student-facing quiz view. It carries neither the owner nor the answer key.
type PublicQuiz struct {
	ID                uuid.UUID        `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description,omitempty"`
	DurationMinutes   int              `json:"duration"`
	AccessCode        string           `json:"accessCode"`
	Questions         []PublicQuestion `json:"questions"`
	IsAlwaysAvailable bool             `json:"isAlwaysAvailable"`
	AvailableFrom     *time.Time       `json:"availableFrom,omitempty"`
	AvailableTo       *time.Time       `json:"availableTo,omitempty"`
}

// StudentView strips owner and answer key from q.
func StudentView(q domain.Quiz) PublicQuiz {
	qs := make([]PublicQuestion, len(q.Questions))
	for i, question := range q.Questions {
		qs[i] = PublicQuestion{
			ID:      question.ID,
			Text:    question.Text,
			Options: append([]string(nil), question.Options...),
		}
	}
	return PublicQuiz{
		ID:                q.ID,
		Title:             q.Title,
		Description:       q.Description,
		DurationMinutes:   q.DurationMinutes,
		AccessCode:        q.AccessCode,
		Questions:         qs,
		IsAlwaysAvailable: q.IsAlwaysAvailable,
		AvailableFrom:     q.AvailableFrom,
		AvailableTo:       q.AvailableTo,
	}
}
