package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role values carried in access tokens.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Result lifecycle states. Submissions are persisted as completed.
const (
	ResultStatusPending    = "pending"
	ResultStatusInProgress = "in-progress"
	ResultStatusCompleted  = "completed"
)

// Identity is the authenticated caller as seen by the core services.
type Identity struct {
	UserID uuid.UUID
	Role   string
	Email  string
	Name   string
}

// HasRole reports whether the identity carries one of the given roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// User is a registered account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Question is a single multiple-choice item owned by a quiz.
type Question struct {
	ID                 uuid.UUID `json:"id"`
	Text               string    `json:"text"`
	Options            []string  `json:"options"`
	CorrectOptionIndex int       `json:"correctOptionIndex"`
	CreatedBy          uuid.UUID `json:"-"`
}

// Quiz is the catalog record. Questions is populated when the store resolves references.
type Quiz struct {
	ID                uuid.UUID   `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description,omitempty"`
	DurationMinutes   int         `json:"duration"`
	AccessCode        string      `json:"accessCode"`
	CreatedBy         uuid.UUID   `json:"createdBy"`
	QuestionIDs       []uuid.UUID `json:"questionIds"`
	Questions         []Question  `json:"questions,omitempty"`
	IsAlwaysAvailable bool        `json:"isAlwaysAvailable"`
	AvailableFrom     *time.Time  `json:"availableFrom,omitempty"`
	AvailableTo       *time.Time  `json:"availableTo,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// AnswerEntry is one submitted answer, stored exactly as the client sent it.
// QuestionID stays a string so ids that match nothing are still echoed back.
type AnswerEntry struct {
	QuestionID  string  `json:"questionId"`
	GivenAnswer *string `json:"givenAnswer"`
}

// Result is a graded submission. It is never mutated after insert.
type Result struct {
	ID               uuid.UUID     `json:"id"`
	QuizID           uuid.UUID     `json:"quizId"`
	QuizTitle        string        `json:"quizTitle"`
	StudentID        uuid.UUID     `json:"studentId"`
	StudentEmail     string        `json:"email"`
	StudentName      string        `json:"fullName"`
	Answers          []AnswerEntry `json:"answers"`
	Score            int           `json:"score"`
	TotalQuestions   int           `json:"totalQuestions"`
	TimeTakenSeconds int           `json:"timeTaken"`
	Status           string        `json:"status"`
	CompletedAt      time.Time     `json:"completedAt"`
}
