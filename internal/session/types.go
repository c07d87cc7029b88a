package session

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

// GivenAnswer holds whatever the client sent as an answer: a string, a number, or null.
// Numbers are kept in their canonical decimal form.
type GivenAnswer struct {
	Value *string
}

func (g *GivenAnswer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		g.Value = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		g.Value = &s
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return &json.UnmarshalTypeError{Value: jsonKind(data), Type: reflect.TypeOf("")}
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	g.Value = &s
	return nil
}

func jsonKind(data []byte) string {
	if len(data) == 0 {
		return "value"
	}
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	}
	return "number"
}

func (g GivenAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Value)
}

// AnswerPayload is one answer in a submission.
type AnswerPayload struct {
	QuestionID  string      `json:"questionId"`
	GivenAnswer GivenAnswer `json:"givenAnswer"`
}

// SubmitRequest is the submit-answers payload. Pointers distinguish absent from empty.
type SubmitRequest struct {
	QuizID    string           `json:"quizId"`
	Answers   *[]AnswerPayload `json:"answers"`
	TimeTaken *int             `json:"timeTaken"`
}

// SubmitInput is a validated SubmitRequest.
type SubmitInput struct {
	QuizID           uuid.UUID
	Answers          []domain.AnswerEntry
	TimeTakenSeconds int
}

// Validate checks the payload shape and converts it into core input.
func (r SubmitRequest) Validate() (SubmitInput, error) {
	raw := strings.TrimSpace(r.QuizID)
	if raw == "" {
		return SubmitInput{}, domain.Validation("quizId", "quizId is required")
	}
	quizID, err := uuid.Parse(raw)
	if err != nil {
		return SubmitInput{}, domain.Validation("quizId", "quizId is malformed")
	}
	if r.Answers == nil {
		return SubmitInput{}, domain.Validation("answers", "answers are required")
	}
	if r.TimeTaken == nil {
		return SubmitInput{}, domain.Validation("timeTaken", "timeTaken is required")
	}
	if *r.TimeTaken < 0 {
		return SubmitInput{}, domain.Validation("timeTaken", "timeTaken must not be negative")
	}

	answers := make([]domain.AnswerEntry, len(*r.Answers))
	for i, a := range *r.Answers {
		if hasNUL(a.QuestionID) || (a.GivenAnswer.Value != nil && hasNUL(*a.GivenAnswer.Value)) {
			return SubmitInput{}, domain.Validation("answers", "answers must not contain NUL characters")
		}
		answers[i] = domain.AnswerEntry{QuestionID: a.QuestionID, GivenAnswer: a.GivenAnswer.Value}
	}
	return SubmitInput{QuizID: quizID, Answers: answers, TimeTakenSeconds: *r.TimeTaken}, nil
}

// StartRequest opens a session for the quiz behind an access code.
type StartRequest struct {
	AccessCode string `json:"accessCode"`
}

func (r StartRequest) Validate() error {
	if strings.TrimSpace(r.AccessCode) == "" {
		return domain.Validation("accessCode", "accessCode is required")
	}
	return nil
}

func hasNUL(s string) bool {
	return strings.IndexByte(s, 0) >= 0
}
