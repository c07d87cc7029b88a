package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

// Duration comparison modes.
const (
	// DurationSeconds treats timeTaken as seconds and compares against the duration in seconds.
	DurationSeconds = "seconds"
	// DurationLegacyMinutes compares timeTaken directly against the duration in minutes.
	DurationLegacyMinutes = "legacy_minutes"
)

// ParseGivenAnswer reads the leading integer of s the way browsers parse form input:
// surrounding whitespace and a sign are accepted, a 0x prefix selects hex,
// and trailing garbage after the digits is ignored. ok is false when no digits lead.
func ParseGivenAnswer(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f\u00a0\ufeff")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base, isDigit := 10, isDecimal
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit = 16, isHex
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	if n != int64(int(n)) {
		return 0, false
	}
	return int(n), true
}

func isDecimal(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDecimal(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Grade counts correct answers against the quiz's questions. Answers whose id matches no
// question are ignored. Only the first answer given for a question is graded; repeats are
// ignored whether or not the first one was right.
func Grade(questions []domain.Question, answers []domain.AnswerEntry) int {
	correct := make(map[string]int, len(questions))
	for _, q := range questions {
		correct[q.ID.String()] = q.CorrectOptionIndex
	}

	seen := make(map[string]bool, len(answers))
	score := 0
	for _, a := range answers {
		id := strings.ToLower(strings.TrimSpace(a.QuestionID))
		want, ok := correct[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if a.GivenAnswer == nil {
			continue
		}
		if got, ok := ParseGivenAnswer(*a.GivenAnswer); ok && got == want {
			score++
		}
	}
	return score
}

// CheckAvailability enforces the quiz window at now. Bounds are inclusive.
func CheckAvailability(quiz domain.Quiz, now time.Time) error {
	if quiz.IsAlwaysAvailable {
		return nil
	}
	if quiz.AvailableFrom == nil || quiz.AvailableTo == nil {
		return domain.ErrScheduleIncomplete
	}
	if now.Before(*quiz.AvailableFrom) || now.After(*quiz.AvailableTo) {
		return domain.ErrNotAvailable
	}
	return nil
}

// DurationPolicy decides whether a reported time exceeds the quiz duration.
type DurationPolicy struct {
	Mode  string
	Grace time.Duration
}

// Check returns a DurationExceeded error when timeTaken is over the allowance.
func (p DurationPolicy) Check(durationMinutes, timeTaken int) error {
	var over bool
	switch p.Mode {
	case DurationLegacyMinutes:
		over = timeTaken > durationMinutes
	default:
		allowed := int64(durationMinutes)*60 + int64(p.Grace/time.Second)
		over = int64(timeTaken) > allowed
	}
	if !over {
		return nil
	}
	return &domain.Error{
		Kind:    domain.KindDurationExceeded,
		Message: fmt.Sprintf("quiz duration exceeded, allowed: %d min", durationMinutes),
	}
}

// ValidMode reports whether mode names a known duration comparison.
func ValidMode(mode string) bool {
	return mode == DurationSeconds || mode == DurationLegacyMinutes
}
