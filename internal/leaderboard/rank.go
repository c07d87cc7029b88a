package leaderboard

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

// Entry is one row of a quiz leaderboard.
type Entry struct {
	Rank           int       `json:"rank"`
	StudentID      uuid.UUID `json:"studentId"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	TimeTaken      int       `json:"timeTaken"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Rank orders completed results by score descending, then time taken ascending.
// Exact ties keep their input order. Results in any other status are skipped.
func Rank(results []domain.Result) []Entry {
	completed := make([]domain.Result, 0, len(results))
	for _, r := range results {
		if r.Status == domain.ResultStatusCompleted {
			completed = append(completed, r)
		}
	}

	sort.SliceStable(completed, func(i, j int) bool {
		if completed[i].Score != completed[j].Score {
			return completed[i].Score > completed[j].Score
		}
		return completed[i].TimeTakenSeconds < completed[j].TimeTakenSeconds
	})

	entries := make([]Entry, len(completed))
	for i, r := range completed {
		entries[i] = Entry{
			Rank:           i + 1,
			StudentID:      r.StudentID,
			FullName:       r.StudentName,
			Email:          r.StudentEmail,
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
			TimeTaken:      r.TimeTakenSeconds,
			CompletedAt:    r.CompletedAt,
		}
	}
	return entries
}
