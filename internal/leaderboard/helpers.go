package leaderboard

import (
	"time"

	"github.com/google/uuid"

	ws "github.com/gokatarajesh/classquiz/pkg/http/ws"
)

func toWSEntries(entries []Entry) []ws.LeaderboardEntry {
	result := make([]ws.LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = ws.LeaderboardEntry{
			Rank:           e.Rank,
			StudentID:      e.StudentID.String(),
			FullName:       e.FullName,
			Email:          e.Email,
			Score:          e.Score,
			TotalQuestions: e.TotalQuestions,
			TimeTaken:      e.TimeTaken,
			CompletedAt:    e.CompletedAt,
		}
	}
	return result
}

func leaderboardMessage(msgType string, quizID uuid.UUID, entries []Entry) (ws.Message, error) {
	return ws.NewMessage(msgType, ws.LeaderboardPayload{
		QuizID:      quizID.String(),
		Entries:     toWSEntries(entries),
		RetrievedAt: time.Now().UTC(),
	})
}

// Topic is the hub topic that carries live updates for a quiz.
func Topic(quizID uuid.UUID) string {
	return "quiz:" + quizID.String()
}
