package ws

import (
	"encoding/json"
	"time"
)

// MessageType constants for the WebSocket protocol.
const (
	// Client -> Server
	TypePing = "ping"

	// Server -> Client
	TypeLeaderboardSnapshot = "leaderboard_snapshot"
	TypeLeaderboardUpdate   = "leaderboard_update"
	TypeError               = "error"
	TypePong                = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Server Messages (outgoing)

type LeaderboardPayload struct {
	QuizID      string             `json:"quiz_id"`
	Entries     []LeaderboardEntry `json:"entries"`
	RetrievedAt time.Time          `json:"retrieved_at"`
}

type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	StudentID      string    `json:"student_id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	TimeTaken      int       `json:"time_taken"`
	CompletedAt    time.Time `json:"completed_at"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
