package leaderboard

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/classquiz/pkg/http/ws"
)

// Broadcaster pushes fresh rankings to WebSocket subscribers of a quiz. It is fed either by
// Redis Pub/Sub (Run) or directly through QuizChanged.
type Broadcaster struct {
	redis   *redis.Client
	hub     *ws.Hub
	svc     *Service
	channel string
	logger  zerolog.Logger
}

// NewBroadcaster creates a leaderboard broadcaster. redis may be nil.
func NewBroadcaster(redis *redis.Client, hub *ws.Hub, svc *Service, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		redis:   redis,
		hub:     hub,
		svc:     svc,
		channel: svc.Channel(),
		logger:  logger.With().Str("component", "leaderboard_broadcaster").Logger(),
	}
}

// Run subscribes to the update channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(ctx, msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(ctx context.Context, payload string) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode leaderboard update payload")
		return
	}
	b.QuizChanged(ctx, evt.QuizID)
}

// QuizChanged recomputes the ranking and sends it to the quiz's subscribers, if any.
func (b *Broadcaster) QuizChanged(ctx context.Context, quizID uuid.UUID) {
	topic := Topic(quizID)
	if b.hub.Subscribers(topic) == 0 {
		return
	}

	entries, err := b.svc.Current(ctx, quizID)
	if err != nil {
		b.logger.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("failed to collect leaderboard update")
		return
	}

	msg, err := leaderboardMessage(ws.TypeLeaderboardUpdate, quizID, entries)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to marshal leaderboard WS payload")
		return
	}
	if err := b.hub.Publish(topic, msg); err != nil {
		b.logger.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("failed to broadcast leaderboard update")
	}
}
