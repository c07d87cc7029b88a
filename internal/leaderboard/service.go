package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gokatarajesh/classquiz/internal/domain"
	"github.com/gokatarajesh/classquiz/internal/metrics"
)

// Store is what the ranker reads from persistence.
type Store interface {
	GetQuiz(ctx context.Context, id uuid.UUID) (domain.Quiz, error)
	ListCompletedResults(ctx context.Context, quizID uuid.UUID) ([]domain.Result, error)
}

// Listener is told when a quiz's ranking may have changed.
type Listener interface {
	QuizChanged(ctx context.Context, quizID uuid.UUID)
}

// Event is published on the update channel for every recorded result.
type Event struct {
	QuizID    uuid.UUID `json:"quiz_id"`
	ResultID  uuid.UUID `json:"result_id"`
	StudentID uuid.UUID `json:"student_id"`
	Score     int       `json:"score"`
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	PubSubChannel  string
	CacheTTL       time.Duration
	RedisKeyPrefix string
	Metrics        *metrics.Recorder
}

// Service ranks quiz results. With Redis it caches rankings briefly and emits updates over Pub/Sub.
type Service struct {
	store         Store
	redis         *redis.Client
	listener      Listener
	group         singleflight.Group
	metrics       *metrics.Recorder
	logger        zerolog.Logger
	pubsubChannel string
	cacheTTL      time.Duration
	prefix        string
}

// NewService constructs a leaderboard service. redis may be nil.
func NewService(store Store, redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "lb:updates"
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &Service{
		store:         store,
		redis:         redis,
		metrics:       opts.Metrics,
		logger:        logger.With().Str("component", "leaderboard").Logger(),
		pubsubChannel: channel,
		cacheTTL:      ttl,
		prefix:        prefix,
	}
}

// SetListener routes change notifications in-process. It is used when no Redis is configured.
func (s *Service) SetListener(l Listener) {
	s.listener = l
}

// Channel is the Pub/Sub channel updates are published on.
func (s *Service) Channel() string {
	return s.pubsubChannel
}

// Leaderboard returns the ranking for a quiz the requester owns.
func (s *Service) Leaderboard(ctx context.Context, quizID uuid.UUID, requester domain.Identity) ([]Entry, error) {
	if err := s.Authorize(ctx, quizID, requester); err != nil {
		return nil, err
	}
	return s.Current(ctx, quizID)
}

// Authorize checks that the quiz exists and belongs to requester.
func (s *Service) Authorize(ctx context.Context, quizID uuid.UUID, requester domain.Identity) error {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if quiz.CreatedBy != requester.UserID {
		return domain.Forbidden("you are not authorized to view this leaderboard")
	}
	return nil
}

// Current returns the ranking without an ownership check.
func (s *Service) Current(ctx context.Context, quizID uuid.UUID) ([]Entry, error) {
	if entries, ok := s.readCache(ctx, quizID); ok {
		s.metrics.LeaderboardRead("cache")
		return entries, nil
	}

	v, err, _ := s.group.Do(quizID.String(), func() (interface{}, error) {
		gen, cacheable := s.generation(ctx, quizID)
		results, err := s.store.ListCompletedResults(ctx, quizID)
		if err != nil {
			return nil, fmt.Errorf("list results: %w", err)
		}
		entries := Rank(results)
		if cacheable {
			s.writeCache(ctx, quizID, gen, entries)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.LeaderboardRead("store")
	return v.([]Entry), nil
}

// ResultRecorded invalidates the cached ranking and announces the change.
func (s *Service) ResultRecorded(ctx context.Context, result domain.Result) error {
	if s.redis == nil {
		if s.listener != nil {
			go s.listener.QuizChanged(context.WithoutCancel(ctx), result.QuizID)
		}
		return nil
	}

	// Bumping the generation stops any recompute that read results before this one from caching.
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, s.generationKey(result.QuizID))
		pipe.Del(ctx, s.cacheKey(result.QuizID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("evict leaderboard cache: %w", err)
	}

	data, err := json.Marshal(Event{
		QuizID:    result.QuizID,
		ResultID:  result.ID,
		StudentID: result.StudentID,
		Score:     result.Score,
	})
	if err != nil {
		return err
	}
	if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
		return fmt.Errorf("publish leaderboard update: %w", err)
	}
	return nil
}

func (s *Service) readCache(ctx context.Context, quizID uuid.UUID) ([]Entry, bool) {
	if s.redis == nil {
		return nil, false
	}
	data, err := s.redis.Get(ctx, s.cacheKey(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("leaderboard cache read failed")
		}
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn().Err(err).Msg("leaderboard cache payload decode failed")
		return nil, false
	}
	return entries, true
}

// generation reads the invalidation counter for a quiz. A ranking may only be cached under the
// generation that was current before its results were read.
func (s *Service) generation(ctx context.Context, quizID uuid.UUID) (int64, bool) {
	if s.redis == nil {
		return 0, false
	}
	gen, err := s.redis.Get(ctx, s.generationKey(quizID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("leaderboard generation read failed")
		return 0, false
	}
	return gen, true
}

// writeCache stores entries only if no submission was recorded since gen was read.
func (s *Service) writeCache(ctx context.Context, quizID uuid.UUID, gen int64, entries []Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}

	genKey := s.generationKey(quizID)
	err = s.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleRanking
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.cacheKey(quizID), data, s.cacheTTL)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleRanking), errors.Is(err, redis.TxFailedErr):
		s.logger.Debug().Str("quiz_id", quizID.String()).Msg("skipped caching superseded leaderboard")
	default:
		s.logger.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("leaderboard cache write failed")
	}
}

var errStaleRanking = errors.New("leaderboard ranking superseded")

func (s *Service) cacheKey(quizID uuid.UUID) string {
	return fmt.Sprintf("%s:quiz:%s", s.prefix, quizID.String())
}

func (s *Service) generationKey(quizID uuid.UUID) string {
	return fmt.Sprintf("%s:quiz:%s:gen", s.prefix, quizID.String())
}
