package leaderboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/classquiz/internal/db/memory"
	"github.com/gokatarajesh/classquiz/internal/domain"
)

type fixture struct {
	store  *memory.Store
	owner  domain.Identity
	quizID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		owner: domain.Identity{UserID: uuid.New(), Role: domain.RoleTeacher},
	}
	q := domain.Question{ID: uuid.New(), Text: "q", Options: []string{"a", "b"}}
	quiz := domain.Quiz{
		ID: uuid.New(), Title: "Ranked", DurationMinutes: 5, AccessCode: "RANK01",
		CreatedBy: f.owner.UserID, QuestionIDs: []uuid.UUID{q.ID}, IsAlwaysAvailable: true,
	}
	_, err := f.store.CreateQuiz(context.Background(), quiz, []domain.Question{q})
	require.NoError(t, err)
	f.quizID = quiz.ID
	return f
}

func (f *fixture) submit(t *testing.T, name string, score, timeTaken int) domain.Result {
	t.Helper()
	r := completed(name, score, timeTaken)
	r.QuizID = f.quizID
	r.CompletedAt = time.Now().UTC()
	_, err := f.store.InsertResult(context.Background(), r)
	require.NoError(t, err)
	return r
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLeaderboardAccessRules(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, nil, zerolog.Nop(), ServiceOptions{})

	_, err := svc.Leaderboard(context.Background(), uuid.New(), f.owner)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stranger := domain.Identity{UserID: uuid.New(), Role: domain.RoleTeacher}
	_, err = svc.Leaderboard(context.Background(), f.quizID, stranger)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	entries, err := svc.Leaderboard(context.Background(), f.quizID, f.owner)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, f.store.DeleteQuiz(context.Background(), f.quizID))
	_, err = svc.Leaderboard(context.Background(), f.quizID, f.owner)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLeaderboardReadsFreshWithoutRedis(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, nil, zerolog.Nop(), ServiceOptions{})

	f.submit(t, "a", 8, 120)
	first, err := svc.Leaderboard(context.Background(), f.quizID, f.owner)
	require.NoError(t, err)
	require.Len(t, first, 1)

	f.submit(t, "b", 9, 200)
	second, err := svc.Leaderboard(context.Background(), f.quizID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names(second))
}

func TestLeaderboardCacheInvalidatedBySubmission(t *testing.T) {
	f := newFixture(t)
	mr, client := newRedis(t)
	svc := NewService(f.store, client, zerolog.Nop(), ServiceOptions{CacheTTL: time.Minute})
	key := "lb:quiz:" + f.quizID.String()

	f.submit(t, "a", 8, 120)
	entries, err := svc.Leaderboard(context.Background(), f.quizID, f.owner)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, mr.Exists(key))

	// a write that bypasses ResultRecorded is not visible until the cache expires
	hidden := f.submit(t, "b", 9, 90)
	entries, err = svc.Leaderboard(context.Background(), f.quizID, f.owner)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, svc.ResultRecorded(context.Background(), hidden))
	assert.False(t, mr.Exists(key))

	entries, err = svc.Leaderboard(context.Background(), f.quizID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names(entries))
}

// gatedStore pauses the first ranking read after the results were loaded.
type gatedStore struct {
	*memory.Store
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) ListCompletedResults(ctx context.Context, quizID uuid.UUID) ([]domain.Result, error) {
	results, err := g.Store.ListCompletedResults(ctx, quizID)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return results, err
}

func TestLeaderboardRecomputeDoesNotCacheSupersededRanking(t *testing.T) {
	f := newFixture(t)
	mr, client := newRedis(t)
	gated := &gatedStore{Store: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(gated, client, zerolog.Nop(), ServiceOptions{CacheTTL: time.Minute})
	key := "lb:quiz:" + f.quizID.String()

	f.submit(t, "a", 5, 100)

	done := make(chan []Entry, 1)
	go func() {
		entries, err := svc.Current(context.Background(), f.quizID)
		assert.NoError(t, err)
		done <- entries
	}()

	<-gated.entered
	late := f.submit(t, "b", 9, 50)
	require.NoError(t, svc.ResultRecorded(context.Background(), late))
	close(gated.release)

	stale := <-done
	assert.Equal(t, []string{"a"}, names(stale))
	assert.False(t, mr.Exists(key), "ranking read before the submission must not be cached")

	fresh, err := svc.Current(context.Background(), f.quizID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names(fresh))
	assert.True(t, mr.Exists(key))
}

func TestResultRecordedPublishesEvent(t *testing.T) {
	f := newFixture(t)
	_, client := newRedis(t)
	svc := NewService(f.store, client, zerolog.Nop(), ServiceOptions{PubSubChannel: "lb:test"})

	sub := client.Subscribe(context.Background(), "lb:test")
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	r := f.submit(t, "a", 3, 30)
	require.NoError(t, svc.ResultRecorded(context.Background(), r))

	select {
	case msg := <-sub.Channel():
		assert.Contains(t, msg.Payload, f.quizID.String())
		assert.Contains(t, msg.Payload, r.ID.String())
	case <-time.After(2 * time.Second):
		t.Fatal("no leaderboard event published")
	}
}

type recordingListener struct {
	mu    sync.Mutex
	calls []uuid.UUID
	done  chan struct{}
}

func (l *recordingListener) QuizChanged(_ context.Context, quizID uuid.UUID) {
	l.mu.Lock()
	l.calls = append(l.calls, quizID)
	l.mu.Unlock()
	l.done <- struct{}{}
}

func TestResultRecordedNotifiesListenerWithoutRedis(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, nil, zerolog.Nop(), ServiceOptions{})
	l := &recordingListener{done: make(chan struct{}, 1)}
	svc.SetListener(l)

	require.NoError(t, svc.ResultRecorded(context.Background(), f.submit(t, "a", 1, 1)))

	select {
	case <-l.done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener not called")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Equal(t, []uuid.UUID{f.quizID}, l.calls)
}
