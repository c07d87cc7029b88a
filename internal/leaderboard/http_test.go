package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/classquiz/internal/auth"
	"github.com/gokatarajesh/classquiz/internal/auth/jwt"
	"github.com/gokatarajesh/classquiz/internal/domain"
	ws "github.com/gokatarajesh/classquiz/pkg/http/ws"
)

type tokenMap map[string]domain.Identity

func (m tokenMap) ValidateToken(token string) (domain.Identity, error) {
	if id, ok := m[token]; ok {
		return id, nil
	}
	return domain.Identity{}, jwt.ErrInvalidToken
}

func TestHandleGet(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "a", 8, 120)
	f.submit(t, "b", 9, 200)
	h := NewHTTPHandler(NewService(f.store, nil, zerolog.Nop(), ServiceOptions{}), ws.NewHub(zerolog.Nop()), tokenMap{}, nil, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/results/leaderboard/{quizId}", h.HandleGet)

	get := func(id domain.Identity, quizID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/results/leaderboard/"+quizID, nil)
		req = req.WithContext(auth.WithIdentity(req.Context(), id))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := get(f.owner, f.quizID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Equal(t, []string{"b", "a"}, names(entries))

	assert.Equal(t, http.StatusForbidden, get(domain.Identity{UserID: uuid.New(), Role: domain.RoleTeacher}, f.quizID.String()).Code)
	assert.Equal(t, http.StatusNotFound, get(f.owner, uuid.NewString()).Code)
	assert.Equal(t, http.StatusNotFound, get(f.owner, "garbage").Code)
}

func TestHandleStreamPushesUpdates(t *testing.T) {
	for _, withRedis := range []bool{false, true} {
		name := "in-process"
		if withRedis {
			name = "redis"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			hub := ws.NewHub(zerolog.Nop())
			t.Cleanup(hub.Close)

			ctx, cancel := context.WithCancel(context.Background())
			t.Cleanup(cancel)

			var svc *Service
			if withRedis {
				mr, client := newRedis(t)
				svc = NewService(f.store, client, zerolog.Nop(), ServiceOptions{})
				b := NewBroadcaster(client, hub, svc, zerolog.Nop())
				go b.Run(ctx) //nolint:errcheck
				require.Eventually(t, func() bool {
					return mr.PubSubNumSub(svc.Channel())[svc.Channel()] == 1
				}, 2*time.Second, 10*time.Millisecond)
			} else {
				svc = NewService(f.store, nil, zerolog.Nop(), ServiceOptions{})
				svc.SetListener(NewBroadcaster(nil, hub, svc, zerolog.Nop()))
			}

			stranger := domain.Identity{UserID: uuid.New(), Role: domain.RoleTeacher}
			student := domain.Identity{UserID: uuid.New(), Role: domain.RoleStudent}
			h := NewHTTPHandler(svc, hub, tokenMap{"owner": f.owner, "stranger": stranger, "student": student}, nil, zerolog.Nop())
			mux := http.NewServeMux()
			mux.HandleFunc("GET /ws/leaderboards/{quizId}", h.HandleStream)
			srv := httptest.NewServer(mux)
			t.Cleanup(srv.Close)

			base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/leaderboards/" + f.quizID.String()

			for token, status := range map[string]int{"": 401, "bogus": 401, "student": 403, "stranger": 403} {
				_, resp, err := websocket.DefaultDialer.Dial(base+"?token="+token, nil)
				require.Error(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, status, resp.StatusCode, "token %q", token)
			}

			conn, _, err := websocket.DefaultDialer.Dial(base+"?token=owner", nil)
			require.NoError(t, err)
			defer conn.Close()

			read := func() (ws.Message, ws.LeaderboardPayload) {
				var msg ws.Message
				require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
				require.NoError(t, conn.ReadJSON(&msg))
				var payload ws.LeaderboardPayload
				if len(msg.Payload) > 0 {
					require.NoError(t, json.Unmarshal(msg.Payload, &payload))
				}
				return msg, payload
			}

			msg, payload := read()
			assert.Equal(t, ws.TypeLeaderboardSnapshot, msg.Type)
			assert.Empty(t, payload.Entries)

			require.Eventually(t, func() bool { return hub.Subscribers(Topic(f.quizID)) == 1 }, 2*time.Second, 10*time.Millisecond)

			r := f.submit(t, "alice", 4, 40)
			require.NoError(t, svc.ResultRecorded(context.Background(), r))

			msg, payload = read()
			assert.Equal(t, ws.TypeLeaderboardUpdate, msg.Type)
			require.Len(t, payload.Entries, 1)
			assert.Equal(t, "alice", payload.Entries[0].FullName)

			require.NoError(t, conn.WriteJSON(ws.Message{Type: ws.TypePing, RequestID: "r1"}))
			msg, _ = read()
			assert.Equal(t, ws.TypePong, msg.Type)
			assert.Equal(t, "r1", msg.RequestID)
		})
	}
}
