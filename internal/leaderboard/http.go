package leaderboard

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/classquiz/internal/auth"
	"github.com/gokatarajesh/classquiz/internal/domain"
	httperrors "github.com/gokatarajesh/classquiz/pkg/http/errors"
	ws "github.com/gokatarajesh/classquiz/pkg/http/ws"
)

// HTTPHandler exposes REST and WebSocket endpoints for leaderboards.
type HTTPHandler struct {
	svc      *Service
	hub      *ws.Hub
	tokens   auth.TokenValidator
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler. checkOrigin may be nil to accept any origin.
func NewHTTPHandler(svc *Service, hub *ws.Hub, tokens auth.TokenValidator, checkOrigin func(*http.Request) bool, logger zerolog.Logger) *HTTPHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &HTTPHandler{
		svc:    svc,
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the ranking for a quiz.
// Route: GET /v1/results/leaderboard/{quizId}
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	quizID, err := uuid.Parse(r.PathValue("quizId"))
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Quiz not found")
		return
	}

	entries, err := h.svc.Leaderboard(r.Context(), quizID, id)
	if err != nil {
		if domain.KindOf(err) == "" {
			h.logger.Error().Err(err).Str("quiz_id", quizID.String()).Msg("leaderboard fetch failed")
		}
		httperrors.RespondDomainError(w, err)
		return
	}

	writeJSON(w, entries)
}

// HandleStream upgrades to a WebSocket that receives the ranking now and on every submission.
// Route: GET /ws/leaderboards/{quizId}?token=<access token>
func (h *HTTPHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		token := r.URL.Query().Get("token")
		if token == "" {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
			return
		}
		var err error
		if id, err = h.tokens.ValidateToken(token); err != nil {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid or expired token")
			return
		}
	}
	if !id.HasRole(domain.RoleTeacher) {
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "You do not have permission to access this resource")
		return
	}

	quizID, err := uuid.Parse(r.PathValue("quizId"))
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Quiz not found")
		return
	}
	entries, err := h.svc.Leaderboard(r.Context(), quizID, id)
	if err != nil {
		httperrors.RespondDomainError(w, err)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := ws.NewConnection(raw, h.logger.With().Str("quiz_id", quizID.String()).Logger())
	topic := Topic(quizID)
	connID := h.hub.Subscribe(topic, conn)
	defer h.hub.Unsubscribe(topic, connID)

	go conn.WritePump()

	if snapshot, err := leaderboardMessage(ws.TypeLeaderboardSnapshot, quizID, entries); err == nil {
		_ = conn.Send(snapshot)
	}

	conn.ReadPump(func(msg ws.Message) error {
		if msg.Type == ws.TypePing {
			return conn.Send(ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
		}
		errMsg, _ := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: "unsupported_message", Message: "only ping is accepted"})
		return conn.Send(errMsg)
	})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
