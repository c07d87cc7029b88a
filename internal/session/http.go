package session

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/classquiz/internal/auth"
	"github.com/gokatarajesh/classquiz/internal/domain"
	httperrors "github.com/gokatarajesh/classquiz/pkg/http/errors"
)

// HTTPHandlers exposes sessions and results over REST.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "session_http").Logger(),
	}
}

// Start handles POST /v1/sessions/start
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondDecodeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httperrors.RespondDomainError(w, err)
		return
	}

	snap, err := h.svc.StartSession(r.Context(), req.AccessCode, id)
	if err != nil {
		h.respondServiceError(w, err, "start session failed")
		return
	}
	h.respondJSON(w, http.StatusOK, snap)
}

// Submit handles POST /v1/results/submit
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondDecodeError(w, err)
		return
	}

	result, err := h.svc.SubmitAnswers(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, err, "submit answers failed")
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

// MyResults handles GET /v1/results/student
func (h *HTTPHandlers) MyResults(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	results, err := h.svc.ResultsForStudent(r.Context(), id.UserID)
	if err != nil {
		h.respondServiceError(w, err, "list results failed")
		return
	}
	h.respondJSON(w, http.StatusOK, results)
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error, msg string) {
	if domain.KindOf(err) == "" {
		h.logger.Error().Err(err).Msg(msg)
	}
	httperrors.RespondDomainError(w, err)
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode response")
	}
}
