package quiz

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/classquiz/internal/auth"
	"github.com/gokatarajesh/classquiz/internal/domain"
	httperrors "github.com/gokatarajesh/classquiz/pkg/http/errors"
)

// HTTPHandlers exposes the catalog over REST.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "quiz_http").Logger(),
	}
}

// Create handles POST /v1/quizzes
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondDecodeError(w, err)
		return
	}

	created, err := h.svc.CreateQuiz(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, err, "create quiz failed")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Quiz created successfully",
		"quiz":    created,
	})
}

// GetByCode handles GET /v1/quizzes/code/{code}
func (h *HTTPHandlers) GetByCode(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.GetByAccessCode(r.Context(), r.PathValue("code"))
	if err != nil {
		h.respondServiceError(w, err, "get quiz by code failed")
		return
	}
	h.respondJSON(w, http.StatusOK, StudentView(q))
}

// ListMine handles GET /v1/quizzes/teacher
func (h *HTTPHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	quizzes, err := h.svc.ListByOwner(r.Context(), id.UserID)
	if err != nil {
		h.respondServiceError(w, err, "list quizzes failed")
		return
	}
	h.respondJSON(w, http.StatusOK, quizzes)
}

// Delete handles DELETE /v1/quizzes/{id}
func (h *HTTPHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	quizID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Quiz not found")
		return
	}

	if err := h.svc.DeleteQuiz(r.Context(), quizID, id.UserID); err != nil {
		h.respondServiceError(w, err, "delete quiz failed")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Quiz deleted successfully"})
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
