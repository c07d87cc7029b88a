package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/gokatarajesh/classquiz/internal/domain"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondError writes a standardized error response to the HTTP response writer
func RespondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// RespondValidationError writes a validation error response with field information
func RespondValidationError(w http.ResponseWriter, code, message, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   code,
		Message: message,
		Field:   field,
	})
}

// RespondDecodeError reports a request body that failed to decode. A JSON value of the wrong
// type is a validation failure on that field; anything else is malformed JSON.
func RespondDecodeError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		field := typeErr.Field
		msg := "request body has the wrong shape"
		if field != "" {
			msg = field + " has the wrong type"
		}
		RespondValidationError(w, ErrCodeValidationFailed, msg, field)
		return
	}
	RespondBadRequest(w, ErrCodeInvalidRequest, "Invalid JSON payload")
}

// RespondDomainError maps a classified domain error to its status and code.
// Unclassified errors become a 500 without leaking their text.
func RespondDomainError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if !stderrors.As(err, &de) {
		RespondInternalError(w, "Internal server error")
		return
	}
	if de.Kind == domain.KindValidation {
		RespondValidationError(w, ErrCodeValidationFailed, de.Message, de.Field)
		return
	}
	status, code := StatusFor(de.Kind)
	RespondError(w, status, code, de.Message)
}

// StatusFor returns the HTTP status and wire code for an error kind.
func StatusFor(kind domain.Kind) (int, string) {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest, ErrCodeValidationFailed
	case domain.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case domain.KindForbidden:
		return http.StatusForbidden, ErrCodeForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case domain.KindConflict:
		return http.StatusConflict, ErrCodeConflict
	case domain.KindNotAvailable:
		return http.StatusForbidden, ErrCodeNotAvailable
	case domain.KindDurationExceeded:
		return http.StatusBadRequest, ErrCodeDurationExceeded
	case domain.KindScheduleIncomplete:
		return http.StatusInternalServerError, ErrCodeScheduleIncomplete
	case domain.KindCapacityExhausted:
		return http.StatusServiceUnavailable, ErrCodeCapacityExhausted
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// RespondInternalError writes an internal server error response
func RespondInternalError(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// RespondNotFound writes a not found error response
func RespondNotFound(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusNotFound, code, message)
}

// RespondUnauthorized writes an unauthorized error response
func RespondUnauthorized(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusUnauthorized, code, message)
}

// RespondForbidden writes a forbidden error response
func RespondForbidden(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusForbidden, code, message)
}

// RespondBadRequest writes a bad request error response
func RespondBadRequest(w http.ResponseWriter, code, message string) {
	RespondError(w, http.StatusBadRequest, code, message)
}
