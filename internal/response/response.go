package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeBadCredential = "BAD_CREDENTIALS"
	CodeInternalError = "INTERNAL_ERROR"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a structured error body.
func WriteError(w http.ResponseWriter, status int, message, code string) {
	JSON(w, status, ErrorResponse{Error: message, Code: code})
}

// Error maps a service error onto its HTTP status. Errors outside the
// apperr taxonomy are logged and reported as 500 without detail.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, err error) {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		JSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Code: CodeInvalidInput, Fields: ve.Fields})
	case errors.Is(err, apperr.ErrConflict):
		WriteError(w, http.StatusForbidden, apperr.ErrConflict.Error(), CodeConflict)
	case errors.Is(err, apperr.ErrAuthentication):
		WriteError(w, http.StatusBadRequest, apperr.ErrAuthentication.Error(), CodeBadCredential)
	case errors.Is(err, apperr.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not found", CodeNotFound)
	case errors.Is(err, apperr.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", CodeForbidden)
	case errors.Is(err, apperr.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", CodeUnauthorized)
	default:
		logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		WriteError(w, http.StatusInternalServerError, "internal error", CodeInternalError)
	}
}
