package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-theatre/pkg/theatre"
)

// Error codes produced by the HTTP layer itself.
const (
	CodeUnauthorized = "unauthorized"
	CodeRateLimited  = "rate_limited"
	CodeBadRequest   = theatre.CodeInvalidInput
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps ErrorBody under the "error" key.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

var statusByCode = map[string]int{
	theatre.CodeNotFound:          http.StatusNotFound,
	theatre.CodeInvalidInput:      http.StatusBadRequest,
	theatre.CodeInvalidSource:     http.StatusBadRequest,
	theatre.CodeForbidden:         http.StatusForbidden,
	theatre.CodeCreationFailed:    http.StatusInternalServerError,
	theatre.CodePartialConversion: http.StatusMultiStatus,
	CodeUnauthorized:              http.StatusUnauthorized,
	CodeRateLimited:               http.StatusTooManyRequests,
	theatre.CodeInternal:          http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for an error code.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func errorBody(r *http.Request, code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: RequestIDFromContext(r.Context()),
	}}
}

// writeError renders err in the JSON error envelope. Internal errors are
// logged and their message is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := theatre.ErrorCode(err)
	message := err.Error()
	if code == theatre.CodeInternal {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		message = "An internal server error occurred"
	}
	writeErrorCode(w, r, StatusFor(code), code, message)
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorBody(r, code, message))
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeErrorCode(w, r, http.StatusBadRequest, CodeBadRequest, message)
}

// errBadID marks malformed identifiers in the URL or body.
var errBadID = errors.New("malformed id")
