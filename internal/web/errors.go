package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//   - Mapped to an HTTP status that reflects the failure class
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. statusFor picks the HTTP status from the error class
//  4. Error is mapped via core.MapError to get the user-friendly message
//  5. Technical error + context is logged with request ID for correlation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ChartFeed/internal/core"
	"github.com/JonMunkholm/ChartFeed/internal/docstore"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns a JSON body whose
// status comes from the error class.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	// Get request ID for correlation
	requestID := middleware.GetReqID(r.Context())

	// Log the technical error with context
	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", requestID,
	)

	respondErrorJSON(w, userMsg, statusCode)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor maps an error to its HTTP status code.
//
// Document store failures carry their taxonomy in the error: a missing file
// is the client's 404, a denied one 403, and gateway trouble surfaces as
// 502 because this service is acting as a proxy for the store.
func statusFor(err error) int {
	if kind, ok := docstore.KindOf(err); ok {
		switch kind {
		case docstore.KindNotFound:
			return http.StatusNotFound
		case docstore.KindForbidden:
			return http.StatusForbidden
		default:
			return http.StatusBadGateway
		}
	}

	switch {
	case errors.Is(err, core.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrSeriesNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrStoreDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrTooManyRefreshes):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case strings.Contains(err.Error(), "chart not found"):
		return http.StatusNotFound
	case strings.Contains(err.Error(), "malformed content"):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
