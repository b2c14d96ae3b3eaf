package web

// errors.go turns handler errors into responses.
//
// Every error is logged with its technical detail and the request id, then
// mapped through core.MapError so clients only ever see the user message,
// the suggested action and a support code. API routes get JSON; the popup
// and page routes get an HTML alert fragment.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/restroom-map/internal/core"
	"github.com/JonMunkholm/restroom-map/internal/logging"
	"github.com/JonMunkholm/restroom-map/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func newErrorResponse(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// statusFor picks the HTTP status for an error from the core package.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidSubmission):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrPlaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManySubmissions),
		errors.Is(err, core.ErrSubmitDisabled),
		errors.Is(err, core.ErrNoSnapshot):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrSubmissionFailed),
		errors.Is(err, core.ErrSourceUnavailable),
		errors.Is(err, core.ErrMalformedSource),
		errors.Is(err, core.ErrSourceTooLarge):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// logError records the technical error. 5xx and unmapped errors log at
// error level, the rest at warn.
func logError(r *http.Request, err error, status int, code string) {
	level := slog.LevelWarn
	if status >= 500 || !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", code,
	)
}

// respondError logs err and writes a user-friendly response in the format
// the client expects. A zero status is derived from the error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	userMsg := core.MapError(err)
	logError(r, err, status, userMsg.Code)

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, status)
		return
	}
	renderErrorPartial(w, r, userMsg, status)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(newErrorResponse(msg))
}

// renderErrorPartial renders the error as an HTML fragment for popups and pages.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error alert", "error", err)
	}
}

// wantsJSON reports whether the client expects a JSON body. Fragment routes
// (popup) and the page answer in HTML unless JSON is asked for explicitly.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	if strings.HasSuffix(r.URL.Path, "/popup") {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
