package web

// errors.go provides unified error response handling for the web layer.
//
// Errors are logged with full technical detail and the request ID, then
// shown to the client as the core.MapError message: JSON for API callers,
// a page for browsers, or a session notice inside the upload flow.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/hitpa/claimupload/internal/claimxml"
	"github.com/hitpa/claimupload/internal/core"
	"github.com/hitpa/claimupload/internal/logging"
	"github.com/hitpa/claimupload/internal/session"
	"github.com/hitpa/claimupload/internal/soap"
	"github.com/hitpa/claimupload/internal/spreadsheet"
	"github.com/hitpa/claimupload/internal/web/pages"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped user message in the format
// the client expects.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	logError(r, err, userMsg, statusCode)

	if wantsJSON(r) {
		writeJSON(w, statusCode, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	pages.ErrorPage(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
}

// notifyError logs err and queues its user message on the session.
func notifyError(r *http.Request, sess *session.Session, err error) {
	userMsg := core.MapError(err)
	logError(r, err, userMsg, statusFor(err))
	sess.Notify(session.LevelError, userMsg.Message+" ("+userMsg.Code+")", userMsg.Action)
}

func logError(r *http.Request, err error, msg core.UserMessage, statusCode int) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)
}

// statusFor picks the HTTP status for an error returned by the core.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, soap.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSubmissionBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrConversion),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, spreadsheet.ErrUnreadable),
		errors.Is(err, spreadsheet.ErrNoHeader),
		errors.Is(err, claimxml.ErrTagCollision),
		errors.Is(err, claimxml.ErrNotClaimDocument),
		errors.Is(err, soap.ErrResultTagNotFound),
		errors.Is(err, soap.ErrInnerPayload):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
