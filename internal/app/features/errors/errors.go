// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"go.uber.org/zap"
)

// ErrorLogger logs a failure with request context and answers with a JSON
// notice. userMsg is what the toast shows; redirect, when non-empty, is
// where the client should go next.
type ErrorLogger struct {
	log *zap.Logger
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fs := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fs = append(fs, zap.String("user_id", u.ID))
	}
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	return fs
}

// LogServerError answers 500. The underlying error text is appended to
// userMsg so a user can quote it when reporting the problem.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, redirect string) {
	e.log.Error(logMsg, e.fields(r, err)...)
	notify.WriteJSON(w, http.StatusInternalServerError, notify.Response{
		Notice:   notify.FailWith(userMsg, err).Ptr(),
		Redirect: redirect,
	})
}

// LogBadRequest answers 400 with a warning.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, redirect string) {
	e.log.Warn(logMsg, e.fields(r, err)...)
	notify.WriteJSON(w, http.StatusBadRequest, notify.Response{
		Notice:   notify.Warn(userMsg).Ptr(),
		Redirect: redirect,
	})
}

// LogForbidden answers 403 with a long warning.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, redirect string) {
	e.log.Warn(logMsg, e.fields(r, err)...)
	notify.WriteJSON(w, http.StatusForbidden, notify.Response{
		Notice:   notify.Warn(userMsg).WithDuration(notify.LongDuration).Ptr(),
		Redirect: redirect,
	})
}

// NotFound answers 404. Nothing is logged above debug.
func (e *ErrorLogger) NotFound(w http.ResponseWriter, r *http.Request, userMsg, redirect string) {
	e.log.Debug("not found", e.fields(r, nil)...)
	notify.WriteJSON(w, http.StatusNotFound, notify.Response{
		Notice:   notify.Fail(userMsg).Ptr(),
		Redirect: redirect,
	})
}

// Handler serves the router-level fallbacks.
type Handler struct {
	ErrLog *ErrorLogger
}

func NewHandler(errLog *ErrorLogger) *Handler {
	return &Handler{ErrLog: errLog}
}

// Forbidden handles GET /forbidden, the target of role redirects.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	notify.WriteJSON(w, http.StatusForbidden, notify.Response{
		Notice:   notify.Warn(notify.MsgExperimentForbidden).WithDuration(notify.LongDuration).Ptr(),
		Redirect: "/dashboard",
	})
}

// NotFoundRoute is installed as the router's NotFound handler.
func (h *Handler) NotFoundRoute(w http.ResponseWriter, r *http.Request) {
	h.ErrLog.NotFound(w, r, notify.MsgNotFound, "/dashboard")
}
