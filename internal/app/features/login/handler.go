// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/urlutil"
	uierrors "github.com/volcani/experimenthub/internal/app/features/errors"
	userstore "github.com/volcani/experimenthub/internal/app/store/users"
	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/authutil"
	"github.com/volcani/experimenthub/internal/app/system/formutil"
	"github.com/volcani/experimenthub/internal/app/system/limits"
	"github.com/volcani/experimenthub/internal/app/system/metrics"
	"github.com/volcani/experimenthub/internal/app/system/normalize"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/app/system/ratelimit"
	"github.com/volcani/experimenthub/internal/app/system/timeouts"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.uber.org/zap"
)

// UserLookup finds the account behind an e-mail. *userstore.Store
// satisfies it.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Sessions *auth.SessionManager
	Users    UserLookup
	Limiter  *ratelimit.AuthLimiter
	Metrics  *metrics.Metrics

	// AdminContact is appended to the "waiting for approval" notice.
	AdminContact string
}

func NewHandler(users UserLookup, sessions *auth.SessionManager, limiter *ratelimit.AuthLimiter, m *metrics.Metrics, adminContact string, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		ErrLog:       errLog,
		Sessions:     sessions,
		Users:        users,
		Limiter:      limiter,
		Metrics:      m,
		AdminContact: adminContact,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Return   string `json:"return"`
}

// HandleLoginPost checks the credential, then the approval flag. Only an
// approved account leaves with a session cookie.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := formutil.DecodeJSON(w, r, limits.MaxAuthBody, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode login body", err, notify.MsgBadRequest, "")
		return
	}
	email := normalize.Email(in.Email)
	if email == "" || in.Password == "" {
		h.reject(w, http.StatusBadRequest, notify.Warn(notify.MsgLoginMissingFields), metrics.OutcomeRejected)
		return
	}

	if h.Limiter != nil && !h.Limiter.Allow(r, email) {
		h.Log.Warn("login rate limited",
			zap.String("email", email),
			zap.String("ip", ratelimit.ClientIP(r)))
		h.reject(w, http.StatusTooManyRequests,
			notify.Fail(notify.LoginMessage(notify.CodeTooManyRequests)), metrics.OutcomeLimited)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login lookup")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.reject(w, http.StatusUnauthorized,
			notify.Fail(notify.LoginMessage(notify.CodeUserNotFound)), metrics.OutcomeFailure)
		return
	}
	if err != nil {
		h.Metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.ErrLog.LogServerError(w, r, "login lookup failed", err, notify.MsgLoginGeneric, "")
		return
	}

	// An account created outside the sign-up flow may have no credential.
	if u.PasswordHash == "" {
		h.Log.Warn("login for account without password", zap.String("user_id", u.ID.Hex()))
		h.reject(w, http.StatusUnauthorized, notify.Fail(notify.MsgLoginNoProfile), metrics.OutcomeFailure)
		return
	}
	if !authutil.CheckPassword(in.Password, u.PasswordHash) {
		h.reject(w, http.StatusUnauthorized,
			notify.Fail(notify.LoginMessage(notify.CodeWrongPassword)), metrics.OutcomeFailure)
		return
	}

	if !u.IsApproved {
		h.Log.Info("login by unapproved account", zap.String("user_id", u.ID.Hex()))
		// A stale cookie from an earlier approval must not survive either.
		if err := h.Sessions.SignOut(w, r); err != nil {
			h.Log.Warn("clear session failed", zap.Error(err))
		}
		h.reject(w, http.StatusForbidden, h.pendingNotice(), metrics.OutcomePending)
		return
	}

	if err := h.Sessions.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Metrics.Logins.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.ErrLog.LogServerError(w, r, "save session failed", err, notify.MsgLoginGeneric, "")
		return
	}
	if h.Limiter != nil {
		h.Limiter.Succeeded(email)
	}
	h.Metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()))

	notify.WriteJSON(w, http.StatusOK, notify.Response{
		Notice:   notify.New(notify.Success, notify.MsgLoginSuccess).Ptr(),
		Redirect: urlutil.SafeReturn(in.Return, "", "/dashboard"),
	})
}

func (h *Handler) pendingNotice() notify.Notice {
	msg := notify.MsgLoginPending
	if c := strings.TrimSpace(h.AdminContact); c != "" {
		msg += " " + c
	}
	return notify.Warn(msg).WithDuration(notify.LongDuration)
}

func (h *Handler) reject(w http.ResponseWriter, status int, n notify.Notice, outcome string) {
	h.Metrics.Logins.WithLabelValues(outcome).Inc()
	notify.Write(w, status, n)
}

type statusData struct {
	SignedIn bool   `json:"signedIn"`
	Name     string `json:"name,omitempty"`
}

// ServeStatus answers the sign-in screen's "already signed in?" probe.
// LoadSessionUser has already dropped sessions of unapproved accounts.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		notify.WriteJSON(w, http.StatusOK, notify.Response{Data: statusData{}})
		return
	}
	notify.WriteJSON(w, http.StatusOK, notify.Response{
		Redirect: "/dashboard",
		Data:     statusData{SignedIn: true, Name: u.DisplayName()},
	})
}
