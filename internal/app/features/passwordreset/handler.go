// internal/app/features/passwordreset/handler.go
package passwordreset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	uierrors "github.com/volcani/experimenthub/internal/app/features/errors"
	cooldownstore "github.com/volcani/experimenthub/internal/app/store/cooldowns"
	resettokenstore "github.com/volcani/experimenthub/internal/app/store/resettokens"
	userstore "github.com/volcani/experimenthub/internal/app/store/users"
	"github.com/volcani/experimenthub/internal/app/system/authutil"
	"github.com/volcani/experimenthub/internal/app/system/formutil"
	"github.com/volcani/experimenthub/internal/app/system/limits"
	"github.com/volcani/experimenthub/internal/app/system/mailer"
	"github.com/volcani/experimenthub/internal/app/system/metrics"
	"github.com/volcani/experimenthub/internal/app/system/normalize"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/app/system/ratelimit"
	"github.com/volcani/experimenthub/internal/app/system/timeouts"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SiteName appears in the reset e-mail.
const SiteName = `מיזם ח"ץ`

// Users is the slice of the user store the reset flow needs.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

type Cooldowns interface {
	Get(ctx context.Context, key string) (*models.Cooldown, error)
	Start(ctx context.Context, key, purpose string, d time.Duration) (models.Cooldown, error)
}

type Tokens interface {
	Issue(ctx context.Context, userID primitive.ObjectID, ttl time.Duration) (string, error)
	Consume(ctx context.Context, raw string) (primitive.ObjectID, error)
}

// Requests remembers which address a browser asked a reset for.
// *auth.SessionManager satisfies it.
type Requests interface {
	MarkResetRequested(w http.ResponseWriter, r *http.Request, email string) error
	ResetRequested(r *http.Request) string
}

// Sender delivers one message. *mailer.Mailer satisfies it.
type Sender interface {
	Send(e mailer.Email) error
}

type Handler struct {
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
	Users     Users
	Cooldowns Cooldowns
	Tokens    Tokens
	Mail      Sender
	Requests  Requests
	Limiter   *ratelimit.AuthLimiter
	Metrics   *metrics.Metrics

	BaseURL  string        // link target, e.g. "https://hub.example.org"
	Cooldown time.Duration // resend delay
	TokenTTL time.Duration

	now func() time.Time
}

func NewHandler(users Users, cooldowns Cooldowns, tokens Tokens, mail Sender, requests Requests, limiter *ratelimit.AuthLimiter,
	m *metrics.Metrics, baseURL string, cooldown, tokenTTL time.Duration,
	errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:       logger,
		ErrLog:    errLog,
		Users:     users,
		Cooldowns: cooldowns,
		Tokens:    tokens,
		Mail:      mail,
		Requests:  requests,
		Limiter:   limiter,
		Metrics:   m,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Cooldown:  cooldown,
		TokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

func cooldownKey(email string) string {
	return cooldownstore.Key(models.CooldownPasswordReset, email)
}

// cooldownData lets the client resume the resend countdown after a reload.
type cooldownData struct {
	Remaining int    `json:"remaining"`
	Display   string `json:"display,omitempty"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

// HandleForgot handles POST /forgot-password.
func (h *Handler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var in forgotRequest
	if err := formutil.DecodeJSON(w, r, limits.MaxAuthBody, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode forgot body", err, notify.MsgBadRequest, "")
		return
	}
	email := normalize.Email(in.Email)
	if email == "" {
		h.reject(w, http.StatusBadRequest, notify.Warn(notify.MsgResetMissingEmail), metrics.OutcomeRejected)
		return
	}
	if !authutil.IsValidEmail(email) {
		h.reject(w, http.StatusUnprocessableEntity, notify.Warn(notify.MsgResetBadEmail), metrics.OutcomeRejected)
		return
	}
	if h.Limiter != nil && !h.Limiter.Allow(r, email) {
		h.reject(w, http.StatusTooManyRequests,
			notify.Fail(notify.ResetMessage(notify.CodeTooManyRequests)), metrics.OutcomeLimited)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "password reset request")
	defer cancel()

	cd, err := h.Cooldowns.Get(ctx, cooldownKey(email))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "read reset cooldown", err, notify.MsgResetGeneric, "")
		return
	}
	if cd != nil {
		left := cd.Remaining(h.now())
		h.Metrics.PasswordResets.WithLabelValues(metrics.OutcomeLimited).Inc()
		notify.WriteJSON(w, http.StatusTooManyRequests, notify.Response{
			Notice: notify.Warn(fmt.Sprintf(notify.MsgResetWaitFormat, notify.FormatCountdown(left))).Ptr(),
			Data:   cooldownData{Remaining: left, Display: notify.FormatCountdown(left)},
		})
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.reject(w, http.StatusNotFound,
			notify.Fail(notify.MsgResetPrefix+notify.ResetMessage(notify.CodeUserNotFound)), metrics.OutcomeFailure)
		return
	}
	if err != nil {
		h.Metrics.PasswordResets.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.ErrLog.LogServerError(w, r, "reset lookup failed", err, notify.MsgResetGeneric, "")
		return
	}

	raw, err := h.Tokens.Issue(ctx, u.ID, h.TokenTTL)
	if err != nil {
		h.Metrics.PasswordResets.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.ErrLog.LogServerError(w, r, "issue reset token", err, notify.MsgResetGeneric, "")
		return
	}

	msg := mailer.BuildResetEmail(mailer.ResetEmailData{
		SiteName:  SiteName,
		Name:      u.FullName(),
		ResetLink: h.BaseURL + "/reset-password?token=" + url.QueryEscape(raw),
		ExpiresIn: formatExpiry(h.TokenTTL),
	})
	msg.To = u.Email
	if err := h.Mail.Send(msg); err != nil {
		h.Metrics.PasswordResets.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.ErrLog.LogServerError(w, r, "send reset email", err, notify.MsgResetGeneric, "")
		return
	}

	started, err := h.Cooldowns.Start(ctx, cooldownKey(email), models.CooldownPasswordReset, h.Cooldown)
	if err != nil {
		// The mail is already out; the user just loses the countdown.
		h.Log.Warn("start reset cooldown failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	if h.Requests != nil {
		if merr := h.Requests.MarkResetRequested(w, r, email); merr != nil {
			h.Log.Warn("remember reset request failed", zap.Error(merr))
		}
	}
	h.Metrics.PasswordResets.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.Log.Info("password reset sent", zap.String("user_id", u.ID.Hex()))

	left := int(h.Cooldown / time.Second)
	if err == nil {
		left = started.Remaining(h.now())
	}
	notify.WriteJSON(w, http.StatusOK, notify.Response{
		Notice: notify.Successf(notify.MsgResetSentFormat, u.Email).WithDuration(notify.LongDuration).Ptr(),
		Data:   cooldownData{Remaining: left, Display: notify.FormatCountdown(left)},
	})
}

// ServeCooldown handles GET /forgot-password/cooldown. The client calls it
// on load to restore a running countdown. Only the address this browser
// itself requested is looked up; an email query parameter is ignored.
func (h *Handler) ServeCooldown(w http.ResponseWriter, r *http.Request) {
	var email string
	if h.Requests != nil {
		email = normalize.Email(h.Requests.ResetRequested(r))
	}
	if email == "" {
		notify.WriteJSON(w, http.StatusOK, notify.Response{Data: cooldownData{}})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "read reset cooldown")
	defer cancel()

	cd, err := h.Cooldowns.Get(ctx, cooldownKey(email))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "read reset cooldown", err, notify.MsgResetGeneric, "")
		return
	}
	var data cooldownData
	if cd != nil {
		data.Remaining = cd.Remaining(h.now())
		data.Display = notify.FormatCountdown(data.Remaining)
	}
	notify.WriteJSON(w, http.StatusOK, notify.Response{Data: data})
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleReset handles POST /reset-password. The password is checked before
// the token is spent so a rejected password can be retried.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if err := formutil.DecodeJSON(w, r, limits.MaxAuthBody, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode reset body", err, notify.MsgBadRequest, "")
		return
	}
	if strings.TrimSpace(in.Token) == "" {
		notify.Write(w, http.StatusBadRequest, notify.Fail(notify.MsgResetBadToken))
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		notify.Write(w, http.StatusUnprocessableEntity, notify.Warn(notify.MsgRegisterShortPassword))
		return
	}
	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, notify.MsgResetGeneric, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "password reset")
	defer cancel()

	uid, err := h.Tokens.Consume(ctx, strings.TrimSpace(in.Token))
	if errors.Is(err, resettokenstore.ErrInvalidToken) {
		notify.Write(w, http.StatusBadRequest, notify.Fail(notify.MsgResetBadToken))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "consume reset token", err, notify.MsgResetGeneric, "")
		return
	}
	if err := h.Users.SetPassword(ctx, uid, hash); err != nil {
		h.ErrLog.LogServerError(w, r, "set password failed", err, notify.MsgResetGeneric, "")
		return
	}
	h.Log.Info("password reset completed", zap.String("user_id", uid.Hex()))

	notify.WriteJSON(w, http.StatusOK, notify.Response{
		Notice:   notify.New(notify.Success, notify.MsgResetDone).Ptr(),
		Redirect: "/login",
	})
}

func (h *Handler) reject(w http.ResponseWriter, status int, n notify.Notice, outcome string) {
	h.Metrics.PasswordResets.WithLabelValues(outcome).Inc()
	notify.Write(w, status, n)
}

// formatExpiry renders d for the e-mail body, e.g. "30 דקות" or "שעה".
func formatExpiry(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		if minutes == 1 {
			return "דקה"
		}
		return fmt.Sprintf("%d דקות", minutes)
	}
	hours := minutes / 60
	if hours == 1 {
		return "שעה"
	}
	return fmt.Sprintf("%d שעות", hours)
}
