// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/volcani/experimenthub/internal/app/features/errors"
	userstore "github.com/volcani/experimenthub/internal/app/store/users"
	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/authutil"
	"github.com/volcani/experimenthub/internal/app/system/formutil"
	"github.com/volcani/experimenthub/internal/app/system/limits"
	"github.com/volcani/experimenthub/internal/app/system/metrics"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/app/system/timeouts"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.uber.org/zap"
)

// UserCreator writes a new profile and its public projection together.
type UserCreator interface {
	CreateWithProfile(ctx context.Context, u models.User) (models.User, error)
}

type Handler struct {
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	Users      UserCreator
	SessionMgr *auth.SessionManager
	Metrics    *metrics.Metrics
}

func NewHandler(users UserCreator, sessionMgr *auth.SessionManager, m *metrics.Metrics, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		ErrLog:     errLog,
		Users:      users,
		SessionMgr: sessionMgr,
		Metrics:    m,
	}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// HandleRegister creates an unapproved account. The caller is never left
// signed in; an administrator must approve the account first.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := formutil.DecodeJSON(w, r, limits.MaxAuthBody, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode register body", err, notify.MsgBadRequest, "")
		return
	}

	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.Email) == "" ||
		in.Password == "" || strings.TrimSpace(in.Role) == "" {
		h.reject(w, http.StatusBadRequest, notify.MsgRegisterMissingFields)
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		msg := notify.MsgRegisterShortPassword
		if errors.Is(err, authutil.ErrPasswordTooLong) {
			msg = notify.RegisterMessage(notify.CodeWeakPassword)
		}
		h.reject(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if !authutil.IsValidEmail(strings.TrimSpace(in.Email)) {
		h.reject(w, http.StatusUnprocessableEntity, notify.RegisterMessage(notify.CodeInvalidEmail))
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.Metrics.Registrations.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.ErrLog.LogServerError(w, r, "hash password failed", err, notify.MsgRegisterGeneric, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register user")
	defer cancel()

	u, err := h.Users.CreateWithProfile(ctx, models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         in.Role,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		h.Metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
		notify.Write(w, http.StatusConflict, notify.Fail(notify.RegisterMessage(notify.CodeEmailInUse)))
		return
	}
	if err != nil {
		h.Metrics.Registrations.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.ErrLog.LogServerError(w, r, "create user failed", err, notify.MsgRegisterGeneric, "")
		return
	}

	if h.SessionMgr != nil {
		if err := h.SessionMgr.SignOut(w, r); err != nil {
			h.Log.Warn("clear session after register failed", zap.Error(err))
		}
	}
	h.Metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))

	notify.WriteJSON(w, http.StatusCreated, notify.Response{
		Notice:   notify.New(notify.Success, notify.MsgRegisterSuccess).WithDuration(notify.LongDuration).Ptr(),
		Redirect: "/login",
	})
}

func (h *Handler) reject(w http.ResponseWriter, status int, msg string) {
	h.Metrics.Registrations.WithLabelValues(metrics.OutcomeRejected).Inc()
	notify.Write(w, status, notify.Warn(msg))
}
