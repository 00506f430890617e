// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/volcani/experimenthub/internal/app/features/errors"
	experimentstore "github.com/volcani/experimenthub/internal/app/store/experiments"
	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/formutil"
	"github.com/volcani/experimenthub/internal/app/system/htmlsanitize"
	"github.com/volcani/experimenthub/internal/app/system/limits"
	"github.com/volcani/experimenthub/internal/app/system/metrics"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/app/system/timeouts"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Experiments is what the list view needs from the experiment store.
type Experiments interface {
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]experimentstore.Summary, error)
	Create(ctx context.Context, e models.Experiment) (models.Experiment, error)
}

type Handler struct {
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
	Experiments Experiments
	Metrics     *metrics.Metrics

	// Location is the zone card dates are shown in.
	Location *time.Location

	now func() time.Time
}

func NewHandler(exps Experiments, m *metrics.Metrics, loc *time.Location, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Log:         logger,
		ErrLog:      errLog,
		Experiments: exps,
		Metrics:     m,
		Location:    loc,
		now:         time.Now,
	}
}

// Card is one experiment tile.
type Card struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
	Site string `json:"site,omitempty"`
	Href string `json:"href"`
}

type dashboardData struct {
	DisplayName string `json:"displayName"`
	Experiments []Card `json:"experiments"`
}

// FormatDate renders t as d.m.yyyy in loc, without zero padding.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2.1.2006")
}

func (h *Handler) card(s experimentstore.Summary) Card {
	name := s.ExperimentName
	if strings.TrimSpace(name) == "" {
		name = notify.MsgUnnamedExperiment
	}
	id := s.ID.Hex()
	return Card{
		ID:   id,
		Name: name,
		Date: FormatDate(s.CreatedAt, h.Location),
		Site: s.ExperimentSite,
		Href: "/experiments/" + id,
	}
}

func currentOwner(r *http.Request) (*auth.SessionUser, primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil, primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil, primitive.NilObjectID, false
	}
	return u, oid, true
}

// ServeDashboard handles GET /dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, owner, ok := currentOwner(r)
	if !ok {
		notify.WriteJSON(w, http.StatusUnauthorized, notify.Response{Redirect: "/login"})
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list experiments")
	defer cancel()

	list, err := h.Experiments.ListByOwner(ctx, owner)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list experiments failed", err, notify.MsgExperimentLoadFail, "")
		return
	}

	cards := make([]Card, 0, len(list))
	for _, s := range list {
		cards = append(cards, h.card(s))
	}
	notify.WriteJSON(w, http.StatusOK, notify.Response{Data: dashboardData{
		DisplayName: u.DisplayName(),
		Experiments: cards,
	}})
}

type createRequest struct {
	Name string `json:"name"`
}

type createdData struct {
	ID string `json:"id"`
}

// HandleCreate handles POST /dashboard/experiments. A blank name writes
// nothing; the client keeps the dialog open and refocuses the field.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, owner, ok := currentOwner(r)
	if !ok {
		notify.WriteJSON(w, http.StatusUnauthorized, notify.Response{Redirect: "/login"})
		return
	}

	var in createRequest
	if err := formutil.DecodeJSON(w, r, limits.MaxSmallBody, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode create body", err, notify.MsgBadRequest, "")
		return
	}
	name := htmlsanitize.Line(in.Name)
	if name == "" {
		notify.Write(w, http.StatusUnprocessableEntity, notify.Warn(notify.MsgCreateNameNeeded))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create experiment")
	defer cancel()

	e, err := h.Experiments.Create(ctx, models.NewExperiment(owner, name, u.FullName(), h.now().In(h.Location)))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create experiment failed", err, notify.MsgCreateFailed, "")
		return
	}
	h.Metrics.ExperimentsCreated.Inc()
	h.Log.Info("experiment created",
		zap.String("user_id", u.ID),
		zap.String("experiment_id", e.ID.Hex()))

	notify.WriteJSON(w, http.StatusCreated, notify.Response{
		Redirect: "/experiments/" + e.ID.Hex(),
		Data:     createdData{ID: e.ID.Hex()},
	})
}
