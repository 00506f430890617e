// internal/app/features/experiments/handler.go
package experiments

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	uierrors "github.com/volcani/experimenthub/internal/app/features/errors"
	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/metrics"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/domain/editor"
	"github.com/volcani/experimenthub/internal/domain/models"
	"github.com/volcani/experimenthub/internal/domain/partners"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the experiment persistence the editor needs.
type Store interface {
	Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Experiment, error)
	Update(ctx context.Context, owner, id primitive.ObjectID, revision int64, name string, f models.ExperimentFields) (*models.Experiment, error)
}

// Profiles lists the public directory for partner lookup.
type Profiles interface {
	ListAll(ctx context.Context) ([]models.PublicProfile, error)
}

const partnerCacheSize = 512

type Handler struct {
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
	Experiments Store
	Profiles    Profiles
	Metrics     *metrics.Metrics

	// directories caches one partner directory per viewer for the
	// lifetime of an editor session.
	directories *expirable.LRU[string, *partners.Directory]
	loads       *editor.Generations

	now func() time.Time
}

func NewHandler(store Store, profiles Profiles, m *metrics.Metrics, partnerTTL time.Duration, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if partnerTTL <= 0 {
		partnerTTL = 2 * time.Minute
	}
	return &Handler{
		Log:         logger,
		ErrLog:      errLog,
		Experiments: store,
		Profiles:    profiles,
		Metrics:     m,
		directories: expirable.NewLRU[string, *partners.Directory](partnerCacheSize, nil, partnerTTL),
		loads:       &editor.Generations{},
		now:         time.Now,
	}
}

// target resolves the signed-in owner and the {id} URL parameter. On
// failure the response has been written.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (*auth.SessionUser, primitive.ObjectID, primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		notify.WriteJSON(w, http.StatusUnauthorized, notify.Response{Redirect: "/login"})
		return nil, primitive.NilObjectID, primitive.NilObjectID, false
	}
	owner, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad session user id", err, notify.MsgBadRequest, "/login")
		return nil, primitive.NilObjectID, primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, notify.MsgExperimentNotFound, "/dashboard")
		return nil, primitive.NilObjectID, primitive.NilObjectID, false
	}
	return u, owner, id, true
}

// profileOf is the slice of the session profile Populate reads.
func profileOf(u *auth.SessionUser) models.User {
	return models.User{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Role: u.Role}
}
