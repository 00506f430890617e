// internal/app/features/experiments/partners.go
package experiments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/formutil"
	"github.com/volcani/experimenthub/internal/app/system/limits"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/app/system/timeouts"
	"github.com/volcani/experimenthub/internal/domain/editor"
	"github.com/volcani/experimenthub/internal/domain/models"
	"github.com/volcani/experimenthub/internal/domain/partners"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// mongoUnauthorized is the server's code for a command the user may not run.
const mongoUnauthorized = 13

// classifyLoad marks an authorization refusal so it surfaces as the
// detailed permissions notice.
func classifyLoad(err error) error {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == mongoUnauthorized {
		return fmt.Errorf("%w: %v", partners.ErrPermission, err)
	}
	return err
}

// directory returns the cached directory for u, loading it on a miss. A
// load that was overtaken by a newer one is served but not cached.
func (h *Handler) directory(ctx context.Context, u *auth.SessionUser) (*partners.Directory, error) {
	if d, ok := h.directories.Get(u.ID); ok {
		return d, nil
	}

	tok := h.loads.Begin(u.ID)
	defer h.loads.End(tok)
	profiles, err := h.Profiles.ListAll(ctx)
	if err != nil {
		h.directories.Remove(u.ID)
		return nil, classifyLoad(err)
	}
	d := partners.NewDirectory(u.ID, profiles)
	if h.loads.Current(tok) {
		h.directories.Add(u.ID, d)
	}
	return d, nil
}

func (h *Handler) writeLoadFailure(w http.ResponseWriter, u *auth.SessionUser, err error) {
	h.Log.Warn("partner directory load failed", zap.String("user_id", u.ID), zap.Error(err))
	status := http.StatusInternalServerError
	if errors.Is(err, partners.ErrPermission) {
		status = http.StatusForbidden
	}
	notify.Write(w, status, partners.LoadFailure(err))
}

// SearchPartners handles GET /experiments/{id}/partners?q=.
func (h *Handler) SearchPartners(w http.ResponseWriter, r *http.Request) {
	u, _, _, ok := h.target(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "load partner directory")
	defer cancel()

	dir, err := h.directory(ctx, u)
	if err != nil {
		h.writeLoadFailure(w, u, err)
		return
	}
	notify.WriteJSON(w, http.StatusOK, notify.Response{Data: dir.Search(query.Get(r, "q"))})
}

type addPartnerRequest struct {
	UID      string           `json:"uid"`
	Text     string           `json:"text"`
	Partners []models.Partner `json:"partners"`
}

type addPartnerData struct {
	Added    bool             `json:"added"`
	Partners []models.Partner `json:"partners"`
	Text     string           `json:"text"`
}

// AddPartner handles POST /experiments/{id}/partners. It applies a pick
// from the suggestion list to the partner rows the client holds and
// returns the new rows; the record itself changes on the next save.
func (h *Handler) AddPartner(w http.ResponseWriter, r *http.Request) {
	u, _, _, ok := h.target(w, r)
	if !ok {
		return
	}
	var in addPartnerRequest
	if err := formutil.DecodeJSON(w, r, limits.MaxSmallBody, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode partner add", err, notify.MsgBadRequest, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "load partner directory")
	defer cancel()

	dir, err := h.directory(ctx, u)
	if err != nil {
		h.writeLoadFailure(w, u, err)
		return
	}

	picker := partners.NewPicker(dir)
	picker.Type(in.Text)
	if in.UID != "" {
		picker.Select(in.UID)
	}
	form := &editor.Form{Partners: append([]models.Partner{}, in.Partners...)}
	added, n := picker.Add(form)

	resp := notify.Response{Data: addPartnerData{Added: added, Partners: form.Partners, Text: picker.Text}}
	if n.Message != "" {
		resp.Notice = n.Ptr()
	}
	status := http.StatusOK
	if !added && n.Level == notify.Warning {
		status = http.StatusUnprocessableEntity
	}
	notify.WriteJSON(w, status, resp)
}
