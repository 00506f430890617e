// internal/app/features/experiments/editor.go
package experiments

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	experimentstore "github.com/volcani/experimenthub/internal/app/store/experiments"
	"github.com/volcani/experimenthub/internal/app/system/formutil"
	"github.com/volcani/experimenthub/internal/app/system/limits"
	"github.com/volcani/experimenthub/internal/app/system/metrics"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/app/system/timeouts"
	"github.com/volcani/experimenthub/internal/domain/editor"
	"github.com/volcani/experimenthub/internal/domain/geo"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.uber.org/zap"
)

type editorData struct {
	ID             string             `json:"id"`
	Form           *editor.Form       `json:"form"`
	Tabs           []editor.Tab       `json:"tabs"`
	Screen         editor.Screen      `json:"screen"`
	YearOptions    []int              `json:"yearOptions"`
	HasCoordinates bool               `json:"hasCoordinates"`
	Experiment     *models.Experiment `json:"experiment,omitempty"`
}

// ServeEditor handles GET /experiments/{id}?section=.
func (h *Handler) ServeEditor(w http.ResponseWriter, r *http.Request) {
	u, owner, id, ok := h.target(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load experiment")
	defer cancel()

	e, err := h.Experiments.Get(ctx, owner, id)
	if errors.Is(err, experimentstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, notify.MsgExperimentNotFound, "/dashboard")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load experiment failed", err, notify.MsgExperimentLoadFail, "")
		return
	}

	form := editor.Populate(*e, profileOf(u))
	view := editor.ViewState{ExperimentName: e.ExperimentName}
	screen := view.Switch(editor.View(query.Get(r, "section")))

	notify.WriteJSON(w, http.StatusOK, notify.Response{Data: editorData{
		ID:             id.Hex(),
		Form:           form,
		Tabs:           form.Tabs(),
		Screen:         screen,
		YearOptions:    editor.YearOptions(h.now()),
		HasCoordinates: geo.HasCoordinates(form.SiteCoordinates),
	}})
}

// HandleSave handles PUT /experiments/{id}. The client sends the whole
// form; every editor field is overwritten. A form built from an older
// revision is refused instead of overwriting a newer save.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	u, owner, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var form editor.Form
	if err := formutil.DecodeJSON(w, r, limits.MaxExperimentBody, &form); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode experiment form", err, notify.MsgBadRequest, "")
		return
	}
	if tooManyTreatments(w, int(form.TreatmentsCount)) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "save experiment")
	defer cancel()

	saved, err := h.Experiments.Update(ctx, owner, id, form.Revision, form.ExperimentName, form.Collect())
	switch {
	case errors.Is(err, experimentstore.ErrNotFound):
		h.Metrics.ExperimentSaves.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.ErrLog.NotFound(w, r, notify.MsgExperimentNotFound, "/dashboard")
		return
	case errors.Is(err, experimentstore.ErrStaleRevision):
		h.Metrics.ExperimentSaves.WithLabelValues(metrics.OutcomeStale).Inc()
		h.Log.Info("stale experiment save",
			zap.String("user_id", u.ID),
			zap.String("experiment_id", id.Hex()),
			zap.Int64("revision", form.Revision))
		notify.Write(w, http.StatusConflict, notify.Warn(notify.MsgExperimentStale).WithDuration(notify.LongDuration))
		return
	case err != nil:
		h.Metrics.ExperimentSaves.WithLabelValues(metrics.OutcomeFailure).Inc()
		h.ErrLog.LogServerError(w, r, "save experiment failed", err, notify.MsgExperimentSaveFail, "")
		return
	}
	h.Metrics.ExperimentSaves.WithLabelValues(metrics.OutcomeSuccess).Inc()

	next := editor.Populate(*saved, profileOf(u))
	next.SelectTab(form.ActiveTab)

	notify.WriteJSON(w, http.StatusOK, notify.Response{
		Notice: notify.New(notify.Success, notify.MsgExperimentSaved).Ptr(),
		Data: editorData{
			ID:             id.Hex(),
			Form:           next,
			Tabs:           next.Tabs(),
			Screen:         (&editor.ViewState{ExperimentName: saved.ExperimentName}).Screen(),
			YearOptions:    editor.YearOptions(h.now()),
			HasCoordinates: geo.HasCoordinates(next.SiteCoordinates),
			Experiment:     saved,
		},
	})
}

// tooManyTreatments answers 422 when n exceeds limits.MaxTreatments.
func tooManyTreatments(w http.ResponseWriter, n int) bool {
	if n <= limits.MaxTreatments {
		return false
	}
	notify.Write(w, http.StatusUnprocessableEntity,
		notify.Warn(fmt.Sprintf(notify.MsgTreatmentsTooMany, limits.MaxTreatments)))
	return true
}

type treatmentsRequest struct {
	Count      editor.Count       `json:"treatmentsCount"`
	Treatments []models.Treatment `json:"treatments"`
	ActiveTab  int                `json:"activeTab"`
}

type treatmentsData struct {
	TreatmentsCount int                `json:"treatmentsCount"`
	Treatments      []models.Treatment `json:"treatments"`
	Tabs            []editor.Tab       `json:"tabs"`
	ActiveTab       int                `json:"activeTab"`
}

// PreviewTreatments handles POST /experiments/{id}/treatments: the count
// control changed and the strip is regenerated. Nothing is stored.
func (h *Handler) PreviewTreatments(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := h.target(w, r); !ok {
		return
	}
	var in treatmentsRequest
	if err := formutil.DecodeJSON(w, r, limits.MaxSmallBody, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode treatments preview", err, notify.MsgBadRequest, "")
		return
	}
	if tooManyTreatments(w, int(in.Count)) {
		return
	}

	f := editor.Form{Treatments: in.Treatments, ActiveTab: in.ActiveTab}
	f.SetTreatmentsCount(int(in.Count))

	notify.WriteJSON(w, http.StatusOK, notify.Response{Data: treatmentsData{
		TreatmentsCount: int(f.TreatmentsCount),
		Treatments:      f.Treatments,
		Tabs:            f.Tabs(),
		ActiveTab:       f.ActiveTab,
	}})
}

type viewRequest struct {
	View           string `json:"view"`
	ExperimentName string `json:"experimentName"`
}

// PreviewView handles POST /experiments/{id}/view. Switching sections
// never reloads the record.
func (h *Handler) PreviewView(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := h.target(w, r); !ok {
		return
	}
	var in viewRequest
	if err := formutil.DecodeJSON(w, r, limits.MaxSmallBody, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode view switch", err, notify.MsgBadRequest, "")
		return
	}
	state := editor.ViewState{ExperimentName: in.ExperimentName}
	notify.WriteJSON(w, http.StatusOK, notify.Response{Data: state.Switch(editor.View(in.View))})
}
