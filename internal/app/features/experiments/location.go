// internal/app/features/experiments/location.go
package experiments

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/volcani/experimenthub/internal/app/system/formutil"
	"github.com/volcani/experimenthub/internal/app/system/limits"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/domain/geo"
)

type pickerData struct {
	Center geo.Point  `json:"center"`
	Zoom   int        `json:"zoom"`
	Marker *geo.Point `json:"marker,omitempty"`
	Live   string     `json:"live"`
}

func pickerView(p *geo.Picker) pickerData {
	d := pickerData{Center: p.Center, Zoom: p.Zoom, Live: p.Live()}
	if p.Placed() {
		m := p.Marker
		d.Marker = &m
	}
	return d
}

// OpenLocation handles GET /experiments/{id}/location?current=: where the
// map dialog opens.
func (h *Handler) OpenLocation(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := h.target(w, r); !ok {
		return
	}
	notify.WriteJSON(w, http.StatusOK, notify.Response{Data: pickerView(geo.Open(query.Get(r, "current")))})
}

type confirmRequest struct {
	Current string     `json:"current"`
	Marker  *geo.Point `json:"marker"`
}

type confirmData struct {
	Value          string `json:"value"`
	Changed        bool   `json:"changed"`
	HasCoordinates bool   `json:"hasCoordinates"`
}

// ConfirmLocation handles POST /experiments/{id}/location. It formats the
// picked marker for the coordinate field; with no marker it is a no-op
// with a warning.
func (h *Handler) ConfirmLocation(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := h.target(w, r); !ok {
		return
	}
	var in confirmRequest
	if err := formutil.DecodeJSON(w, r, limits.MaxSmallBody, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode location confirm", err, notify.MsgBadRequest, "")
		return
	}

	p := geo.Open(in.Current)
	if in.Marker != nil {
		p.Move(*in.Marker)
	}
	value, changed, err := p.Confirm(in.Current)
	if err != nil {
		notify.Write(w, http.StatusUnprocessableEntity, notify.Warn(notify.MsgLocationInvalid))
		return
	}
	notify.WriteJSON(w, http.StatusOK, notify.Response{
		Notice: notify.New(notify.Success, notify.MsgLocationSaved).Ptr(),
		Data:   confirmData{Value: value, Changed: changed, HasCoordinates: true},
	})
}

type mapsData struct {
	URL string `json:"url"`
}

// MapsLink handles GET /experiments/{id}/location/maps?coords=.
func (h *Handler) MapsLink(w http.ResponseWriter, r *http.Request) {
	if _, _, _, ok := h.target(w, r); !ok {
		return
	}
	link, err := geo.MapsURL(query.Get(r, "coords"))
	if err != nil {
		notify.Write(w, http.StatusUnprocessableEntity, notify.Warn(notify.MsgLocationInvalid))
		return
	}
	notify.WriteJSON(w, http.StatusOK, notify.Response{
		Notice: notify.New(notify.Info, notify.MsgLocationOpenedMap).WithDuration(notify.ShortDuration).Ptr(),
		Data:   mapsData{URL: link},
	})
}
