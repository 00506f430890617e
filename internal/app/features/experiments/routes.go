// internal/app/features/experiments/routes.go
package experiments

import (
	"github.com/go-chi/chi/v5"
	"github.com/volcani/experimenthub/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeEditor)
		r.Put("/", h.HandleSave)
		r.Post("/treatments", h.PreviewTreatments)
		r.Post("/view", h.PreviewView)
		r.Get("/partners", h.SearchPartners)
		r.Post("/partners", h.AddPartner)
		r.Get("/location", h.OpenLocation)
		r.Post("/location", h.ConfirmLocation)
		r.Get("/location/maps", h.MapsLink)
	})
	return r
}
