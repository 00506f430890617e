// internal/app/features/passwordreset/routes.go
package passwordreset

import "github.com/go-chi/chi/v5"

// ForgotRoutes is mounted at /forgot-password.
func ForgotRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleForgot)
	r.Get("/cooldown", h.ServeCooldown)
	return r
}

// ResetRoutes is mounted at /reset-password.
func ResetRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleReset)
	return r
}
