// internal/app/features/logout/routes.go
package logout

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts logout. GET is kept for plain links; POST is what the nav
// form submits so the CSRF check applies.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogout)
	r.Post("/", h.ServeLogout)
	return r
}
