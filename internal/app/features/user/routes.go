// internal/app/features/user/routes.go
package user

import (
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts /user. Profiles are public; everything else needs a
// signed-in owner (or an admin, for edit).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{username}", h.ServeProfile)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/{username}/edit", h.ServeEdit)
		pr.Post("/{username}/edit", h.HandleEdit)
		pr.Get("/{username}/request-role", h.ServeRequestRole)
		pr.Post("/{username}/request-role", h.HandleRequestRole)
		pr.Get("/{username}/password", h.ServePassword)
		pr.Post("/{username}/password", h.HandleChangePassword)
	})
	return r
}
