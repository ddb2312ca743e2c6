// internal/app/features/club/routes.go
package club

import (
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the club pages. Viewing is public. Editing and the gallery
// are open to admins and the club's moderators; moderator changes are
// admin-only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireClubManager("id"))
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/gallery", h.HandleGalleryAdd)
		pr.Post("/{id}/gallery/{index}/delete", h.HandleGalleryRemove)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Post("/{id}/moderators", h.HandleModeratorAdd)
		pr.Post("/{id}/moderators/{userID}/delete", h.HandleModeratorRemove)
	})
	return r
}
