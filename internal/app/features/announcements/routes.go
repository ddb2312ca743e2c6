// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the announcement board. Listing is public; posting and
// deleting require a signed-in user and are checked per club.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/new", h.ShowNew)
		pr.Post("/", h.Create)
		pr.Post("/{id}/delete", h.Delete)
	})
	return r
}
