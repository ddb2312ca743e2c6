// internal/app/features/recruitment/routes.go
package recruitment

import (
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the recruitment pages. Anyone may browse and apply; the
// remaining actions check club management per recruitment.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/registrations", h.ServeRegistrations)
		pr.Post("/{id}/toggle", h.HandleToggle)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	r.Get("/{id}", h.ServeView)
	r.Post("/{id}/apply", h.HandleApply)
	return r
}
