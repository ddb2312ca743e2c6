// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin area. Every route requires the admin role.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRole(models.RoleAdmin))

	r.Get("/", h.ServeDashboard)

	r.Get("/users", h.ServeUsers)
	r.Post("/users/{id}/role", h.HandleRoleChange)
	r.Post("/users/{id}/delete", h.HandleSoftDelete)
	r.Post("/users/{id}/purge", h.HandleHardDelete)

	r.Get("/clubs", h.ServeClubs)
	r.Post("/clubs", h.HandleClubCreate)
	r.Post("/clubs/delete/{id}", h.HandleClubDelete)

	r.Get("/events", h.ServeEvents)
	r.Post("/events/delete/{id}", h.HandleEventDelete)

	r.Get("/role-requests", h.ServeRoleRequests)
	r.Post("/role-requests/{id}", h.HandleRoleDecision)

	r.Get("/logs", h.ServeLogs)
	return r
}
