// internal/app/features/upload/routes.go
package upload

import (
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the image upload endpoint for signed-in users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Post("/", h.HandleUpload)
	return r
}
