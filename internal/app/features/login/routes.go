// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/eventportal/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes serves the password auth flow; mount under /auth.
func Routes(h *Handler, lim *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Get("/register", h.ServeRegister)
	r.Get("/login", h.ServeLogin)
	r.Get("/verify/{token}", h.HandleVerify)
	r.Get("/resend", h.ServeResend)
	r.Get("/forgot", h.ServeForgot)
	r.Get("/reset/{token}", h.ServeReset)

	r.Group(func(pr chi.Router) {
		pr.Use(lim.Middleware(ratelimit.Auth))
		pr.Post("/register", h.HandleRegister)
		pr.Post("/login", h.HandleLogin)
		pr.Post("/resend", h.HandleResend)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(lim.Middleware(ratelimit.PasswordReset))
		pr.Post("/forgot", h.HandleForgot)
		pr.Post("/reset/{token}", h.HandleReset)
	})

	return r
}
