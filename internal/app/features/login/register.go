// internal/app/features/login/register.go
package login

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/authutil"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/register                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, inputval.RegisterInput{}, nil)
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, in inputval.RegisterInput, res *inputval.Result) {
	data := registerFormData{
		Name:          in.Name,
		Username:      in.Username,
		Email:         in.Email,
		PasswordRules: authutil.PasswordRules(),
		GoogleEnabled: h.GoogleEnabled,
	}
	formutil.SetBase(&data.Base, w, r, "Create account", "/")
	data.SetErrors(res)
	templates.Render(w, r, "auth_register", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/register                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in inputval.RegisterInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "register: decode body", err, "Invalid form data.", "/auth/register")
		return
	}
	if res.HasErrors() {
		h.rejectRegister(w, r, in, res)
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: hash password", err, "Unable to create your account.", "/auth/register")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: &hash,
		Role:         models.RoleUser,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateUsername):
		res.Add("username", "That username is already taken.")
		h.rejectRegister(w, r, in, res)
		return
	case errors.Is(err, userstore.ErrDuplicateEmail):
		res.Add("email", "An account with that email already exists.")
		h.rejectRegister(w, r, in, res)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "register: create user", err, "Unable to create your account.", "/auth/register")
		return
	}

	h.Sec.Request(r, seclog.Registration, u.ID.Hex(), map[string]any{"username": u.Username})
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()), zap.String("username", u.Username))

	h.sendVerification(r.Context(), u)

	h.done(w, r, "Account created. Check your email for a link to verify your address.", "/auth/login")
}

func (h *Handler) rejectRegister(w http.ResponseWriter, r *http.Request, in inputval.RegisterInput, res *inputval.Result) {
	if respond.WantsJSON(r) {
		inputval.Respond(w, r, res, h.Sessions, "/auth/register")
		return
	}
	h.renderRegister(w, r, in, res)
}
