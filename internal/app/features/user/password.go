// internal/app/features/user/password.go
package user

import (
	"context"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/authutil"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type passwordData struct {
	formutil.Base
	Profile       models.User
	PasswordRules string
}

func (h *Handler) renderPassword(w http.ResponseWriter, r *http.Request, u models.User, res *inputval.Result) {
	data := passwordData{Profile: u, PasswordRules: authutil.PasswordRules()}
	formutil.SetBase(&data.Base, w, r, "Change password", "/user/"+u.Username)
	data.SetErrors(res)
	templates.Render(w, r, "user_password", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /user/{username}/password                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadOwn(ctx, w, r)
	if !ok {
		return
	}
	h.renderPassword(w, r, u, nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /user/{username}/password                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleChangePassword replaces the password after checking the current one.
// Accounts without a password (Google sign-in) set one through the reset
// flow instead.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadOwn(ctx, w, r)
	if !ok {
		return
	}
	dest := "/user/" + u.Username

	var in inputval.ChangePasswordInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "user: decode password form", err, "Invalid form data.", dest+"/password")
		return
	}
	if !res.HasErrors() {
		switch {
		case u.PasswordHash == nil:
			res.Add("currentPassword", "This account has no password yet. Use \"Forgot password\" to set one.")
		case !authutil.ComparePassword(in.CurrentPassword, *u.PasswordHash):
			res.Add("currentPassword", "Current password is incorrect.")
		case authutil.ComparePassword(in.Password, *u.PasswordHash):
			res.Add("password", "New password cannot be the same as your current password.")
		}
	}
	if res.HasErrors() {
		if respond.WantsJSON(r) {
			inputval.Respond(w, r, res, h.Sessions, dest+"/password")
			return
		}
		h.renderPassword(w, r, u, res)
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "user: hash password", err, "Failed to update password.", dest)
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		h.ErrLog.LogServerError(w, r, "user: store password", err, "Failed to update password.", dest)
		return
	}

	h.Sec.Request(r, seclog.PasswordChanged, u.ID.Hex(), map[string]any{"via": "profile"})
	formutil.Done(w, r, h.Sessions, "Password changed.", dest)
}
