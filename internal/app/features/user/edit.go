// internal/app/features/user/edit.go
package user

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type editData struct {
	formutil.Base
	Profile models.User
	Input   inputval.ProfileInput
}

func (h *Handler) renderEdit(w http.ResponseWriter, r *http.Request, u models.User, in inputval.ProfileInput, res *inputval.Result) {
	data := editData{Profile: u, Input: in}
	formutil.SetBase(&data.Base, w, r, "Edit profile", "/user/"+u.Username)
	data.SetErrors(res)
	templates.Render(w, r, "user_edit", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /user/{username}/edit                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadEditable(ctx, w, r)
	if !ok {
		return
	}
	h.renderEdit(w, r, u, inputval.ProfileInput{Name: u.Name, Username: u.Username, Avatar: u.Avatar}, nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /user/{username}/edit                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleEdit saves name, username and avatar. A replaced avatar is removed
// from the image host after the save.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, ok := h.loadEditable(ctx, w, r)
	if !ok {
		return
	}

	var in inputval.ProfileInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "user: decode profile", err, "Invalid form data.", "/user/"+u.Username+"/edit")
		return
	}
	if res.HasErrors() {
		h.rejectEdit(w, r, u, in, res)
		return
	}

	err = h.Users.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{Name: in.Name, Username: in.Username, Avatar: in.Avatar})
	if errors.Is(err, userstore.ErrDuplicateUsername) {
		res.Add("username", "That username is already taken.")
		h.rejectEdit(w, r, u, in, res)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "user: update profile", err, "Unable to save your profile.", "/user/"+u.Username)
		return
	}

	if u.Avatar != "" && u.Avatar != in.Avatar {
		imagehost.DeleteAll(ctx, h.Images, []string{u.Avatar}, h.Log)
	}

	h.Audit.Edit(ctx, actor, auditlog.Entry{TargetType: "user", TargetID: u.ID, AffectedUser: &u.ID, Details: "profile"})

	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		updated = u
	}
	formutil.Done(w, r, h.Sessions, "Profile updated.", "/user/"+updated.Username)
}

func (h *Handler) rejectEdit(w http.ResponseWriter, r *http.Request, u models.User, in inputval.ProfileInput, res *inputval.Result) {
	if respond.WantsJSON(r) {
		inputval.Respond(w, r, res, h.Sessions, "/user/"+u.Username+"/edit")
		return
	}
	h.renderEdit(w, r, u, in, res)
}
