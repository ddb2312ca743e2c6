// internal/app/features/user/profile.go
package user

import (
	"context"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/authz"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type profileData struct {
	viewdata.BaseVM
	Profile     models.User
	Moderates   []models.Club
	IsOwner     bool
	CanEdit     bool
	HasPassword bool
	RequestClub string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /user/{username}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeProfile shows a public profile. The owner also sees their account
// tools.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadUser(ctx, w, r)
	if !ok {
		return
	}
	clubs, err := h.Clubs.ListByIDs(ctx, u.ModeratorOf)
	if err != nil {
		h.Log.Warn("user: load moderated clubs", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}

	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{
			"name":     u.Name,
			"username": u.Username,
			"avatar":   u.Avatar,
			"role":     u.Role,
			"clubs":    clubs,
		})
		return
	}

	_, _, viewer, signed := authz.UserCtx(r)
	data := profileData{
		BaseVM:      viewdata.NewBaseVM(w, r, u.Name, "/"),
		Profile:     u,
		Moderates:   clubs,
		IsOwner:     signed && viewer == u.ID,
		CanEdit:     authz.CanEditUser(r, u),
		HasPassword: u.PasswordHash != nil,
	}
	if u.RoleRequest != nil {
		if c, err := h.Clubs.GetByID(ctx, u.RoleRequest.ClubID); err == nil {
			data.RequestClub = c.Name
		}
	}
	templates.Render(w, r, "user_profile", data)
}
