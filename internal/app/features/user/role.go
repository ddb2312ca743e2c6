// internal/app/features/user/role.go
package user

import (
	"context"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type roleData struct {
	formutil.Base
	Profile models.User
	Clubs   []models.Club
	Input   inputval.RoleRequestInput
}

func (h *Handler) renderRoleRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, u models.User, in inputval.RoleRequestInput, res *inputval.Result) {
	all, err := h.Clubs.List(ctx)
	if err != nil {
		h.Log.Warn("user: load clubs", zap.Error(err))
	}
	var clubs []models.Club
	for _, c := range all {
		if !u.Moderates(c.ID) {
			clubs = append(clubs, c)
		}
	}
	data := roleData{Profile: u, Clubs: clubs, Input: in}
	formutil.SetBase(&data.Base, w, r, "Request club moderation", "/user/"+u.Username)
	data.SetErrors(res)
	templates.Render(w, r, "user_request_role", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /user/{username}/request-role                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRequestRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadOwn(ctx, w, r)
	if !ok {
		return
	}
	h.renderRoleRequest(ctx, w, r, u, inputval.RoleRequestInput{}, nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /user/{username}/request-role                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleRequestRole records a request to moderate a club. A newer request
// replaces any pending one; admins approve or deny it.
func (h *Handler) HandleRequestRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadOwn(ctx, w, r)
	if !ok {
		return
	}
	dest := "/user/" + u.Username

	var in inputval.RoleRequestInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "user: decode role request", err, "Invalid form data.", dest+"/request-role")
		return
	}
	if !res.HasErrors() {
		clubID, _ := primitive.ObjectIDFromHex(in.ClubID)
		switch exists, err := h.Clubs.Exists(ctx, clubID); {
		case err != nil:
			h.ErrLog.LogServerError(w, r, "user: check club", err, "Unable to send your request.", dest)
			return
		case !exists:
			res.Add("clubId", "Choose an existing club.")
		case u.Moderates(clubID):
			res.Add("clubId", "You already moderate that club.")
		}
	}
	if res.HasErrors() {
		if respond.WantsJSON(r) {
			inputval.Respond(w, r, res, h.Sessions, dest+"/request-role")
			return
		}
		h.renderRoleRequest(ctx, w, r, u, in, res)
		return
	}

	clubID, _ := primitive.ObjectIDFromHex(in.ClubID)
	if err := h.Users.SetRoleRequest(ctx, u.ID, models.RoleRequest{ClubID: clubID, Message: in.Message}); err != nil {
		h.ErrLog.LogServerError(w, r, "user: store role request", err, "Unable to send your request.", dest)
		return
	}
	h.Log.Info("moderator role requested", zap.String("user_id", u.ID.Hex()), zap.String("club_id", in.ClubID))
	formutil.Done(w, r, h.Sessions, "Request sent. An admin will review it.", dest)
}
