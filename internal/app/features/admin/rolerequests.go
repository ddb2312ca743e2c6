// internal/app/features/admin/rolerequests.go
package admin

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const requestsPath = "/admin/role-requests"

type requestRow struct {
	User     models.User
	ClubName string
}

type requestsData struct {
	viewdata.BaseVM
	Requests []requestRow
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/role-requests                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoleRequests lists pending moderator requests, oldest first.
func (h *Handler) ServeRoleRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := h.Users.ListRoleRequests(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: list role requests", err, "Unable to load role requests.", "/admin")
		return
	}

	var clubIDs []primitive.ObjectID
	for _, u := range users {
		clubIDs = append(clubIDs, u.RoleRequest.ClubID)
	}
	names := make(map[primitive.ObjectID]string)
	if len(clubIDs) > 0 {
		clubs, err := h.Clubs.ListByIDs(ctx, clubIDs)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "admin: load request clubs", err, "Unable to load role requests.", "/admin")
			return
		}
		for _, c := range clubs {
			names[c.ID] = c.Name
		}
	}

	rows := make([]requestRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, requestRow{User: u, ClubName: names[u.RoleRequest.ClubID]})
	}
	if respond.WantsJSON(r) {
		out := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			out = append(out, map[string]any{
				"userId":      row.User.ID.Hex(),
				"username":    row.User.Username,
				"club":        row.User.RoleRequest.ClubID.Hex(),
				"clubName":    row.ClubName,
				"message":     row.User.RoleRequest.Message,
				"requestedAt": row.User.RoleRequest.RequestedAt,
			})
		}
		respond.JSON(w, http.StatusOK, map[string]any{"requests": out})
		return
	}
	templates.Render(w, r, "admin_role_requests", requestsData{
		BaseVM:   viewdata.NewBaseVM(w, r, "Role requests", "/admin"),
		Requests: rows,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/role-requests/{id}                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleRoleDecision approves or denies the pending request of user {id}.
// Approval makes the user a moderator of the requested club; either way
// the request is cleared. A club deleted since the request is a denial.
func (h *Handler) HandleRoleDecision(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	id, ok := idParam(w, r, "Request", requestsPath)
	if !ok {
		return
	}

	var in inputval.RoleDecisionInput
	if _, err := inputval.Bind(r, &in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "admin: decode decision", err, "Invalid form data.", requestsPath)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && (u.RoleRequest == nil || u.Deleted)) {
		uierrors.RenderNotFound(w, r, "No pending request for that user.", requestsPath)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: load requester", err, "Unable to load the request.", requestsPath)
		return
	}
	clubID := u.RoleRequest.ClubID

	if in.Approve {
		exists, err := h.Clubs.Exists(ctx, clubID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "admin: check club", err, "Unable to approve the request.", requestsPath)
			return
		}
		if !exists {
			in.Approve = false
		}
	}

	if in.Approve {
		if err := h.Clubs.AddModerator(ctx, clubID, u.ID); err != nil {
			h.ErrLog.LogServerError(w, r, "admin: add moderator", err, "Unable to approve the request.", requestsPath)
			return
		}
		if err := h.Users.AddModeratorOf(ctx, u.ID, clubID); err != nil {
			h.ErrLog.LogServerError(w, r, "admin: add moderator_of", err, "Unable to approve the request.", requestsPath)
			return
		}
	}
	if err := h.Users.ClearRoleRequest(ctx, u.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "admin: clear request", err, "Unable to update the request.", requestsPath)
		return
	}

	details := "denied moderator request"
	msg := "Request from " + u.Username + " denied."
	if in.Approve {
		details = "approved moderator request"
		msg = u.Username + " is now a moderator."
	}
	h.Audit.Edit(ctx, actor, auditlog.Entry{
		TargetType:   "club",
		TargetID:     clubID,
		AffectedUser: &u.ID,
		Details:      details,
	})
	formutil.Done(w, r, h.Sessions, msg, requestsPath)
}
