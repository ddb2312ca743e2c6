// internal/app/features/club/moderators.go
package club

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /club/{id}/moderators                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleModeratorAdd grants a user moderation of the club. Both sides of the
// link are written: the club's moderators and the user's moderator_of.
func (h *Handler) HandleModeratorAdd(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, ok := h.loadClub(ctx, w, r)
	if !ok {
		return
	}
	dest := "/club/" + c.ID.Hex()

	var in inputval.ModeratorInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "club: decode moderator", err, "Invalid form data.", dest)
		return
	}
	if res.HasErrors() {
		inputval.Respond(w, r, res, h.Sessions, dest)
		return
	}
	userID, _ := primitive.ObjectIDFromHex(in.UserID)

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && u.Deleted) {
		formutil.Fail(w, r, h.Sessions, http.StatusNotFound, "That user does not exist.", dest)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "club: load moderator", err, "Unable to add the moderator.", dest)
		return
	}

	if err := h.Clubs.AddModerator(ctx, c.ID, u.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "club: add moderator", err, "Unable to add the moderator.", dest)
		return
	}
	if err := h.Users.AddModeratorOf(ctx, u.ID, c.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "club: grant moderator", err, "Unable to add the moderator.", dest)
		return
	}

	h.Audit.Edit(ctx, actor, auditlog.Entry{TargetType: "club", TargetID: c.ID, AffectedUser: &u.ID, Details: "moderator added: " + u.Username})
	formutil.Done(w, r, h.Sessions, u.Name+" now moderates "+c.Name+".", dest)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /club/{id}/moderators/{userID}/delete                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleModeratorRemove(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, ok := h.loadClub(ctx, w, r)
	if !ok {
		return
	}
	dest := "/club/" + c.ID.Hex()

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		formutil.Fail(w, r, h.Sessions, http.StatusNotFound, "That user does not exist.", dest)
		return
	}

	if err := h.Clubs.RemoveModerator(ctx, c.ID, userID); err != nil {
		h.ErrLog.LogServerError(w, r, "club: remove moderator", err, "Unable to remove the moderator.", dest)
		return
	}
	if err := h.Users.RemoveModeratorOf(ctx, userID, c.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "club: revoke moderator", err, "Unable to remove the moderator.", dest)
		return
	}

	h.Audit.Edit(ctx, actor, auditlog.Entry{TargetType: "club", TargetID: c.ID, AffectedUser: &userID, Details: "moderator removed"})
	formutil.Done(w, r, h.Sessions, "Moderator removed.", dest)
}
