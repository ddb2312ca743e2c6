// internal/app/features/event/delete.go
package event

import (
	"context"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/authz"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /event/{id}/delete                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDelete removes an event. Only its creator or an admin may do so.
// The record is deleted first; the image is then removed best-effort.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, ok := h.loadEvent(ctx, w, r)
	if !ok {
		return
	}
	if !authz.CanDeleteEvent(r, e) {
		h.ErrLog.LogForbidden(w, r, "event: delete by non-owner", "You can only delete events you created.", "/event/"+e.ID.Hex())
		return
	}

	if _, err := h.Events.Delete(ctx, e.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "event: delete", err, "Unable to delete the event.", "/event/"+e.ID.Hex())
		return
	}

	var deleted, failed int
	if e.Image != "" {
		deleted, failed, _ = imagehost.Summary(h.cleanup(ctx, e.Image))
	}

	h.Audit.Delete(ctx, user, auditlog.Entry{TargetType: "event", TargetID: e.ID, Details: e.Title})
	h.Log.Info("event deleted",
		zap.String("event_id", e.ID.Hex()),
		zap.String("user_id", user.ID),
		zap.Int("images_deleted", deleted),
		zap.Int("images_failed", failed))

	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{
			"message":       "Event deleted.",
			"imagesDeleted": deleted,
			"imagesFailed":  failed,
		})
		return
	}
	formutil.Done(w, r, h.Sessions, "Event deleted.", "/event")
}
