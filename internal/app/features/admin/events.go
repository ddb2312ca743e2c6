// internal/app/features/admin/events.go
package admin

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	eventstore "github.com/dalemusser/eventportal/internal/app/store/events"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const eventsPath = "/admin/events"

type eventsData struct {
	viewdata.BaseVM
	Events    []models.Event
	Q         string
	Paging    paging.Result
	PageQuery string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/events                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	var q inputval.ListQuery
	if res, err := inputval.BindValues(r.URL.Query(), &q); err != nil || res.HasErrors() {
		q = inputval.ListQuery{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	events, pg, err := h.Events.List(ctx, eventstore.Filter{Q: q.Q, Type: q.Type}, paging.New(q.Page))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: list events", err, "Unable to load events.", "/admin")
		return
	}
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"events": events, "page": pg.Page, "hasNext": pg.HasNext})
		return
	}
	data := eventsData{
		BaseVM: viewdata.NewBaseVM(w, r, "Events", "/admin"),
		Events: events,
		Q:      q.Q,
		Paging: pg,
	}
	if q.Q != "" {
		data.PageQuery = url.Values{"q": {q.Q}}.Encode() + "&"
	}
	templates.Render(w, r, "admin_events", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/events/delete/{id}                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleEventDelete removes any event, then its image best-effort.
func (h *Handler) HandleEventDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	id, ok := idParam(w, r, "Event", eventsPath)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Event not found.", eventsPath)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: load event", err, "Unable to load the event.", eventsPath)
		return
	}
	if _, err := h.Events.Delete(ctx, e.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "admin: delete event", err, "Unable to delete the event.", eventsPath)
		return
	}

	var deleted, failed int
	if e.Image != "" {
		deleted, failed, _ = imagehost.Summary(imagehost.DeleteAll(ctx, h.Images, []string{e.Image}, h.Log))
	}

	h.Audit.Delete(ctx, actor, auditlog.Entry{TargetType: "event", TargetID: e.ID, Details: e.Title})
	h.Log.Info("event deleted by admin",
		zap.String("event_id", e.ID.Hex()),
		zap.String("admin_id", actor.ID),
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
	formutil.Done(w, r, h.Sessions, "Event deleted.", eventsPath)
}
