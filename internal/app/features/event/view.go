// internal/app/features/event/view.go
package event

import (
	"context"
	"html/template"
	"net/http"
	"net/url"

	eventstore "github.com/dalemusser/eventportal/internal/app/store/events"
	"github.com/dalemusser/eventportal/internal/app/system/authz"
	"github.com/dalemusser/eventportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listData struct {
	viewdata.BaseVM
	Events    []models.Event
	ClubNames map[primitive.ObjectID]string
	Types     []string
	Q         string
	Type      string
	CanCreate bool
	Paging    paging.Result
	PageQuery string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /event                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList shows events newest first. ?type= narrows to one category and
// ?q= matches a title prefix. A bad query falls back to the unfiltered list.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var q inputval.ListQuery
	res, err := inputval.BindValues(r.URL.Query(), &q)
	if err != nil || res.HasErrors() {
		q = inputval.ListQuery{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	events, pg, err := h.Events.List(ctx, eventstore.Filter{Type: q.Type, Q: q.Q}, paging.New(q.Page))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "event: list", err, "Unable to load events.", "/")
		return
	}
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"events": events, "page": pg.Page, "hasNext": pg.HasNext})
		return
	}

	data := listData{
		BaseVM:    viewdata.NewBaseVM(w, r, "Events", "/"),
		Events:    events,
		ClubNames: h.clubNames(ctx, events),
		Types:     models.EventTypes,
		Q:         q.Q,
		Type:      q.Type,
		CanCreate: signedIn(r),
		Paging:    pg,
	}
	keep := url.Values{}
	if q.Q != "" {
		keep.Set("q", q.Q)
	}
	if q.Type != "" {
		keep.Set("type", q.Type)
	}
	if len(keep) > 0 {
		data.PageQuery = keep.Encode() + "&"
	}
	templates.Render(w, r, "event_list", data)
}

func signedIn(r *http.Request) bool {
	_, _, _, ok := authz.UserCtx(r)
	return ok
}

// clubNames maps the host clubs of events to their names. Lookup failures
// leave the map empty.
func (h *Handler) clubNames(ctx context.Context, events []models.Event) map[primitive.ObjectID]string {
	var ids []primitive.ObjectID
	for _, e := range events {
		ids = append(ids, e.Club)
		ids = append(ids, e.CollabClubs...)
	}
	names := make(map[primitive.ObjectID]string)
	if len(ids) == 0 {
		return names
	}
	clubs, err := h.Clubs.ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("event: load club names", zap.Error(err))
		return names
	}
	for _, c := range clubs {
		names[c.ID] = c.Name
	}
	return names
}

type viewData struct {
	viewdata.BaseVM
	Event       models.Event
	Description template.HTML
	ClubNames   map[primitive.ObjectID]string
	CanEdit     bool
	CanDelete   bool

	// StructuredData is schema.org Event JSON-LD for the page head.
	StructuredData template.JS
}

// structuredData describes e as a schema.org Event.
func structuredData(e models.Event, host string) template.JS {
	ld := map[string]any{
		"@context":  "https://schema.org",
		"@type":     "Event",
		"name":      e.Title,
		"startDate": e.StartDate.Format(inputval.DateLayout),
		"endDate":   e.EndDate.Format(inputval.DateLayout),
		"location":  map[string]any{"@type": "Place", "name": e.Location},
	}
	if host != "" {
		ld["organizer"] = map[string]any{"@type": "Organization", "name": host}
	}
	if e.Image != "" {
		ld["image"] = e.Image
	}
	return htmlsanitize.SafeJS(ld)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /event/{id}                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, ok := h.loadEvent(ctx, w, r)
	if !ok {
		return
	}
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"event": e})
		return
	}
	names := h.clubNames(ctx, []models.Event{e})
	templates.Render(w, r, "event_view", viewData{
		BaseVM:         viewdata.NewBaseVM(w, r, e.Title, "/event"),
		Event:          e,
		Description:    htmlsanitize.PrepareForDisplay(e.Description),
		ClubNames:      names,
		CanEdit:        authz.IsAdmin(r),
		CanDelete:      authz.CanDeleteEvent(r, e),
		StructuredData: structuredData(e, names[e.Club]),
	})
}
