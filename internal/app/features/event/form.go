// internal/app/features/event/form.go
package event

import (
	"context"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/navigation"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type formData struct {
	formutil.Base
	Input   inputval.EventInput
	Clubs   []models.Club
	Types   []string
	Action  string
	IsEdit  bool
	EventID string
}

func (h *Handler) renderForm(ctx context.Context, w http.ResponseWriter, r *http.Request, e *models.Event, in inputval.EventInput, res *inputval.Result) {
	clubs, err := h.Clubs.List(ctx)
	if err != nil {
		h.Log.Warn("event: load clubs", zap.Error(err))
	}
	data := formData{Input: in, Clubs: clubs, Types: models.EventTypes, Action: "/event"}
	title := "New event"
	back := navigation.SafeBackURL(r, navigation.EventsBackURL)
	if e != nil {
		title = "Edit " + e.Title
		data.IsEdit = true
		data.EventID = e.ID.Hex()
		data.Action = "/event/" + e.ID.Hex() + "/edit"
		back = "/event/" + e.ID.Hex()
	}
	formutil.SetBase(&data.Base, w, r, title, back)
	data.SetErrors(res)
	templates.Render(w, r, "event_form", data)
}

// reject answers a failed submission: 400 with field errors for JSON callers,
// otherwise the form again with the entered values.
func (h *Handler) reject(ctx context.Context, w http.ResponseWriter, r *http.Request, e *models.Event, in inputval.EventInput, res *inputval.Result) {
	if respond.WantsJSON(r) {
		inputval.Respond(w, r, res, h.Sessions, "/event")
		return
	}
	h.renderForm(ctx, w, r, e, in, res)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /event/new                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in := inputval.EventInput{Type: "workshop", Club: r.URL.Query().Get("club")}
	h.renderForm(ctx, w, r, nil, in, nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /event                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate stores a new event hosted by an existing club. JSON callers get
// 201 with the stored event.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var in inputval.EventInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "event: decode body", err, "Invalid form data.", "/event/new")
		return
	}
	if res.HasErrors() {
		h.reject(ctx, w, r, nil, in, res)
		return
	}

	upd := toUpdate(in)
	ok, err := h.clubsExist(ctx, upd)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "event: check clubs", err, "Unable to create the event.", "/event/new")
		return
	}
	if !ok {
		res.Add("club", "Choose an existing club.")
		h.reject(ctx, w, r, nil, in, res)
		return
	}

	e, err := h.Events.Create(ctx, models.Event{
		Title:       upd.Title,
		Description: upd.Description,
		Type:        upd.Type,
		StartDate:   upd.StartDate,
		EndDate:     upd.EndDate,
		StartTime:   upd.StartTime,
		EndTime:     upd.EndTime,
		Location:    upd.Location,
		Image:       upd.Image,
		Club:        upd.Club,
		CollabClubs: upd.CollabClubs,
		CreatedBy:   user.ObjectID(),
		EventLeads:  upd.EventLeads,
		Sponsors:    upd.Sponsors,
		Winners:     upd.Winners,
		Reports:     upd.Reports,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "event: create", err, "Unable to create the event.", "/event/new")
		return
	}

	h.Audit.Create(ctx, user, auditlog.Entry{TargetType: "event", TargetID: e.ID, Details: e.Title})
	h.Log.Info("event created", zap.String("event_id", e.ID.Hex()), zap.String("user_id", user.ID))

	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusCreated, map[string]any{"message": "Event created.", "event": e})
		return
	}
	formutil.Done(w, r, h.Sessions, "Event created.", "/event/"+e.ID.Hex())
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /event/{id}/edit                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, ok := h.loadEvent(ctx, w, r)
	if !ok {
		return
	}
	h.renderForm(ctx, w, r, &e, inputFrom(e), nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /event/{id}/edit                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleEdit replaces the event's fields, including its sponsors, winners and
// reports. A replaced image is removed from the image host after the save.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	e, ok := h.loadEvent(ctx, w, r)
	if !ok {
		return
	}
	dest := "/event/" + e.ID.Hex()

	var in inputval.EventInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "event: decode body", err, "Invalid form data.", dest+"/edit")
		return
	}
	if res.HasErrors() {
		h.reject(ctx, w, r, &e, in, res)
		return
	}

	upd := toUpdate(in)
	ok, err = h.clubsExist(ctx, upd)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "event: check clubs", err, "Unable to save the event.", dest)
		return
	}
	if !ok {
		res.Add("club", "Choose an existing club.")
		h.reject(ctx, w, r, &e, in, res)
		return
	}

	if err := h.Events.Update(ctx, e.ID, upd); err != nil {
		h.ErrLog.LogServerError(w, r, "event: update", err, "Unable to save the event.", dest)
		return
	}
	if e.Image != "" && e.Image != upd.Image {
		h.cleanup(ctx, e.Image)
	}

	h.Audit.Edit(ctx, user, auditlog.Entry{TargetType: "event", TargetID: e.ID, Details: upd.Title})
	formutil.Done(w, r, h.Sessions, "Event updated.", dest)
}
