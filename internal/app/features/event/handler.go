// internal/app/features/event/handler.go
package event

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	eventstore "github.com/dalemusser/eventportal/internal/app/store/events"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Events   *eventstore.Store
	Clubs    *clubstore.Store
	Images   imagehost.Host
	Sessions inputval.Flasher
	Audit    *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, images imagehost.Host, sessions inputval.Flasher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events:   eventstore.New(db),
		Clubs:    clubstore.New(db),
		Images:   images,
		Sessions: sessions,
		Audit:    audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}

// loadEvent resolves the {id} route parameter. On failure it has already
// written the response.
func (h *Handler) loadEvent(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Event, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Event not found.", "/event")
		return models.Event{}, false
	}
	e, err := h.Events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Event not found.", "/event")
		return models.Event{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "event: load", err, "Unable to load the event.", "/event")
		return models.Event{}, false
	}
	return e, true
}

// toUpdate converts validated input into store fields. Only call it after
// validation has passed.
func toUpdate(in inputval.EventInput) eventstore.Update {
	start, _ := inputval.ParseDate(in.StartDate)
	end, _ := inputval.ParseDate(in.EndDate)
	club, _ := primitive.ObjectIDFromHex(in.Club)

	upd := eventstore.Update{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		StartDate:   start,
		EndDate:     end,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Location:    in.Location,
		Image:       in.Image,
		Club:        club,
	}
	seen := map[primitive.ObjectID]bool{club: true}
	for _, hex := range in.CollabClubs {
		id, _ := primitive.ObjectIDFromHex(hex)
		if !seen[id] {
			seen[id] = true
			upd.CollabClubs = append(upd.CollabClubs, id)
		}
	}
	for _, lead := range in.EventLeads {
		if lead != "" {
			upd.EventLeads = append(upd.EventLeads, lead)
		}
	}
	for _, s := range in.Sponsors {
		upd.Sponsors = append(upd.Sponsors, models.Sponsor{Name: s.Name, Website: s.Website})
	}
	for _, wn := range in.Winners {
		upd.Winners = append(upd.Winners, models.Winner{Position: wn.Position, Name: wn.Name})
	}
	for _, rp := range in.Reports {
		upd.Reports = append(upd.Reports, models.Report{Title: rp.Title, URL: rp.URL})
	}
	return upd
}

// clubsExist reports whether the host and every collaborator are real clubs.
func (h *Handler) clubsExist(ctx context.Context, upd eventstore.Update) (bool, error) {
	ids := append([]primitive.ObjectID{upd.Club}, upd.CollabClubs...)
	return h.Clubs.Exists(ctx, ids...)
}

// inputFrom fills the edit form from a stored event.
func inputFrom(e models.Event) inputval.EventInput {
	in := inputval.EventInput{
		Title:       e.Title,
		Description: e.Description,
		Type:        e.Type,
		StartDate:   e.StartDate.UTC().Format(inputval.DateLayout),
		EndDate:     e.EndDate.UTC().Format(inputval.DateLayout),
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Image:       e.Image,
		Club:        e.Club.Hex(),
		EventLeads:  e.EventLeads,
	}
	for _, id := range e.CollabClubs {
		in.CollabClubs = append(in.CollabClubs, id.Hex())
	}
	for _, s := range e.Sponsors {
		in.Sponsors = append(in.Sponsors, inputval.SponsorInput{Name: s.Name, Website: s.Website})
	}
	for _, wn := range e.Winners {
		in.Winners = append(in.Winners, inputval.WinnerInput{Position: wn.Position, Name: wn.Name})
	}
	for _, rp := range e.Reports {
		in.Reports = append(in.Reports, inputval.ReportInput{Title: rp.Title, URL: rp.URL})
	}
	return in
}

// cleanup deletes images that are no longer referenced. Failures are logged
// and returned for callers that report them.
func (h *Handler) cleanup(ctx context.Context, urls ...string) []imagehost.Outcome {
	return imagehost.DeleteAll(ctx, h.Images, urls, h.Log)
}
