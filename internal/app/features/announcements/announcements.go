// internal/app/features/announcements/announcements.go
package announcements

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/authz"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/navigation"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type announcementRow struct {
	models.Announcement
	Body      template.HTML
	ClubName  string
	CanDelete bool
}

type listData struct {
	viewdata.BaseVM
	Items     []announcementRow
	Clubs     []models.Club
	ClubID    string
	CanPost   bool
	Paging    paging.Result
	PageQuery string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /announcements                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// List shows announcements newest first, optionally scoped to ?club=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var q struct {
		Club string `form:"club" validate:"omitempty,objectid"`
		Page int    `form:"page" validate:"gte=0,lte=10000"`
	}
	res, err := inputval.BindValues(r.URL.Query(), &q)
	if err != nil || res.HasErrors() {
		q.Club, q.Page = "", 0
	}
	club, _ := primitive.ObjectIDFromHex(q.Club)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	items, pg, err := h.Store.List(ctx, club, paging.New(q.Page))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "announcements: list", err, "Unable to load announcements.", "/")
		return
	}
	clubs, err := h.Clubs.List(ctx)
	if err != nil {
		h.Log.Warn("announcements: load clubs", zap.Error(err))
	}
	names := make(map[primitive.ObjectID]string, len(clubs))
	for _, c := range clubs {
		names[c.ID] = c.Name
	}

	data := listData{
		BaseVM:  viewdata.NewBaseVM(w, r, "Announcements", "/"),
		Clubs:   clubs,
		ClubID:  q.Club,
		CanPost: len(postableClubs(r, clubs)) > 0 || authz.IsAdmin(r),
		Paging:  pg,
	}
	if q.Club != "" {
		data.PageQuery = "club=" + q.Club + "&"
	}
	for _, a := range items {
		row := announcementRow{
			Announcement: a,
			Body:         htmlsanitize.PrepareForDisplay(a.Message),
			CanDelete:    authz.CanDeleteAnnouncement(r, a),
		}
		if a.Club != nil {
			row.ClubName = names[*a.Club]
		}
		data.Items = append(data.Items, row)
	}

	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"announcements": items, "page": pg.Page, "hasNext": pg.HasNext})
		return
	}
	templates.Render(w, r, "announcements_list", data)
}

// postableClubs filters clubs to those the current user may post to.
func postableClubs(r *http.Request, clubs []models.Club) []models.Club {
	var out []models.Club
	for _, c := range clubs {
		id := c.ID
		if authz.CanPostAnnouncement(r, &id) {
			out = append(out, c)
		}
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /announcements/new                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type formData struct {
	formutil.Base
	Input       inputval.AnnouncementInput
	Clubs       []models.Club
	AllowGlobal bool
}

func (h *Handler) ShowNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, inputval.AnnouncementInput{Club: r.URL.Query().Get("club")}, nil)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, in inputval.AnnouncementInput, res *inputval.Result) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	clubs, err := h.Clubs.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "announcements: load clubs", err, "Unable to load clubs.", "/announcements")
		return
	}
	data := formData{
		Input:       in,
		Clubs:       postableClubs(r, clubs),
		AllowGlobal: authz.IsAdmin(r),
	}
	if len(data.Clubs) == 0 && !data.AllowGlobal {
		uierrors.RenderForbidden(w, r, "Only admins and club moderators can post announcements.", "/announcements")
		return
	}
	formutil.SetBase(&data.Base, w, r, "New announcement", navigation.SafeBackURL(r, navigation.AnnouncementsBackURL))
	data.SetErrors(res)
	templates.Render(w, r, "announcements_new", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /announcements                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	var in inputval.AnnouncementInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "announcements: decode body", err, "Invalid form data.", "/announcements/new")
		return
	}
	if res.HasErrors() {
		h.reject(w, r, in, res)
		return
	}

	var club *primitive.ObjectID
	if in.Club != "" {
		id, _ := primitive.ObjectIDFromHex(in.Club)
		club = &id
	}
	if !authz.CanPostAnnouncement(r, club) {
		h.ErrLog.LogForbidden(w, r, "announcements: post denied", "You cannot post announcements there.", "/announcements")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if club != nil {
		ok, err := h.Clubs.Exists(ctx, *club)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "announcements: check club", err, "Unable to post the announcement.", "/announcements")
			return
		}
		if !ok {
			res.Add("club", "That club does not exist.")
			h.reject(w, r, in, res)
			return
		}
	}

	a, err := h.Store.Create(ctx, models.Announcement{
		Title:    in.Title,
		Message:  in.Message,
		PostedBy: user.ObjectID(),
		Club:     club,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "announcements: create", err, "Unable to post the announcement.", "/announcements")
		return
	}
	h.Audit.Create(ctx, user, auditlog.Entry{TargetType: "announcement", TargetID: a.ID, Details: a.Title})

	formutil.Done(w, r, h.Sessions, "Announcement posted.", "/announcements")
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, in inputval.AnnouncementInput, res *inputval.Result) {
	if respond.WantsJSON(r) {
		inputval.Respond(w, r, res, h.Sessions, "/announcements/new")
		return
	}
	h.renderForm(w, r, in, res)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /announcements/{id}/delete                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	id, ok := idParam(r)
	if !ok {
		uierrors.RenderNotFound(w, r, "Announcement not found.", "/announcements")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Announcement not found.", "/announcements")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "announcements: load", err, "Unable to delete the announcement.", "/announcements")
		return
	}
	if !authz.CanDeleteAnnouncement(r, a) {
		h.ErrLog.LogForbidden(w, r, "announcements: delete denied", "Only the poster or an admin can delete this announcement.", "/announcements")
		return
	}

	if _, err := h.Store.Delete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "announcements: delete", err, "Unable to delete the announcement.", "/announcements")
		return
	}
	h.Audit.Delete(ctx, user, auditlog.Entry{TargetType: "announcement", TargetID: id, Details: a.Title})

	formutil.Done(w, r, h.Sessions, "Announcement deleted.", "/announcements")
}
