// internal/app/features/recruitment/view.go
package recruitment

import (
	"context"
	"html/template"
	"net/http"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/authz"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
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
	Recruitments []models.Recruitment
	ClubNames    map[primitive.ObjectID]string
	CanCreate    bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /recruitment                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList shows recruitments that are active and before their deadline.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	recs, err := h.Recruitments.ListOpen(ctx, h.Now())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "recruitment: list", err, "Unable to load recruitments.", "/")
		return
	}
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"recruitments": recs})
		return
	}

	user, _ := auth.CurrentUser(r)
	templates.Render(w, r, "recruitment_list", listData{
		BaseVM:       viewdata.NewBaseVM(w, r, "Recruitments", "/"),
		Recruitments: recs,
		ClubNames:    h.clubNames(ctx, recs),
		CanCreate:    user.IsAdmin() || user.IsModerator(),
	})
}

func (h *Handler) clubNames(ctx context.Context, recs []models.Recruitment) map[primitive.ObjectID]string {
	names := make(map[primitive.ObjectID]string)
	if len(recs) == 0 {
		return names
	}
	ids := make([]primitive.ObjectID, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.Club)
	}
	clubs, err := h.Clubs.ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("recruitment: load club names", zap.Error(err))
		return names
	}
	for _, c := range clubs {
		names[c.ID] = c.Name
	}
	return names
}

type viewData struct {
	formutil.Base
	Recruitment models.Recruitment
	Description template.HTML
	ClubName    string
	Open        bool
	CanManage   bool
	Applicants  int64
	Input       inputval.ApplyInput
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /recruitment/{id}                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeView shows a recruitment and its application form. Closed
// recruitments are visible only to the club's managers.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, ok := h.loadRecruitment(ctx, w, r)
	if !ok {
		return
	}
	in := inputval.ApplyInput{}
	if u, ok := auth.CurrentUser(r); ok {
		in.Name, in.Email = u.Name, u.Email
	}
	h.renderView(ctx, w, r, rec, in, nil)
}

func (h *Handler) renderView(ctx context.Context, w http.ResponseWriter, r *http.Request, rec models.Recruitment, in inputval.ApplyInput, res *inputval.Result) {
	open := rec.AcceptsAt(h.Now())
	canManage := authz.CanManageClub(r, rec.Club)
	if !open && !canManage {
		uierrors.RenderNotFound(w, r, "This recruitment is no longer accepting applications.", "/recruitment")
		return
	}
	if respond.WantsJSON(r) && res == nil {
		respond.JSON(w, http.StatusOK, map[string]any{"recruitment": rec, "open": open})
		return
	}

	data := viewData{
		Recruitment: rec,
		Description: htmlsanitize.PrepareForDisplay(rec.Description),
		Open:        open,
		CanManage:   canManage,
		Input:       in,
	}
	if c, err := h.Clubs.GetByID(ctx, rec.Club); err == nil {
		data.ClubName = c.Name
	}
	if canManage {
		n, err := h.Registrations.CountByRecruitment(ctx, rec.ID)
		if err != nil {
			h.Log.Warn("recruitment: count applicants", zap.Error(err))
		}
		data.Applicants = n
	}
	formutil.SetBase(&data.Base, w, r, rec.Title, "/recruitment")
	data.SetErrors(res)
	templates.Render(w, r, "recruitment_view", data)
}
