// internal/app/features/club/view.go
package club

import (
	"context"
	"html/template"
	"net/http"
	"time"

	eventstore "github.com/dalemusser/eventportal/internal/app/store/events"
	"github.com/dalemusser/eventportal/internal/app/system/authz"
	"github.com/dalemusser/eventportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type listData struct {
	viewdata.BaseVM
	Clubs []models.Club
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /club                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	clubs, err := h.Clubs.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "club: list", err, "Unable to load clubs.", "/")
		return
	}
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"clubs": clubs})
		return
	}
	templates.Render(w, r, "club_list", listData{
		BaseVM: viewdata.NewBaseVM(w, r, "Clubs", "/"),
		Clubs:  clubs,
	})
}

type viewData struct {
	viewdata.BaseVM
	Club          models.Club
	About         template.HTML
	Moderators    []models.User
	Events        []models.Event
	Recruitments  []models.Recruitment
	Announcements []models.Announcement
	CanManage     bool
	IsAdmin       bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /club/{id}                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeView shows a club with its events, open recruitments and notices.
// Secondary sections that fail to load are logged and left empty.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadClub(ctx, w, r)
	if !ok {
		return
	}

	data := viewData{
		BaseVM:    viewdata.NewBaseVM(w, r, c.Name, "/club"),
		Club:      c,
		About:     htmlsanitize.PrepareForDisplay(c.About),
		CanManage: authz.CanManageClub(r, c.ID),
		IsAdmin:   authz.IsAdmin(r),
	}

	var err error
	if data.Moderators, err = h.Users.ListByIDs(ctx, c.Moderators); err != nil {
		h.Log.Warn("club: load moderators", zap.Error(err), zap.String("club_id", c.ID.Hex()))
	}
	if data.Events, _, err = h.Events.List(ctx, eventstore.Filter{Club: c.ID}, paging.WithSize(1, 10)); err != nil {
		h.Log.Warn("club: load events", zap.Error(err), zap.String("club_id", c.ID.Hex()))
	}
	recs, err := h.Recruitments.ListByClub(ctx, c.ID)
	if err != nil {
		h.Log.Warn("club: load recruitments", zap.Error(err), zap.String("club_id", c.ID.Hex()))
	}
	now := time.Now()
	for _, rec := range recs {
		if data.CanManage || rec.AcceptsAt(now) {
			data.Recruitments = append(data.Recruitments, rec)
		}
	}
	if data.Announcements, _, err = h.Announcements.List(ctx, c.ID, paging.WithSize(1, 5)); err != nil {
		h.Log.Warn("club: load announcements", zap.Error(err), zap.String("club_id", c.ID.Hex()))
	}

	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"club": c, "events": data.Events, "recruitments": data.Recruitments})
		return
	}
	templates.Render(w, r, "club_view", data)
}
