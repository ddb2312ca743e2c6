// internal/app/features/recruitment/manage.go
package recruitment

import (
	"context"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/authz"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// loadManaged loads the recruitment and requires the current user to manage
// its club.
func (h *Handler) loadManaged(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Recruitment, bool) {
	rec, ok := h.loadRecruitment(ctx, w, r)
	if !ok {
		return models.Recruitment{}, false
	}
	if !authz.CanManageClub(r, rec.Club) {
		h.ErrLog.LogForbidden(w, r, "recruitment: not a club manager", "Only the club's moderators can do that.", "/recruitment/"+rec.ID.Hex())
		return models.Recruitment{}, false
	}
	return rec, true
}

type registrationsData struct {
	viewdata.BaseVM
	Recruitment   models.Recruitment
	Registrations []models.Registration
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /recruitment/{id}/registrations                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, ok := h.loadManaged(ctx, w, r)
	if !ok {
		return
	}
	regs, err := h.Registrations.ListByRecruitment(ctx, rec.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "recruitment: list registrations", err, "Unable to load applications.", "/recruitment/"+rec.ID.Hex())
		return
	}
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"registrations": regs})
		return
	}
	templates.Render(w, r, "recruitment_registrations", registrationsData{
		BaseVM:        viewdata.NewBaseVM(w, r, "Applications: "+rec.Title, "/recruitment/"+rec.ID.Hex()),
		Recruitment:   rec,
		Registrations: regs,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /recruitment/{id}/toggle                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleToggle opens a closed recruitment or closes an open one.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, ok := h.loadManaged(ctx, w, r)
	if !ok {
		return
	}
	dest := "/recruitment/" + rec.ID.Hex()

	active := !rec.Active
	if err := h.Recruitments.SetActive(ctx, rec.ID, active); err != nil {
		h.ErrLog.LogServerError(w, r, "recruitment: toggle", err, "Unable to update the recruitment.", dest)
		return
	}

	msg := "Recruitment closed."
	if active {
		msg = "Recruitment reopened."
	}
	h.Audit.Edit(ctx, user, auditlog.Entry{TargetType: "recruitment", TargetID: rec.ID, Details: msg})
	formutil.Done(w, r, h.Sessions, msg, dest)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /recruitment/{id}/delete                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleDelete removes a recruitment with its applications and unlinks it
// from the club.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, ok := h.loadManaged(ctx, w, r)
	if !ok {
		return
	}

	if _, err := h.Recruitments.Delete(ctx, rec.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "recruitment: delete", err, "Unable to delete the recruitment.", "/recruitment/"+rec.ID.Hex())
		return
	}
	n, err := h.Registrations.DeleteByRecruitments(ctx, rec.ID)
	if err != nil {
		h.Log.Warn("recruitment: delete applications", zap.Error(err), zap.String("recruitment_id", rec.ID.Hex()))
	}
	if err := h.Clubs.RemoveRecruitment(ctx, rec.Club, rec.ID); err != nil {
		h.Log.Warn("recruitment: unlink from club", zap.Error(err), zap.String("recruitment_id", rec.ID.Hex()))
	}

	h.Audit.Delete(ctx, user, auditlog.Entry{TargetType: "recruitment", TargetID: rec.ID, Details: rec.Title})
	h.Log.Info("recruitment deleted", zap.String("recruitment_id", rec.ID.Hex()), zap.Int64("registrations", n))
	formutil.Done(w, r, h.Sessions, "Recruitment deleted.", "/club/"+rec.Club.Hex())
}
