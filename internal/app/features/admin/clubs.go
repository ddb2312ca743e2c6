// internal/app/features/admin/clubs.go
package admin

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const clubsPath = "/admin/clubs"

type clubsData struct {
	formutil.Base
	Clubs []models.Club
	Input inputval.ClubInput
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/clubs                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeClubs lists every club with the create form.
func (h *Handler) ServeClubs(w http.ResponseWriter, r *http.Request) {
	h.renderClubs(w, r, inputval.ClubInput{}, nil)
}

func (h *Handler) renderClubs(w http.ResponseWriter, r *http.Request, in inputval.ClubInput, res *inputval.Result) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	clubs, err := h.Clubs.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: list clubs", err, "Unable to load clubs.", "/admin")
		return
	}
	if respond.WantsJSON(r) && res == nil {
		respond.JSON(w, http.StatusOK, map[string]any{"clubs": clubs})
		return
	}
	data := clubsData{Clubs: clubs, Input: in}
	formutil.SetBase(&data.Base, w, r, "Clubs", "/admin")
	data.SetErrors(res)
	templates.Render(w, r, "admin_clubs", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/clubs                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleClubCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	var in inputval.ClubInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "admin: decode club", err, "Invalid form data.", clubsPath)
		return
	}
	if res.HasErrors() {
		h.rejectClub(w, r, in, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Clubs.Create(ctx, models.Club{
		Name:        in.Name,
		Description: in.Description,
		About:       in.About,
		Image:       in.Image,
		Banner:      in.Banner,
	})
	if errors.Is(err, clubstore.ErrDuplicateClub) {
		res.Add("name", "A club with that name already exists.")
		h.rejectClub(w, r, in, res)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: create club", err, "Unable to create the club.", clubsPath)
		return
	}

	h.Audit.Create(ctx, actor, auditlog.Entry{TargetType: "club", TargetID: c.ID, Details: c.Name})
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusCreated, map[string]any{"message": "Club created.", "club": c})
		return
	}
	formutil.Done(w, r, h.Sessions, "Club "+c.Name+" created.", clubsPath)
}

func (h *Handler) rejectClub(w http.ResponseWriter, r *http.Request, in inputval.ClubInput, res *inputval.Result) {
	if respond.WantsJSON(r) {
		inputval.Respond(w, r, res, h.Sessions, clubsPath)
		return
	}
	h.renderClubs(w, r, in, res)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/clubs/delete/{id}                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleClubDelete removes a club and everything that only makes sense
// with it: recruitments and their registrations, club announcements and
// moderator seats. Events it hosted are kept; it is dropped from event
// collaborator lists. Hosted images are then deleted one by one and
// failures are only counted.
func (h *Handler) HandleClubDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	id, ok := idParam(w, r, "Club", clubsPath)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	c, err := h.Clubs.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Club not found.", clubsPath)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: load club", err, "Unable to load the club.", clubsPath)
		return
	}

	if _, err := h.Clubs.Delete(ctx, c.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "admin: delete club", err, "Unable to delete the club.", clubsPath)
		return
	}
	h.cascadeClub(ctx, c)

	deleted, failed, _ := imagehost.Summary(imagehost.DeleteAll(ctx, h.Images, c.ImageURLs(), h.Log))

	h.Audit.Delete(ctx, actor, auditlog.Entry{TargetType: "club", TargetID: c.ID, Details: c.Name})
	h.Log.Info("club deleted",
		zap.String("club_id", c.ID.Hex()),
		zap.String("admin_id", actor.ID),
		zap.Int("images_deleted", deleted),
		zap.Int("images_failed", failed))

	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{
			"message":       "Club deleted.",
			"imagesDeleted": deleted,
			"imagesFailed":  failed,
		})
		return
	}
	msg := "Club " + c.Name + " deleted."
	if failed > 0 {
		msg += " Some images could not be removed from the image host."
	}
	if h.Sessions != nil {
		h.Sessions.Flash(w, r, auth.FlashSuccess, msg)
	}
	http.Redirect(w, r, clubsPath, http.StatusFound)
}

// cascadeClub clears references to a deleted club. Each step is
// independent; failures are logged and the rest still run.
func (h *Handler) cascadeClub(ctx context.Context, c models.Club) {
	warn := func(step string, err error) {
		if err != nil {
			h.Log.Warn("admin: club cascade", zap.String("step", step), zap.String("club_id", c.ID.Hex()), zap.Error(err))
		}
	}

	recIDs, err := h.Recruitments.DeleteByClub(ctx, c.ID)
	warn("recruitments", err)
	if len(recIDs) > 0 {
		_, err = h.Registrations.DeleteByRecruitments(ctx, recIDs...)
		warn("registrations", err)
	}
	_, err = h.Announcements.DeleteByClub(ctx, c.ID)
	warn("announcements", err)
	warn("events", h.Events.RemoveCollaborator(ctx, c.ID))
	warn("moderators", h.Users.RemoveClubFromAll(ctx, c.ID))
}
