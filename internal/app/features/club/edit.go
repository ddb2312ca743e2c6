// internal/app/features/club/edit.go
package club

import (
	"context"
	"errors"
	"net/http"

	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/navigation"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type editData struct {
	formutil.Base
	Club  models.Club
	Input inputval.ClubInput
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /club/{id}/edit                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, ok := h.loadClub(ctx, w, r)
	if !ok {
		return
	}
	h.renderEdit(w, r, c, inputval.ClubInput{
		Name:        c.Name,
		Description: c.Description,
		About:       c.About,
		Image:       c.Image,
		Banner:      c.Banner,
	}, nil)
}

func (h *Handler) renderEdit(w http.ResponseWriter, r *http.Request, c models.Club, in inputval.ClubInput, res *inputval.Result) {
	data := editData{Club: c, Input: in}
	back := navigation.SafeBackURL(r, navigation.BackURLOptions{
		AllowedPrefix:    "/club/" + c.ID.Hex(),
		ExcludedSubpaths: []string{"/edit"},
		Fallback:         "/club/" + c.ID.Hex(),
	})
	formutil.SetBase(&data.Base, w, r, "Edit "+c.Name, back)
	data.SetErrors(res)
	templates.Render(w, r, "club_edit", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /club/{id}/edit                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleEdit saves the club profile. A replaced display image or banner is
// removed from the image host after the save.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadClub(ctx, w, r)
	if !ok {
		return
	}
	dest := "/club/" + c.ID.Hex()

	var in inputval.ClubInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "club: decode body", err, "Invalid form data.", dest+"/edit")
		return
	}
	if res.HasErrors() {
		h.rejectEdit(w, r, c, in, res)
		return
	}

	err = h.Clubs.Update(ctx, c.ID, clubstore.Update{
		Name:        in.Name,
		Description: in.Description,
		About:       in.About,
		Image:       in.Image,
		Banner:      in.Banner,
	})
	if errors.Is(err, clubstore.ErrDuplicateClub) {
		res.Add("name", "A club with that name already exists.")
		h.rejectEdit(w, r, c, in, res)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "club: update", err, "Unable to save the club.", dest)
		return
	}

	var replaced []string
	if c.Image != "" && c.Image != in.Image {
		replaced = append(replaced, c.Image)
	}
	if c.Banner != "" && c.Banner != in.Banner {
		replaced = append(replaced, c.Banner)
	}
	h.cleanup(ctx, replaced...)

	h.Audit.Edit(ctx, user, auditlog.Entry{TargetType: "club", TargetID: c.ID, Details: in.Name})
	formutil.Done(w, r, h.Sessions, "Club updated.", dest)
}

func (h *Handler) rejectEdit(w http.ResponseWriter, r *http.Request, c models.Club, in inputval.ClubInput, res *inputval.Result) {
	if respond.WantsJSON(r) {
		inputval.Respond(w, r, res, h.Sessions, "/club/"+c.ID.Hex()+"/edit")
		return
	}
	h.renderEdit(w, r, c, in, res)
}
