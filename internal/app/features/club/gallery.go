// internal/app/features/club/gallery.go
package club

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// maxGallery bounds how many images one club may show.
const maxGallery = 50

/*─────────────────────────────────────────────────────────────────────────────*
| POST /club/{id}/gallery                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleGalleryAdd(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, ok := h.loadClub(ctx, w, r)
	if !ok {
		return
	}
	dest := "/club/" + c.ID.Hex()

	var in inputval.GalleryInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "club: decode gallery", err, "Invalid form data.", dest)
		return
	}
	if res.HasErrors() {
		inputval.Respond(w, r, res, h.Sessions, dest)
		return
	}
	if len(c.Gallery) >= maxGallery {
		formutil.Fail(w, r, h.Sessions, http.StatusBadRequest, "The gallery is full. Remove an image first.", dest)
		return
	}

	if err := h.Clubs.AddGalleryItem(ctx, c.ID, models.GalleryItem{
		URL:        in.URL,
		Caption:    in.Caption,
		UploadedBy: user.ObjectID(),
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "club: add gallery item", err, "Unable to add the image.", dest)
		return
	}

	h.Audit.Edit(ctx, user, auditlog.Entry{TargetType: "club", TargetID: c.ID, Details: "gallery add: " + in.URL})
	formutil.Done(w, r, h.Sessions, "Image added to the gallery.", dest)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /club/{id}/gallery/{index}/delete                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleGalleryRemove drops one gallery entry and deletes its image from the
// host. The entry is removed even if the host delete fails.
func (h *Handler) HandleGalleryRemove(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, ok := h.loadClub(ctx, w, r)
	if !ok {
		return
	}
	dest := "/club/" + c.ID.Hex()

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		formutil.Fail(w, r, h.Sessions, http.StatusBadRequest, "That image does not exist.", dest)
		return
	}

	item, err := h.Clubs.RemoveGalleryItem(ctx, c.ID, index)
	if errors.Is(err, clubstore.ErrNoSuchImage) {
		formutil.Fail(w, r, h.Sessions, http.StatusNotFound, "That image does not exist.", dest)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "club: remove gallery item", err, "Unable to remove the image.", dest)
		return
	}
	h.cleanup(ctx, item.URL)

	h.Audit.Edit(ctx, user, auditlog.Entry{TargetType: "club", TargetID: c.ID, Details: "gallery remove: " + item.URL})
	formutil.Done(w, r, h.Sessions, "Image removed.", dest)
}
