// internal/app/features/admin/users.go
package admin

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const usersPath = "/admin/users"

type usersData struct {
	viewdata.BaseVM
	Users       []models.User
	Q           string
	ShowDeleted bool
	Roles       []string
	SelfID      string
	Paging      paging.Result
	PageQuery   string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/users                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeUsers lists accounts. ?q= matches a username prefix and ?deleted=1
// includes soft-deleted accounts.
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	var q inputval.ListQuery
	if res, err := inputval.BindValues(r.URL.Query(), &q); err != nil || res.HasErrors() {
		q = inputval.ListQuery{}
	}
	showDeleted := r.URL.Query().Get("deleted") == "1"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, pg, err := h.Users.List(ctx, q.Q, paging.New(q.Page), showDeleted)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: list users", err, "Unable to load users.", "/admin")
		return
	}
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"users": users, "page": pg.Page, "hasNext": pg.HasNext})
		return
	}

	self, _ := auth.CurrentUser(r)
	data := usersData{
		BaseVM:      viewdata.NewBaseVM(w, r, "Users", "/admin"),
		Users:       users,
		Q:           q.Q,
		ShowDeleted: showDeleted,
		Roles:       []string{models.RoleUser, models.RoleAdmin},
		SelfID:      self.ID,
		Paging:      pg,
	}
	keep := url.Values{}
	if q.Q != "" {
		keep.Set("q", q.Q)
	}
	if showDeleted {
		keep.Set("deleted", "1")
	}
	if len(keep) > 0 {
		data.PageQuery = keep.Encode() + "&"
	}
	templates.Render(w, r, "admin_users", data)
}

// loadTarget resolves {id} to a user other than the acting admin.
func (h *Handler) loadTarget(ctx context.Context, w http.ResponseWriter, r *http.Request, actor *auth.SessionUser) (models.User, bool) {
	id, ok := idParam(w, r, "User", usersPath)
	if !ok {
		return models.User{}, false
	}
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "User not found.", usersPath)
		return models.User{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: load user", err, "Unable to load the user.", usersPath)
		return models.User{}, false
	}
	if u.ID.Hex() == actor.ID {
		formutil.Fail(w, r, h.Sessions, http.StatusBadRequest, "You cannot change your own account here.", usersPath)
		return models.User{}, false
	}
	return u, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/users/{id}/role                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRoleChange(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadTarget(ctx, w, r, actor)
	if !ok {
		return
	}

	var in inputval.RoleChangeInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "admin: decode role", err, "Invalid form data.", usersPath)
		return
	}
	if res.HasErrors() {
		inputval.Respond(w, r, res, h.Sessions, usersPath)
		return
	}
	if in.Role == u.Role {
		formutil.Done(w, r, h.Sessions, u.Username+" already has that role.", usersPath)
		return
	}

	if err := h.Users.SetRole(ctx, u.ID, in.Role); err != nil {
		h.ErrLog.LogServerError(w, r, "admin: set role", err, "Unable to change the role.", usersPath)
		return
	}

	h.Sec.Request(r, seclog.RoleChanged, actor.ID, map[string]any{
		"target": u.ID.Hex(),
		"from":   u.Role,
		"to":     in.Role,
	})
	h.Audit.Edit(ctx, actor, auditlog.Entry{
		TargetType:   "user",
		TargetID:     u.ID,
		AffectedUser: &u.ID,
		Details:      "role " + u.Role + " -> " + in.Role,
	})
	formutil.Done(w, r, h.Sessions, "Role updated for "+u.Username+".", usersPath)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/users/{id}/delete                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSoftDelete flags the account deleted. The record and its avatar are
// kept so the account can be inspected later.
func (h *Handler) HandleSoftDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadTarget(ctx, w, r, actor)
	if !ok {
		return
	}
	if u.Deleted {
		formutil.Done(w, r, h.Sessions, u.Username+" is already deleted.", usersPath)
		return
	}
	if err := h.Users.SoftDelete(ctx, u.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "admin: soft delete user", err, "Unable to delete the user.", usersPath)
		return
	}

	h.Audit.Delete(ctx, actor, auditlog.Entry{
		TargetType:   "user",
		TargetID:     u.ID,
		AffectedUser: &u.ID,
		Details:      "soft delete " + u.Username,
	})
	formutil.Done(w, r, h.Sessions, u.Username+" deleted.", usersPath)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /admin/users/{id}/purge                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleHardDelete removes the account, its moderator seats, and then its
// avatar from the image host.
func (h *Handler) HandleHardDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, ok := h.loadTarget(ctx, w, r, actor)
	if !ok {
		return
	}

	if _, err := h.Users.Delete(ctx, u.ID); err != nil {
		h.ErrLog.LogServerError(w, r, "admin: delete user", err, "Unable to delete the user.", usersPath)
		return
	}
	if err := h.Clubs.RemoveUserFromAll(ctx, u.ID); err != nil {
		h.Log.Warn("admin: remove deleted user from clubs", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}

	var deleted, failed int
	if u.Avatar != "" {
		deleted, failed, _ = imagehost.Summary(imagehost.DeleteAll(ctx, h.Images, []string{u.Avatar}, h.Log))
	}

	h.Audit.Delete(ctx, actor, auditlog.Entry{
		TargetType:   "user",
		TargetID:     u.ID,
		AffectedUser: &u.ID,
		Details:      "hard delete " + u.Username,
	})
	h.Log.Info("user purged",
		zap.String("user_id", u.ID.Hex()),
		zap.String("admin_id", actor.ID),
		zap.Int("images_deleted", deleted),
		zap.Int("images_failed", failed))

	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{
			"message":       "User permanently deleted.",
			"imagesDeleted": deleted,
			"imagesFailed":  failed,
		})
		return
	}
	formutil.Done(w, r, h.Sessions, u.Username+" permanently deleted.", usersPath)
}
