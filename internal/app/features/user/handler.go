// internal/app/features/user/handler.go
package user

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/authz"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the user profile pages.
type Handler struct {
	Users    *userstore.Store
	Clubs    *clubstore.Store
	Images   imagehost.Host
	Sessions inputval.Flasher
	Sec      *seclog.Logger
	Audit    *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, images imagehost.Host, sessions inputval.Flasher, sec *seclog.Logger, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Clubs:    clubstore.New(db),
		Images:   images,
		Sessions: sessions,
		Sec:      sec,
		Audit:    audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}

// loadUser resolves the {username} route parameter. Soft-deleted accounts
// are not found. On failure it has already written the response.
func (h *Handler) loadUser(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.User, bool) {
	p := inputval.UsernameParam{Username: chi.URLParam(r, "username")}
	if inputval.Validate(&p).HasErrors() {
		uierrors.RenderNotFound(w, r, "User not found.", "/")
		return models.User{}, false
	}
	u, err := h.Users.GetByUsername(ctx, p.Username)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && u.Deleted) {
		uierrors.RenderNotFound(w, r, "User not found.", "/")
		return models.User{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "user: load", err, "Unable to load the profile.", "/")
		return models.User{}, false
	}
	return u, true
}

// loadEditable loads the user and requires the current user to be the owner
// or an admin.
func (h *Handler) loadEditable(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.User, bool) {
	u, ok := h.loadUser(ctx, w, r)
	if !ok {
		return models.User{}, false
	}
	if !authz.CanEditUser(r, u) {
		h.ErrLog.LogForbidden(w, r, "user: edit by non-owner", "You can only change your own profile.", "/user/"+u.Username)
		return models.User{}, false
	}
	return u, true
}

// loadOwn loads the user and requires it to be the current user.
func (h *Handler) loadOwn(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.User, bool) {
	u, ok := h.loadUser(ctx, w, r)
	if !ok {
		return models.User{}, false
	}
	if _, _, id, signed := authz.UserCtx(r); !signed || id != u.ID {
		h.ErrLog.LogForbidden(w, r, "user: action on another account", "You can only do that for your own account.", "/user/"+u.Username)
		return models.User{}, false
	}
	return u, true
}
