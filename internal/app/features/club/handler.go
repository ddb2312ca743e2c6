// internal/app/features/club/handler.go
package club

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	announcementstore "github.com/dalemusser/eventportal/internal/app/store/announcements"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	eventstore "github.com/dalemusser/eventportal/internal/app/store/events"
	recruitmentstore "github.com/dalemusser/eventportal/internal/app/store/recruitments"
	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the public club pages and the moderator tools.
type Handler struct {
	Clubs         *clubstore.Store
	Users         *userstore.Store
	Events        *eventstore.Store
	Recruitments  *recruitmentstore.Store
	Announcements *announcementstore.Store
	Images        imagehost.Host
	Sessions      inputval.Flasher
	Audit         *auditlog.Logger
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, images imagehost.Host, sessions inputval.Flasher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Clubs:         clubstore.New(db),
		Users:         userstore.New(db),
		Events:        eventstore.New(db),
		Recruitments:  recruitmentstore.New(db),
		Announcements: announcementstore.New(db),
		Images:        images,
		Sessions:      sessions,
		Audit:         audit,
		Log:           logger,
		ErrLog:        errLog,
	}
}

// loadClub resolves the {id} route parameter. On failure it has already
// written the response.
func (h *Handler) loadClub(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Club, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Club not found.", "/club")
		return models.Club{}, false
	}
	c, err := h.Clubs.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Club not found.", "/club")
		return models.Club{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "club: load", err, "Unable to load the club.", "/club")
		return models.Club{}, false
	}
	return c, true
}

// cleanup deletes replaced or removed images. Failures are logged only.
func (h *Handler) cleanup(ctx context.Context, urls ...string) {
	var live []string
	for _, u := range urls {
		if u != "" {
			live = append(live, u)
		}
	}
	if len(live) == 0 {
		return
	}
	imagehost.DeleteAll(ctx, h.Images, live, h.Log)
}
