// internal/app/features/admin/handler.go
package admin

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	announcementstore "github.com/dalemusser/eventportal/internal/app/store/announcements"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	eventstore "github.com/dalemusser/eventportal/internal/app/store/events"
	logstore "github.com/dalemusser/eventportal/internal/app/store/logs"
	recruitmentstore "github.com/dalemusser/eventportal/internal/app/store/recruitments"
	registrationstore "github.com/dalemusser/eventportal/internal/app/store/registrations"
	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin area. Every route is mounted behind the admin
// role check in Routes.
type Handler struct {
	DB            *mongo.Database
	Users         *userstore.Store
	Clubs         *clubstore.Store
	Events        *eventstore.Store
	Recruitments  *recruitmentstore.Store
	Registrations *registrationstore.Store
	Announcements *announcementstore.Store
	Logs          *logstore.Store
	Images        imagehost.Host
	Sessions      inputval.Flasher
	Sec           *seclog.Logger
	Audit         *auditlog.Logger
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger

	Now func() time.Time
}

func NewHandler(db *mongo.Database, images imagehost.Host, sessions inputval.Flasher, sec *seclog.Logger, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Users:         userstore.New(db),
		Clubs:         clubstore.New(db),
		Events:        eventstore.New(db),
		Recruitments:  recruitmentstore.New(db),
		Registrations: registrationstore.New(db),
		Announcements: announcementstore.New(db),
		Logs:          logstore.New(db),
		Images:        images,
		Sessions:      sessions,
		Sec:           sec,
		Audit:         audit,
		Log:           logger,
		ErrLog:        errLog,
		Now:           time.Now,
	}
}

// idParam parses the {id} route parameter, answering 404 when malformed.
func idParam(w http.ResponseWriter, r *http.Request, what, back string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, what+" not found.", back)
		return primitive.NilObjectID, false
	}
	return id, true
}
