// internal/app/features/announcements/handler.go
package announcements

import (
	"net/http"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	announcementstore "github.com/dalemusser/eventportal/internal/app/store/announcements"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all Announcements handlers.
type Handler struct {
	Store    *announcementstore.Store
	Clubs    *clubstore.Store
	Sessions inputval.Flasher
	Audit    *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs an Announcements Handler.
func NewHandler(db *mongo.Database, sessions inputval.Flasher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:    announcementstore.New(db),
		Clubs:    clubstore.New(db),
		Sessions: sessions,
		Audit:    audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}

func idParam(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}
