package home

import (
	"context"
	"net/http"
	"time"

	announcementstore "github.com/dalemusser/eventportal/internal/app/store/announcements"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	eventstore "github.com/dalemusser/eventportal/internal/app/store/events"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	upcomingLimit      = 6
	announcementsLimit = 5
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

type homeData struct {
	viewdata.BaseVM
	Upcoming      []models.Event
	Clubs         []models.Club
	Announcements []models.Announcement
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot renders the landing page. Each section loads independently; a
// failed section is logged and shown empty.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	data := homeData{
		BaseVM: viewdata.NewBaseVM(w, r, "Welcome", "/"),
	}
	data.Upcoming, data.Clubs, data.Announcements = h.load(r.Context())
	templates.Render(w, r, "home", data)
}

func (h *Handler) load(parent context.Context) ([]models.Event, []models.Club, []models.Announcement) {
	ctx, cancel := context.WithTimeout(parent, timeouts.Medium())
	defer cancel()

	upcoming, err := eventstore.New(h.DB).Upcoming(ctx, time.Now(), upcomingLimit)
	if err != nil {
		h.Log.Warn("home: load upcoming events", zap.Error(err))
	}
	clubs, err := clubstore.New(h.DB).List(ctx)
	if err != nil {
		h.Log.Warn("home: load clubs", zap.Error(err))
	}
	anns, err := announcementstore.New(h.DB).Recent(ctx, announcementsLimit)
	if err != nil {
		h.Log.Warn("home: load announcements", zap.Error(err))
	}
	return upcoming, clubs, anns
}
