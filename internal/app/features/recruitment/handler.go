// internal/app/features/recruitment/handler.go
package recruitment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	recruitmentstore "github.com/dalemusser/eventportal/internal/app/store/recruitments"
	registrationstore "github.com/dalemusser/eventportal/internal/app/store/registrations"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Recruitments  *recruitmentstore.Store
	Registrations *registrationstore.Store
	Clubs         *clubstore.Store
	Sessions      inputval.Flasher
	Audit         *auditlog.Logger
	Log           *zap.Logger
	ErrLog        *uierrors.ErrorLogger

	// Now is the clock used for deadline checks.
	Now func() time.Time
}

func NewHandler(db *mongo.Database, sessions inputval.Flasher, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Recruitments:  recruitmentstore.New(db),
		Registrations: registrationstore.New(db),
		Clubs:         clubstore.New(db),
		Sessions:      sessions,
		Audit:         audit,
		Log:           logger,
		ErrLog:        errLog,
		Now:           time.Now,
	}
}

// loadRecruitment resolves the {id} route parameter. On failure it has
// already written the response.
func (h *Handler) loadRecruitment(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Recruitment, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "Recruitment not found.", "/recruitment")
		return models.Recruitment{}, false
	}
	rec, err := h.Recruitments.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Recruitment not found.", "/recruitment")
		return models.Recruitment{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "recruitment: load", err, "Unable to load the recruitment.", "/recruitment")
		return models.Recruitment{}, false
	}
	return rec, true
}

// endOfDay makes a YYYY-MM-DD deadline inclusive of that whole UTC day.
func endOfDay(day time.Time) time.Time {
	return day.Add(24*time.Hour - time.Second)
}

// toFields converts the form definition. A single options entry holding
// commas is split, so a plain text input can list choices.
func toFields(in []inputval.FormFieldInput) []models.FormField {
	out := make([]models.FormField, 0, len(in))
	for _, f := range in {
		opts := f.Options
		if len(opts) == 1 && strings.Contains(opts[0], ",") {
			opts = nil
			for _, o := range strings.Split(f.Options[0], ",") {
				if o = strings.TrimSpace(o); o != "" {
					opts = append(opts, o)
				}
			}
		}
		out = append(out, models.FormField{
			Label:    f.Label,
			Name:     f.Name,
			Type:     f.Type,
			Required: f.Required,
			Options:  opts,
		})
	}
	return out
}
