// internal/app/features/recruitment/create.go
package recruitment

import (
	"context"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/authz"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/navigation"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type newData struct {
	formutil.Base
	Input      inputval.RecruitmentInput
	Clubs      []models.Club
	FieldTypes []string
}

// managedClubs lists the clubs the current user may recruit for.
func (h *Handler) managedClubs(ctx context.Context, r *http.Request) ([]models.Club, error) {
	clubs, err := h.Clubs.List(ctx)
	if err != nil {
		return nil, err
	}
	out := clubs[:0]
	for _, c := range clubs {
		if authz.CanManageClub(r, c.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (h *Handler) renderNew(ctx context.Context, w http.ResponseWriter, r *http.Request, in inputval.RecruitmentInput, res *inputval.Result) {
	clubs, err := h.managedClubs(ctx, r)
	if err != nil {
		h.Log.Warn("recruitment: load clubs", zap.Error(err))
	}
	// Blank rows so a plain form can define questions.
	for len(in.Fields) < 3 {
		in.Fields = append(in.Fields, inputval.FormFieldInput{Type: "text"})
	}
	data := newData{Input: in, Clubs: clubs, FieldTypes: models.FormFieldTypes}
	formutil.SetBase(&data.Base, w, r, "New recruitment", navigation.SafeBackURL(r, navigation.RecruitmentsBackURL))
	data.SetErrors(res)
	templates.Render(w, r, "recruitment_new", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /recruitment/new                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	clubs, err := h.managedClubs(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "recruitment: load clubs", err, "Unable to load clubs.", "/recruitment")
		return
	}
	if len(clubs) == 0 {
		h.ErrLog.LogForbidden(w, r, "recruitment: new without a club", "Only club moderators can open recruitments.", "/recruitment")
		return
	}
	h.renderNew(ctx, w, r, inputval.RecruitmentInput{Club: r.URL.Query().Get("club")}, nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /recruitment                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate opens a recruitment for a club the user manages and links it
// to the club.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var in inputval.RecruitmentInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "recruitment: decode body", err, "Invalid form data.", "/recruitment/new")
		return
	}
	// Rows left blank in the HTML form carry only their default type.
	in.Fields = dropBlank(in.Fields)
	if res.HasErrors() {
		res = inputval.Validate(&in)
	}
	if res.HasErrors() {
		h.reject(ctx, w, r, in, res)
		return
	}

	deadline, _ := inputval.ParseDate(in.Deadline)
	club, _ := primitive.ObjectIDFromHex(in.Club)
	if !authz.CanManageClub(r, club) {
		h.ErrLog.LogForbidden(w, r, "recruitment: create for unmanaged club", "You can only recruit for clubs you moderate.", "/recruitment")
		return
	}
	ok, err := h.Clubs.Exists(ctx, club)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "recruitment: check club", err, "Unable to create the recruitment.", "/recruitment/new")
		return
	}
	if !ok {
		res.Add("club", "Choose an existing club.")
		h.reject(ctx, w, r, in, res)
		return
	}
	if seen := duplicateName(in.Fields); seen != "" {
		res.Add("fields", "Field name "+seen+" is used twice.")
		h.reject(ctx, w, r, in, res)
		return
	}

	rec, err := h.Recruitments.Create(ctx, models.Recruitment{
		Title:       in.Title,
		Description: in.Description,
		Club:        club,
		Deadline:    endOfDay(deadline),
		Fields:      toFields(in.Fields),
		CreatedBy:   user.ObjectID(),
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "recruitment: create", err, "Unable to create the recruitment.", "/recruitment/new")
		return
	}
	if err := h.Clubs.AddRecruitment(ctx, club, rec.ID); err != nil {
		h.Log.Warn("recruitment: link to club", zap.Error(err), zap.String("recruitment_id", rec.ID.Hex()))
	}

	h.Audit.Create(ctx, user, auditlog.Entry{TargetType: "recruitment", TargetID: rec.ID, Details: rec.Title})

	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusCreated, map[string]any{"message": "Recruitment created.", "recruitment": rec})
		return
	}
	formutil.Done(w, r, h.Sessions, "Recruitment created.", "/recruitment/"+rec.ID.Hex())
}

func (h *Handler) reject(ctx context.Context, w http.ResponseWriter, r *http.Request, in inputval.RecruitmentInput, res *inputval.Result) {
	if respond.WantsJSON(r) {
		inputval.Respond(w, r, res, h.Sessions, "/recruitment/new")
		return
	}
	h.renderNew(ctx, w, r, in, res)
}

func dropBlank(fields []inputval.FormFieldInput) []inputval.FormFieldInput {
	out := fields[:0]
	for _, f := range fields {
		if f.Label == "" && f.Name == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func duplicateName(fields []inputval.FormFieldInput) string {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return f.Name
		}
		seen[f.Name] = true
	}
	return ""
}
