// internal/app/features/recruitment/apply.go
package recruitment

import (
	"context"
	"errors"
	"net/http"

	registrationstore "github.com/dalemusser/eventportal/internal/app/store/registrations"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /recruitment/{id}/apply                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleApply records an application. The recruitment must be active and
// before its deadline, and each email may apply once. Answers are checked
// against the recruitment's form; JSON callers send them under "answers",
// HTML forms as answers.<name>.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, ok := h.loadRecruitment(ctx, w, r)
	if !ok {
		return
	}
	dest := "/recruitment/" + rec.ID.Hex()

	if !rec.AcceptsAt(h.Now()) {
		formutil.Fail(w, r, h.Sessions, http.StatusForbidden, "This recruitment is no longer accepting applications.", "/recruitment")
		return
	}

	var in inputval.ApplyInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "recruitment: decode application", err, "Invalid form data.", dest)
		return
	}
	answers, ares := inputval.CheckAnswers(rec.Fields, func(name string) string {
		if v, ok := in.Answers[name]; ok {
			return v
		}
		return r.PostFormValue("answers." + name)
	})
	res.Errors = append(res.Errors, ares.Errors...)
	if res.HasErrors() {
		h.rejectApply(ctx, w, r, rec, in, res)
		return
	}

	reg, err := h.Registrations.Create(ctx, models.Registration{
		Recruitment: rec.ID,
		Name:        in.Name,
		Email:       in.Email,
		Answers:     answers,
	})
	if errors.Is(err, registrationstore.ErrAlreadyApplied) {
		formutil.Fail(w, r, h.Sessions, http.StatusConflict, "You have already applied to this recruitment.", dest)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "recruitment: store application", err, "Unable to submit your application.", dest)
		return
	}

	h.Log.Info("recruitment application",
		zap.String("recruitment_id", rec.ID.Hex()),
		zap.String("registration_id", reg.ID.Hex()))
	formutil.Done(w, r, h.Sessions, "Application submitted. Thank you!", dest)
}

func (h *Handler) rejectApply(ctx context.Context, w http.ResponseWriter, r *http.Request, rec models.Recruitment, in inputval.ApplyInput, res *inputval.Result) {
	if respond.WantsJSON(r) {
		inputval.Respond(w, r, res, h.Sessions, "/recruitment/"+rec.ID.Hex())
		return
	}
	h.renderView(ctx, w, r, rec, in, res)
}
