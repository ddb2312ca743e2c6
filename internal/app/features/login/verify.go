// internal/app/features/login/verify.go
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// tokenMessage turns a verification failure into user-facing text.
func tokenMessage(err error, what string) string {
	if errors.Is(err, tokens.ErrTokenExpired) {
		return "This " + what + " link has expired. Please request a new one."
	}
	return "This " + what + " link is invalid or has already been used."
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/verify/{token}                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "token")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	claims, err := h.Tokens.VerifyToken(ctx, raw, tokens.TypeVerification)
	if err != nil {
		h.Sec.Request(r, seclog.InvalidToken, "", map[string]any{"purpose": "verification", "reason": err.Error()})
		h.fail(w, r, http.StatusBadRequest, tokenMessage(err, "verification"), "/auth/resend")
		return
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, tokenMessage(tokens.ErrTokenInvalid, "verification"), "/auth/resend")
		return
	}

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && u.Deleted) {
		h.fail(w, r, http.StatusBadRequest, tokenMessage(tokens.ErrTokenInvalid, "verification"), "/auth/register")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "verify: load user", err, "A server error occurred.", "/")
		return
	}

	if !u.IsVerified {
		if err := h.Users.MarkVerified(ctx, u.ID); err != nil {
			h.ErrLog.LogServerError(w, r, "verify: mark verified", err, "Unable to verify your account.", "/")
			return
		}
		h.Sec.Request(r, seclog.EmailVerified, u.ID.Hex(), nil)
	}
	if err := h.Tokens.BlacklistToken(ctx, raw); err != nil {
		h.Log.Warn("verify: blacklist token", zap.Error(err))
	}

	h.done(w, r, "Your email is verified. You can sign in now.", "/auth/login")
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET|POST /auth/resend                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

const resendMessage = "If that account needs verifying, a new link is on its way."

func (h *Handler) ServeResend(w http.ResponseWriter, r *http.Request) {
	data := emailFormData{Action: "/auth/resend"}
	formutil.SetBase(&data.Base, w, r, "Resend verification", "/auth/login")
	templates.Render(w, r, "auth_email_form", data)
}

// HandleResend always answers the same way so it cannot be used to probe
// for accounts.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var in inputval.ResendVerificationInput
	res, err := inputval.Bind(r, &in)
	if err != nil || res.HasErrors() {
		inputval.Respond(w, r, orMalformed(res, err), h.Sessions, "/auth/resend")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil && !u.IsVerified && !u.Deleted:
		h.sendVerification(r.Context(), u)
	case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
		h.Log.Error("resend: find user", zap.Error(err))
	}

	h.done(w, r, resendMessage, "/auth/login")
}

// orMalformed yields a Result describing a body that could not be decoded.
func orMalformed(res *inputval.Result, err error) *inputval.Result {
	if err == nil {
		return res
	}
	out := &inputval.Result{}
	out.Add("body", "The submitted form could not be read.")
	return out
}
