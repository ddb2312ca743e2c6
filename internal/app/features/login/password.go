// internal/app/features/login/password.go
package login

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/authutil"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const forgotMessage = "If an account exists for that email, a password reset link has been sent."

/*─────────────────────────────────────────────────────────────────────────────*
| GET|POST /auth/forgot                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeForgot(w http.ResponseWriter, r *http.Request) {
	data := emailFormData{Action: "/auth/forgot"}
	formutil.SetBase(&data.Base, w, r, "Forgot password", "/auth/login")
	templates.Render(w, r, "auth_email_form", data)
}

// HandleForgot answers with the same flash whether or not the account exists.
func (h *Handler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var in inputval.ForgotPasswordInput
	res, err := inputval.Bind(r, &in)
	if err != nil || res.HasErrors() {
		inputval.Respond(w, r, orMalformed(res, err), h.Sessions, "/auth/forgot")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil && !u.Deleted:
		h.Sec.Request(r, seclog.PasswordResetRequested, u.ID.Hex(), nil)
		h.sendPasswordReset(r.Context(), u)
	case err != nil && !errors.Is(err, mongo.ErrNoDocuments):
		h.Log.Error("forgot: find user", zap.Error(err))
	default:
		h.Sec.Request(r, seclog.PasswordResetRequested, "", map[string]any{"email": in.Email, "known": false})
	}

	h.done(w, r, forgotMessage, "/auth/login")
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET|POST /auth/reset/{token}                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// resetUser resolves the reset token in the URL to its account.
func (h *Handler) resetUser(ctx context.Context, raw string) (models.User, error) {
	claims, err := h.Tokens.VerifyToken(ctx, raw, tokens.TypePasswordReset)
	if err != nil {
		return models.User{}, err
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.User{}, tokens.ErrTokenInvalid
	}
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && u.Deleted) {
		return models.User{}, tokens.ErrTokenInvalid
	}
	return u, err
}

func isTokenErr(err error) bool {
	return errors.Is(err, tokens.ErrTokenInvalid) ||
		errors.Is(err, tokens.ErrTokenExpired) ||
		errors.Is(err, tokens.ErrTokenBlacklisted) ||
		errors.Is(err, tokens.ErrTokenTypeMismatch)
}

func (h *Handler) ServeReset(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "token")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.resetUser(ctx, raw); err != nil {
		if isTokenErr(err) {
			h.fail(w, r, http.StatusBadRequest, tokenMessage(err, "password reset"), "/auth/forgot")
			return
		}
		h.ErrLog.LogServerError(w, r, "reset: load user", err, "A server error occurred.", "/")
		return
	}
	h.renderReset(w, r, raw, nil)
}

func (h *Handler) renderReset(w http.ResponseWriter, r *http.Request, raw string, res *inputval.Result) {
	data := resetFormData{Token: raw, PasswordRules: authutil.PasswordRules()}
	formutil.SetBase(&data.Base, w, r, "Choose a new password", "/auth/login")
	data.SetErrors(res)
	templates.Render(w, r, "auth_reset", data)
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "token")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.resetUser(ctx, raw)
	if err != nil {
		if isTokenErr(err) {
			h.Sec.Request(r, seclog.InvalidToken, "", map[string]any{"purpose": "password_reset", "reason": err.Error()})
			h.fail(w, r, http.StatusBadRequest, tokenMessage(err, "password reset"), "/auth/forgot")
			return
		}
		h.ErrLog.LogServerError(w, r, "reset: load user", err, "A server error occurred.", "/")
		return
	}

	var in inputval.ResetPasswordInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "reset: decode body", err, "Invalid form data.", "/auth/reset/"+raw)
		return
	}
	if res.HasErrors() {
		if respond.WantsJSON(r) {
			inputval.Respond(w, r, res, h.Sessions, "")
			return
		}
		h.renderReset(w, r, raw, res)
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reset: hash password", err, "Unable to reset your password.", "/auth/forgot")
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		h.ErrLog.LogServerError(w, r, "reset: save password", err, "Unable to reset your password.", "/auth/forgot")
		return
	}
	// A reset link proves control of the inbox.
	if !u.IsVerified {
		if err := h.Users.MarkVerified(ctx, u.ID); err != nil {
			h.Log.Warn("reset: mark verified", zap.Error(err))
		}
	}
	if err := h.Tokens.BlacklistToken(ctx, raw); err != nil {
		h.Log.Warn("reset: blacklist token", zap.Error(err))
	}
	h.Sec.Request(r, seclog.PasswordChanged, u.ID.Hex(), map[string]any{"via": "reset"})

	h.done(w, r, "Your password has been reset. You can sign in now.", "/auth/login")
}
