// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/authutil"
	"github.com/dalemusser/eventportal/internal/app/system/formutil"
	"github.com/dalemusser/eventportal/internal/app/system/inputval"
	"github.com/dalemusser/eventportal/internal/app/system/navigation"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// errBadCredentials is shown for unknown accounts and wrong passwords alike.
const errBadCredentials = "Invalid username/email or password."

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/login                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, loginFormData{ReturnTo: navigation.LocalPath(query.Get(r, navigation.ReturnParam))}, "")
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, data loginFormData, errMsg string) {
	data.GoogleEnabled = h.GoogleEnabled
	formutil.SetBase(&data.Base, w, r, "Sign in", "/")
	if errMsg != "" {
		data.SetError(errMsg)
	}
	templates.Render(w, r, "auth_login", data)
}

// loginFailed answers a rejected sign-in: 401 JSON or the form again.
func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, in inputval.LoginInput, msg string, showResend bool) {
	if respond.WantsJSON(r) {
		status := http.StatusUnauthorized
		if showResend {
			status = http.StatusForbidden
		}
		respond.Error(w, status, msg)
		return
	}
	h.renderLogin(w, r, loginFormData{
		Identifier: in.Identifier,
		ReturnTo:   navigation.LocalPath(in.ReturnTo),
		ShowResend: showResend,
	}, msg)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/login                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in inputval.LoginInput
	res, err := inputval.Bind(r, &in)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "login: decode body", err, "Invalid form data.", "/auth/login")
		return
	}
	if res.HasErrors() {
		if respond.WantsJSON(r) {
			inputval.Respond(w, r, res, h.Sessions, "/auth/login")
			return
		}
		h.loginFailed(w, r, in, res.First(), false)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	/*── account lock ─────────────────────────────────────────────────────────*/

	locked, until, err := h.Guard.Locked(ctx, in.Identifier)
	if err != nil {
		h.Log.Warn("login guard lookup failed", zap.Error(err))
	}
	if locked {
		h.Sec.Request(r, seclog.AccountLocked, "", map[string]any{"identifier": in.Identifier})
		h.loginFailed(w, r, in, fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", minutesUntil(until)), false)
		return
	}

	/*── look-up by username or email ─────────────────────────────────────────*/

	u, err := h.Users.GetByIdentifier(ctx, in.Identifier)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.failedAttempt(ctx, r, in, "", "user not found")
		h.loginFailed(w, r, in, errBadCredentials, false)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "login: find user", err, "A server error occurred.", "/auth/login")
		return
	}

	if u.PasswordHash == nil {
		h.failedAttempt(ctx, r, in, u.ID.Hex(), "no password set")
		msg := errBadCredentials
		if u.GoogleID != nil && h.GoogleEnabled {
			msg = "This account signs in with Google."
		}
		h.loginFailed(w, r, in, msg, false)
		return
	}
	if !authutil.ComparePassword(in.Password, *u.PasswordHash) {
		h.failedAttempt(ctx, r, in, u.ID.Hex(), "wrong password")
		h.loginFailed(w, r, in, errBadCredentials, false)
		return
	}

	if !u.IsVerified {
		h.loginFailed(w, r, in, "Please verify your email before signing in.", true)
		return
	}

	if err := h.Guard.Succeed(ctx, in.Identifier); err != nil {
		h.Log.Warn("login guard reset failed", zap.Error(err))
	}
	h.startSession(w, r, u, "password", in.ReturnTo)
}

// failedAttempt records a failure against the identifier and logs it.
func (h *Handler) failedAttempt(ctx context.Context, r *http.Request, in inputval.LoginInput, userID, reason string) {
	h.Sec.Request(r, seclog.LoginFailed, userID, map[string]any{"identifier": in.Identifier, "reason": reason})
	nowLocked, err := h.Guard.Fail(ctx, in.Identifier)
	if err != nil {
		h.Log.Warn("login guard update failed", zap.Error(err))
		return
	}
	if nowLocked {
		h.Sec.Request(r, seclog.AccountLocked, userID, map[string]any{"identifier": in.Identifier})
	}
}

// startSession issues the access cookie and sends the user on. It is also
// used by the Google callback through StartSession.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u models.User, provider, returnTo string) {
	tok, err := h.Tokens.GenerateAccessToken(u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: sign access token", err, "Unable to sign you in.", "/auth/login")
		return
	}
	http.SetCookie(w, tokens.AccessCookie(tok, h.Secure))
	if h.CSRF != nil {
		h.CSRF.Rotate(w, r)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Logins.CreateFrom(ctx, r, u, provider); err != nil {
		h.Log.Warn("record login failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}

	h.Sec.Request(r, seclog.LoginSuccess, u.ID.Hex(), map[string]any{"provider": provider})

	dest := navigation.LocalPath(returnTo)
	if dest == "" {
		dest = "/"
	}
	h.done(w, r, "Welcome back, "+u.Name+".", dest)
}

// StartSession signs u in after an external provider has authenticated them.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request, u models.User, provider, returnTo string) {
	h.startSession(w, r, u, provider, returnTo)
}
