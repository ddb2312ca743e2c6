// internal/app/features/logout/handler.go
package logout

import (
	"context"
	"net/http"

	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/csrf"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Tokens     *tokens.Manager
	CSRF       *csrf.Protector
	Sec        *seclog.Logger
	Secure     bool
}

func NewHandler(sessionMgr *auth.SessionManager, tm *tokens.Manager, csrfProt *csrf.Protector, sec *seclog.Logger, secure bool, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Tokens:     tm,
		CSRF:       csrfProt,
		Sec:        sec,
		Secure:     secure,
	}
}

// ServeLogout revokes the access token, clears the auth and CSRF cookies and
// ends the session. It is safe to call without a session.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if u, ok := auth.CurrentUser(r); ok {
		userID = u.ID
	}

	if c, err := r.Cookie(tokens.CookieName); err == nil && c.Value != "" && h.Tokens != nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		if err := h.Tokens.BlacklistToken(ctx, c.Value); err != nil {
			// The cookie is still cleared below; the token lives until expiry.
			h.Log.Warn("logout: blacklist token", zap.Error(err))
		} else {
			h.Sec.Request(r, seclog.TokenBlacklisted, userID, map[string]any{"reason": "logout"})
		}
		cancel()
	}
	http.SetCookie(w, tokens.ClearAccessCookie(h.Secure))

	if h.CSRF != nil {
		h.CSRF.Clear(w, r)
	}
	h.SessionMgr.Destroy(w, r)

	if userID != "" {
		h.Sec.Request(r, seclog.Logout, userID, nil)
	}

	// HTMX needs HX-Redirect to force a client-side navigation.
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
