// internal/app/system/csrf/csrf.go
//
// Package csrf implements double-submit protection for state-changing
// requests. The token lives in the server session and is mirrored to a
// readable XSRF-TOKEN cookie so scripts can echo it in a header.
package csrf

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/eventportal/internal/app/system/navigation"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

const (
	SessionKey    = "csrf_token"
	CookieName    = "XSRF-TOKEN"
	FormField     = "_csrf"
	HeaderName    = "X-CSRF-Token"
	AltHeaderName = "X-XSRF-Token"

	tokenBytes = 32
)

// sensitiveMarkers are path fragments whose requests must also carry a
// same-host Referer.
var sensitiveMarkers = []string{"/admin", "/delete", "password"}

// Sessions is the slice of the session manager the protector needs.
type Sessions interface {
	Value(r *http.Request, key string) string
	SetValue(w http.ResponseWriter, r *http.Request, key, val string) error
	DeleteValue(w http.ResponseWriter, r *http.Request, key string) error
	Flash(w http.ResponseWriter, r *http.Request, kind, msg string)
}

// Protector issues and checks CSRF tokens.
type Protector struct {
	sessions Sessions
	sec      *seclog.Logger
	log      *zap.Logger
	secure   bool
}

// New returns a Protector storing tokens in s. secure marks the mirror
// cookie Secure.
func New(s Sessions, sec *seclog.Logger, logger *zap.Logger, secure bool) *Protector {
	return &Protector{sessions: s, sec: sec, log: logger, secure: secure}
}

type ctxKey struct{}

// Token returns the token placed in context by Middleware, for templates.
func Token(r *http.Request) string {
	t, _ := r.Context().Value(ctxKey{}).(string)
	return t
}

func newToken() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(tokenBytes))
}

func (p *Protector) cookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   p.secure,
		SameSite: http.SameSiteStrictMode,
	}
	if token == "" {
		c.MaxAge = -1
	}
	return c
}

// ensure returns the session token, creating and storing one if absent,
// and refreshes the mirror cookie when the browser's copy differs.
func (p *Protector) ensure(w http.ResponseWriter, r *http.Request) string {
	token := p.sessions.Value(r, SessionKey)
	if token == "" {
		token = newToken()
		if err := p.sessions.SetValue(w, r, SessionKey, token); err != nil {
			p.log.Warn("csrf: storing token failed", zap.Error(err))
		}
	}
	if c, err := r.Cookie(CookieName); err != nil || c.Value != token {
		http.SetCookie(w, p.cookie(token))
	}
	return token
}

// Middleware attaches a token to every request and verifies it on unsafe
// methods.
func (p *Protector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := p.ensure(w, r)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, token))

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		if reason := p.check(r, token); reason != "" {
			p.reject(w, r, reason)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// check returns "" when the request passes, otherwise the failure reason.
func (p *Protector) check(r *http.Request, token string) string {
	submitted := submittedToken(r)
	if submitted == "" {
		return "missing token"
	}
	if subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
		return "token mismatch"
	}
	if Sensitive(r.URL.Path) && !sameHostReferer(r) {
		return "referer mismatch"
	}
	return ""
}

// submittedToken looks in the headers, then the form body, then the cookie.
func submittedToken(r *http.Request) string {
	if v := r.Header.Get(HeaderName); v != "" {
		return v
	}
	if v := r.Header.Get(AltHeaderName); v != "" {
		return v
	}
	if isForm(r) {
		if v := r.FormValue(FormField); v != "" {
			return v
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

// Sensitive reports whether path needs the Referer check.
func Sensitive(path string) bool {
	lower := strings.ToLower(path)
	for _, m := range sensitiveMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func sameHostReferer(r *http.Request) bool {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (p *Protector) reject(w http.ResponseWriter, r *http.Request, reason string) {
	p.sec.Request(r, seclog.CSRFViolation, "", map[string]any{
		"path":   r.URL.Path,
		"method": r.Method,
		"reason": reason,
	})
	if respond.WantsJSON(r) {
		respond.Error(w, http.StatusForbidden, "Invalid or missing CSRF token.")
		return
	}
	p.sessions.Flash(w, r, "error", "Your form expired or was submitted from another site. Please try again.")
	http.Redirect(w, r, navigation.Referer(r, "/"), http.StatusSeeOther)
}

// Rotate replaces the session token, typically right after login.
func (p *Protector) Rotate(w http.ResponseWriter, r *http.Request) string {
	token := newToken()
	if err := p.sessions.SetValue(w, r, SessionKey, token); err != nil {
		p.log.Warn("csrf: rotating token failed", zap.Error(err))
	}
	http.SetCookie(w, p.cookie(token))
	return token
}

// Clear removes the token from the session and expires the mirror cookie.
func (p *Protector) Clear(w http.ResponseWriter, r *http.Request) {
	if err := p.sessions.DeleteValue(w, r, SessionKey); err != nil {
		p.log.Warn("csrf: clearing token failed", zap.Error(err))
	}
	http.SetCookie(w, p.cookie(""))
}
