// internal/app/system/auth/session.go
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// DefaultSessionName is the cookie that carries flash, CSRF and OAuth state.
const DefaultSessionName = "eventportal-session"

// DefaultSessionMaxAge is how long the session cookie lives.
const DefaultSessionMaxAge = 7 * 24 * time.Hour

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

var flashKinds = []string{FlashSuccess, FlashError, FlashInfo}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// SessionManager wraps a gorilla cookie store. Authentication itself lives
// in the JWT cookie; the session only holds short-lived UI and CSRF state.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	secure bool
	log    *zap.Logger
}

// NewSessionManager builds a cookie-backed session store. sessionKey signs
// the cookie and must not be empty.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		// Lax so the OAuth callback (a cross-site top-level GET) still
		// carries the state value.
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, secure: secure, log: logger}, nil
}

// Secure reports whether cookies are issued with the Secure flag.
func (sm *SessionManager) Secure() bool { return sm.secure }

// Name returns the session cookie name.
func (sm *SessionManager) Name() string { return sm.name }

// Get returns the request's session. A cookie that fails to decode yields
// a fresh session.
func (sm *SessionManager) Get(r *http.Request) *sessions.Session {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sm.log.Debug("session decode failed; starting fresh", zap.Error(err))
	}
	return sess
}

// Value returns the string stored under key, or "".
func (sm *SessionManager) Value(r *http.Request, key string) string {
	v, _ := sm.Get(r).Values[key].(string)
	return v
}

// SetValue stores val under key and saves the session.
func (sm *SessionManager) SetValue(w http.ResponseWriter, r *http.Request, key, val string) error {
	sess := sm.Get(r)
	sess.Values[key] = val
	return sess.Save(r, w)
}

// PopValue returns the value under key and removes it.
func (sm *SessionManager) PopValue(w http.ResponseWriter, r *http.Request, key string) string {
	sess := sm.Get(r)
	v, _ := sess.Values[key].(string)
	if _, ok := sess.Values[key]; ok {
		delete(sess.Values, key)
		if err := sess.Save(r, w); err != nil {
			sm.log.Warn("session save failed", zap.Error(err))
		}
	}
	return v
}

// DeleteValue removes key from the session.
func (sm *SessionManager) DeleteValue(w http.ResponseWriter, r *http.Request, key string) error {
	sess := sm.Get(r)
	delete(sess.Values, key)
	return sess.Save(r, w)
}

// Flash queues msg for the next page render.
func (sm *SessionManager) Flash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	sess := sm.Get(r)
	sess.AddFlash(msg, "_flash_"+kind)
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("flash save failed", zap.Error(err))
	}
}

// Flashes drains every queued flash message.
func (sm *SessionManager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := sm.Get(r)
	var out []Flash
	for _, kind := range flashKinds {
		for _, f := range sess.Flashes("_flash_" + kind) {
			if msg, ok := f.(string); ok {
				out = append(out, Flash{Kind: kind, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		if err := sess.Save(r, w); err != nil {
			sm.log.Warn("flash save failed", zap.Error(err))
		}
	}
	return out
}

// Destroy expires the session cookie.
func (sm *SessionManager) Destroy(w http.ResponseWriter, r *http.Request) {
	sess := sm.Get(r)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("session destroy failed", zap.Error(err))
	}
}
