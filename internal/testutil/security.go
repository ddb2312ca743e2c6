package testutil

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/csrf"
	"github.com/dalemusser/eventportal/internal/app/system/mailer"
	"github.com/dalemusser/eventportal/internal/app/system/ratelimit"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"github.com/dalemusser/eventportal/internal/app/system/ttlstore"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.uber.org/zap"
)

// TestJWTSecret and TestSessionKey are long enough to pass config validation.
const (
	TestJWTSecret  = "test-jwt-secret-0123456789abcdef0123456789"
	TestSessionKey = "test-session-key-0123456789abcdef012345678"
)

// Security bundles the request-security components handlers depend on,
// all backed by one in-memory TTL store.
type Security struct {
	Store    *ttlstore.Memory
	Tokens   *tokens.Manager
	Sessions *auth.SessionManager
	CSRF     *csrf.Protector
	Limiter  *ratelimit.Limiter
	Guard    *ratelimit.LoginGuard
	Sec      *seclog.Logger
	SecLog   *bytes.Buffer // NDJSON written by Sec
}

// NewSecurity builds a Security for tests.
func NewSecurity(t *testing.T) *Security {
	t.Helper()
	logger := zap.NewNop()
	store := ttlstore.NewMemory()
	buf := &bytes.Buffer{}
	sec := seclog.NewWithWriter(buf, logger)

	sessions, err := auth.NewSessionManager(TestSessionKey, auth.DefaultSessionName, "", auth.DefaultSessionMaxAge, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return &Security{
		Store:    store,
		Tokens:   tokens.NewManager(TestJWTSecret, tokens.NewBlacklist(store)),
		Sessions: sessions,
		CSRF:     csrf.New(sessions, sec, logger, false),
		Limiter:  ratelimit.New(store, sec, logger),
		Guard:    ratelimit.NewLoginGuard(store),
		Sec:      sec,
		SecLog:   buf,
	}
}

// AccessCookie returns a valid access-token cookie for u.
func (s *Security) AccessCookie(t *testing.T, u models.User) *http.Cookie {
	t.Helper()
	tok, err := s.Tokens.GenerateAccessToken(u)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	return tokens.AccessCookie(tok, false)
}

// Logged reports whether a security event of type typ was written.
func (s *Security) Logged(typ seclog.EventType) bool {
	return strings.Contains(s.SecLog.String(), `"`+string(typ)+`"`)
}

// RecordingMailer captures sent emails.
type RecordingMailer struct {
	mu   sync.Mutex
	Sent []mailer.Email
	Err  error
}

func (m *RecordingMailer) Send(_ context.Context, e mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, e)
	return m.Err
}

// Last returns the most recent email, or a zero Email.
func (m *RecordingMailer) Last() mailer.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return mailer.Email{}
	}
	return m.Sent[len(m.Sent)-1]
}

// Count returns the number of emails sent.
func (m *RecordingMailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Cookie finds a response cookie by name. When the response sets it more
// than once the last one wins, as in a browser.
func Cookie(res *http.Response, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

// Later is a deadline well in the future, for recruitments.
func Later() time.Time { return time.Now().Add(7 * 24 * time.Hour) }
