package logout_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/eventportal/internal/app/features/logout"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/csrf"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*logout.Handler, *testutil.Security) {
	t.Helper()
	sec := testutil.NewSecurity(t)
	return logout.NewHandler(sec.Sessions, sec.Tokens, sec.CSRF, sec.Sec, false, zap.NewNop()), sec
}

func TestServeLogout_NoSession(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want %q", loc, "/")
	}
}

func TestServeLogout_HTMX(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest("POST", "/auth/logout", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	if hx := rec.Header().Get("HX-Redirect"); hx != "/" {
		t.Errorf("HX-Redirect: got %q, want %q", hx, "/")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d for HTMX, got %d", http.StatusOK, rec.Code)
	}
}

func TestServeLogout_RevokesTokenAndClearsCookies(t *testing.T) {
	h, sec := newTestHandler(t)

	u := models.User{ID: primitive.NewObjectID(), Username: "kim", Role: models.RoleUser, IsVerified: true}
	access := sec.AccessCookie(t, u)

	// Establish a session carrying a CSRF token.
	setupReq := httptest.NewRequest("GET", "/", nil)
	setupRec := httptest.NewRecorder()
	if err := sec.Sessions.SetValue(setupRec, setupReq, csrf.SessionKey, "tok"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	req := httptest.NewRequest("POST", "/auth/logout", nil)
	for _, c := range setupRec.Result().Cookies() {
		req.AddCookie(c)
	}
	req.AddCookie(access)
	req = auth.WithUser(req, auth.FromModel(u))

	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	res := rec.Result()
	if c := testutil.Cookie(res, tokens.CookieName); c == nil || c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("access cookie not cleared: %+v", c)
	}
	if c := testutil.Cookie(res, csrf.CookieName); c == nil || c.Value != "" {
		t.Errorf("csrf cookie not cleared: %+v", c)
	}
	if c := testutil.Cookie(res, auth.DefaultSessionName); c == nil || c.MaxAge != -1 {
		t.Errorf("session cookie not expired: %+v", c)
	}

	if _, err := sec.Tokens.VerifyToken(context.Background(), access.Value, tokens.TypeAccess); err != tokens.ErrTokenBlacklisted {
		t.Errorf("token after logout: err = %v, want blacklisted", err)
	}
	if !sec.Logged(seclog.Logout) {
		t.Error("expected LOGOUT security event")
	}
}
