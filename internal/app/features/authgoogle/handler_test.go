package authgoogle_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dalemusser/eventportal/internal/app/features/authgoogle"
	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/indexes"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type fakeStarter struct {
	user     *models.User
	returnTo string
}

func (f *fakeStarter) StartSession(w http.ResponseWriter, r *http.Request, u models.User, provider, returnTo string) {
	f.user = &u
	f.returnTo = returnTo
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// fakeGoogle serves the token and userinfo endpoints.
func fakeGoogle(t *testing.T, info map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "google-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer google-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	h       *authgoogle.Handler
	db      *mongo.Database
	sec     *testutil.Security
	starter *fakeStarter
}

func newHarness(t *testing.T, info map[string]any) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	sec := testutil.NewSecurity(t)
	starter := &fakeStarter{}
	h := authgoogle.NewHandler(db, sec.Sessions, starter, sec.Sec, "client-id", "client-secret", "http://localhost:8080", zap.NewNop())

	srv := fakeGoogle(t, info)
	h.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	h.UserInfoURL = srv.URL + "/userinfo"
	return &harness{h: h, db: db, sec: sec, starter: starter}
}

// begin runs ServeLogin and returns the session cookies and the state sent
// to Google.
func (hs *harness) begin(t *testing.T, target string) ([]*http.Cookie, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	hs.h.ServeLogin(rec, httptest.NewRequest("GET", target, nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("ServeLogin status = %d, want 307", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if loc.Query().Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", loc.Query().Get("client_id"))
	}
	if loc.Query().Get("redirect_uri") != "http://localhost:8080/auth/google/callback" {
		t.Errorf("redirect_uri = %q", loc.Query().Get("redirect_uri"))
	}
	return rec.Result().Cookies(), loc.Query().Get("state")
}

func (hs *harness) callback(cookies []*http.Cookie, state string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/auth/google/callback?code=abc&state="+url.QueryEscape(state), nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	hs.h.ServeCallback(rec, req)
	return rec
}

func googleInfo(id, email string) map[string]any {
	return map[string]any{"id": id, "email": email, "verified_email": true, "name": "Gia Tran", "picture": "https://lh3.example/p.jpg"}
}

func TestIsConfigured(t *testing.T) {
	h := &authgoogle.Handler{ClientID: "id", ClientSecret: "secret"}
	if !h.IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}
	if (&authgoogle.Handler{ClientID: "id"}).IsConfigured() {
		t.Error("IsConfigured() should return false without a secret")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	sec := testutil.NewSecurity(t)
	h := &authgoogle.Handler{Sessions: sec.Sessions, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/auth/google", nil))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth/login" {
		t.Errorf("got %d → %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestCallback_CreatesVerifiedUser(t *testing.T) {
	hs := newHarness(t, googleInfo("g-100", "gia.tran@example.com"))

	cookies, state := hs.begin(t, "/auth/google?returnTo=/event")
	rec := hs.callback(cookies, state)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("callback status = %d, want 303", rec.Code)
	}
	if hs.starter.user == nil {
		t.Fatal("session was not started")
	}
	u := hs.starter.user
	if u.Username != "gia.tran" || !u.IsVerified || u.GoogleID == nil || *u.GoogleID != "g-100" {
		t.Errorf("created user = %+v", u)
	}
	if u.PasswordHash != nil {
		t.Error("Google users start without a password")
	}
	if hs.starter.returnTo != "/event" {
		t.Errorf("returnTo = %q, want /event", hs.starter.returnTo)
	}
}

func TestCallback_UniqueUsername(t *testing.T) {
	hs := newHarness(t, googleInfo("g-200", "sam@other.example"))
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, hs.db).CreateMember(ctx, "sam")

	cookies, state := hs.begin(t, "/auth/google")
	hs.callback(cookies, state)

	if hs.starter.user == nil || hs.starter.user.Username != "sam1" {
		t.Fatalf("user = %+v, want username sam1", hs.starter.user)
	}
}

func TestCallback_LinksExistingEmail(t *testing.T) {
	hs := newHarness(t, googleInfo("g-300", "lee@test.com"))
	ctx, cancel := testutil.TestContext()
	defer cancel()
	existing := testutil.NewFixtures(t, hs.db).CreateUnverifiedUser(ctx, "lee")

	cookies, state := hs.begin(t, "/auth/google")
	hs.callback(cookies, state)

	if hs.starter.user == nil || hs.starter.user.ID != existing.ID {
		t.Fatalf("expected existing user to be signed in, got %+v", hs.starter.user)
	}
	got, err := userstore.New(hs.db).GetByGoogleID(ctx, "g-300")
	if err != nil {
		t.Fatalf("account not linked: %v", err)
	}
	if !got.IsVerified {
		t.Error("linking Google should verify the account")
	}
}

func TestCallback_StateMismatch(t *testing.T) {
	hs := newHarness(t, googleInfo("g-400", "x@test.com"))

	cookies, _ := hs.begin(t, "/auth/google")
	rec := hs.callback(cookies, "forged-state")

	if rec.Header().Get("Location") != "/auth/login" {
		t.Errorf("Location = %q, want /auth/login", rec.Header().Get("Location"))
	}
	if hs.starter.user != nil {
		t.Error("no session should start on a state mismatch")
	}
}

func TestCallback_StateIsSingleUse(t *testing.T) {
	hs := newHarness(t, googleInfo("g-500", "once@test.com"))

	cookies, state := hs.begin(t, "/auth/google")
	first := hs.callback(cookies, state)
	if hs.starter.user == nil {
		t.Fatal("first callback should sign in")
	}
	hs.starter.user = nil

	// Replay with the cookies the first callback left behind.
	hs.callback(first.Result().Cookies(), state)
	if hs.starter.user != nil {
		t.Error("replayed state must be rejected")
	}
}

func TestCallback_UnverifiedGoogleEmail(t *testing.T) {
	info := googleInfo("g-600", "nv@test.com")
	info["verified_email"] = false
	hs := newHarness(t, info)

	cookies, state := hs.begin(t, "/auth/google")
	rec := hs.callback(cookies, state)

	if rec.Header().Get("Location") != "/auth/login" || hs.starter.user != nil {
		t.Errorf("unverified Google email should be refused: %q", rec.Header().Get("Location"))
	}
}

func TestCallback_Declined(t *testing.T) {
	hs := newHarness(t, googleInfo("g-700", "d@test.com"))

	rec := httptest.NewRecorder()
	hs.h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?error=access_denied", nil))

	if rec.Header().Get("Location") != "/auth/login" {
		t.Errorf("Location = %q", rec.Header().Get("Location"))
	}
}
