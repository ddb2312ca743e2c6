package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"github.com/dalemusser/eventportal/internal/app/system/ttlstore"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("protected content"))
	})
}

func withTestUser(r *http.Request, role string, moderates ...string) *http.Request {
	return auth.WithUser(r, &auth.SessionUser{
		ID:          primitive.NewObjectID().Hex(),
		Name:        "Test User",
		Username:    "tester",
		Email:       "test@example.com",
		Role:        role,
		IsVerified:  true,
		ModeratorOf: moderates,
	})
}

func TestRequireSignedIn_NoUser_RedirectsToLogin(t *testing.T) {
	req := httptest.NewRequest("GET", "/user/ann/edit?tab=1", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	auth.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	want := "/auth/login?returnTo=%2Fuser%2Fann%2Fedit%3Ftab%3D1"
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func TestRequireSignedIn_NoUser_API_Returns401(t *testing.T) {
	req := httptest.NewRequest("GET", "/event", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	auth.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("expected JSON error body, got %q", rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		signedIn bool
		json     bool
		allowed  []string
		want     int
		location string
	}{
		{"no user html", "", false, false, []string{"admin"}, http.StatusSeeOther, "/auth/login"},
		{"no user api", "", false, true, []string{"admin"}, http.StatusUnauthorized, ""},
		{"wrong role html", "user", true, false, []string{"admin"}, http.StatusSeeOther, "/forbidden"},
		{"wrong role api", "user", true, true, []string{"admin"}, http.StatusForbidden, ""},
		{"correct role", "admin", true, false, []string{"admin"}, http.StatusOK, ""},
		{"one of many", "user", true, false, []string{"admin", "user"}, http.StatusOK, ""},
		{"case insensitive", "ADMIN", true, false, []string{"admin"}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.json {
				req.Header.Set("Accept", "application/json")
			} else {
				req.Header.Set("Accept", "text/html")
			}
			if tt.signedIn {
				req = withTestUser(req, tt.role)
			}
			rec := httptest.NewRecorder()
			auth.RequireRole(tt.allowed...)(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.location != "" && !strings.HasPrefix(rec.Header().Get("Location"), tt.location) {
				t.Errorf("Location = %q, want prefix %q", rec.Header().Get("Location"), tt.location)
			}
		})
	}
}

func TestRequireClubManager(t *testing.T) {
	club := primitive.NewObjectID().Hex()
	other := primitive.NewObjectID().Hex()

	tests := []struct {
		name string
		req  func(*http.Request) *http.Request
		want int
	}{
		{"admin", func(r *http.Request) *http.Request { return withTestUser(r, "admin") }, http.StatusOK},
		{"moderator", func(r *http.Request) *http.Request { return withTestUser(r, "user", club) }, http.StatusOK},
		{"other moderator", func(r *http.Request) *http.Request { return withTestUser(r, "user", other) }, http.StatusForbidden},
		{"guest", func(r *http.Request) *http.Request { return r }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.With(auth.RequireClubManager("id")).Post("/club/{id}/gallery", okHandler().ServeHTTP)

			req := httptest.NewRequest("POST", "/club/"+club+"/gallery", nil)
			req.Header.Set("Accept", "application/json")
			req = tt.req(req)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if u, ok := auth.CurrentUser(req); ok || u != nil {
		t.Errorf("expected no user, got %+v", u)
	}

	req = withTestUser(req, "admin")
	u, ok := auth.CurrentUser(req)
	if !ok {
		t.Fatal("expected a user")
	}
	if !u.IsAdmin() || u.Username != "tester" {
		t.Errorf("unexpected user %+v", u)
	}
	if u.ObjectID().IsZero() {
		t.Error("ObjectID is zero")
	}
}

func TestFromModel(t *testing.T) {
	club := primitive.NewObjectID()
	m := models.User{
		ID:          primitive.NewObjectID(),
		Name:        "Ann",
		Username:    "ann",
		Email:       "ann@example.com",
		Role:        models.RoleUser,
		IsVerified:  true,
		ModeratorOf: []primitive.ObjectID{club},
	}
	u := auth.FromModel(m)
	if u.ID != m.ID.Hex() || !u.Moderates(club.Hex()) || !u.IsModerator() {
		t.Errorf("FromModel = %+v", u)
	}
	if u.IsAdmin() {
		t.Error("user reported as admin")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Authenticator                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type fakeUsers map[primitive.ObjectID]models.User

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u, ok := f[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

// failingUsers stands in for an unreachable database.
type failingUsers struct{}

func (failingUsers) GetByID(context.Context, primitive.ObjectID) (models.User, error) {
	return models.User{}, errors.New("server selection error: context deadline exceeded")
}

func newAuthenticator(users auth.Users) (*auth.Authenticator, *tokens.Manager) {
	tm := tokens.NewManager("test-secret-that-is-long-enough-123456", tokens.NewBlacklist(ttlstore.NewMemory()))
	return auth.NewAuthenticator(tm, users, nil, zap.NewNop(), false), tm
}

func userFixture(mut func(*models.User)) models.User {
	u := models.User{
		ID:         primitive.NewObjectID(),
		Name:       "Ann",
		Username:   "ann",
		Email:      "ann@example.com",
		Role:       models.RoleUser,
		IsVerified: true,
	}
	if mut != nil {
		mut(&u)
	}
	return u
}

func requestWithToken(t *testing.T, tm *tokens.Manager, u models.User) *http.Request {
	t.Helper()
	tok, err := tm.GenerateAccessToken(u)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	req := httptest.NewRequest("GET", "/user/ann/edit", nil)
	req.AddCookie(&http.Cookie{Name: tokens.CookieName, Value: tok})
	return req
}

func TestRequireAuth_ValidToken(t *testing.T) {
	u := userFixture(nil)
	a, tm := newAuthenticator(fakeUsers{u.ID: u})

	var seen *auth.SessionUser
	h := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.CurrentUser(r)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken(t, tm, u))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if seen == nil || seen.ID != u.ID.Hex() {
		t.Errorf("user in context = %+v", seen)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	unverified := userFixture(func(u *models.User) { u.IsVerified = false })
	deleted := userFixture(func(u *models.User) { u.Deleted = true })
	missing := userFixture(nil)

	a, tm := newAuthenticator(fakeUsers{unverified.ID: unverified, deleted.ID: deleted})

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"unverified", requestWithToken(t, tm, unverified)},
		{"deleted", requestWithToken(t, tm, deleted)},
		{"missing account", requestWithToken(t, tm, missing)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.RequireAuth(okHandler()).ServeHTTP(rec, c.req)
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303", rec.Code)
			}
			if !strings.HasPrefix(rec.Header().Get("Location"), "/auth/login?returnTo=") {
				t.Errorf("Location = %q", rec.Header().Get("Location"))
			}
			if !strings.Contains(rec.Header().Get("Set-Cookie"), tokens.CookieName+"=;") {
				t.Errorf("expected token cookie cleared, got %q", rec.Header().Get("Set-Cookie"))
			}
		})
	}
}

func TestRequireAuth_LookupFailureKeepsCookie(t *testing.T) {
	u := userFixture(nil)
	a, tm := newAuthenticator(failingUsers{})

	tests := []struct {
		name   string
		accept string
	}{
		{"html", "text/html"},
		{"json", "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithToken(t, tm, u)
			req.Header.Set("Accept", tt.accept)
			rec := httptest.NewRecorder()
			a.RequireAuth(okHandler()).ServeHTTP(rec, req)

			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", rec.Code)
			}
			if sc := rec.Header().Get("Set-Cookie"); sc != "" {
				t.Errorf("token cookie touched on lookup failure: %q", sc)
			}
			if rec.Header().Get("Location") != "" {
				t.Errorf("unexpected redirect to %q", rec.Header().Get("Location"))
			}
		})
	}
}

func TestResolve_ErrorKinds(t *testing.T) {
	u := userFixture(nil)

	a, tm := newAuthenticator(failingUsers{})
	if _, err := a.Resolve(requestWithToken(t, tm, u)); !errors.Is(err, auth.ErrAccountLookup) {
		t.Errorf("failing store: err = %v, want ErrAccountLookup", err)
	}

	a, tm = newAuthenticator(fakeUsers{})
	_, err := a.Resolve(requestWithToken(t, tm, u))
	if err == nil || errors.Is(err, auth.ErrAccountLookup) {
		t.Errorf("missing account: err = %v, want a not-found error", err)
	}
}

func TestLoadOptional_LookupFailureIsGuest(t *testing.T) {
	u := userFixture(nil)
	a, tm := newAuthenticator(failingUsers{})

	var gotUser bool
	h := a.LoadOptional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, gotUser = auth.CurrentUser(r)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken(t, tm, u))
	if rec.Code != http.StatusOK || gotUser {
		t.Errorf("status %d user %v, want guest 200", rec.Code, gotUser)
	}
	if sc := rec.Header().Get("Set-Cookie"); sc != "" {
		t.Errorf("unexpected Set-Cookie %q", sc)
	}
}

func TestRequireAuth_BlacklistedToken(t *testing.T) {
	u := userFixture(nil)
	a, tm := newAuthenticator(fakeUsers{u.ID: u})

	req := requestWithToken(t, tm, u)
	c, _ := req.Cookie(tokens.CookieName)
	if err := tm.BlacklistToken(context.Background(), c.Value); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	rec := httptest.NewRecorder()
	a.RequireAuth(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoadOptional(t *testing.T) {
	u := userFixture(nil)
	a, tm := newAuthenticator(fakeUsers{u.ID: u})

	var gotUser bool
	h := a.LoadOptional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, gotUser = auth.CurrentUser(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken(t, tm, u))
	if !gotUser {
		t.Error("expected user with valid token")
	}

	bad := httptest.NewRequest("GET", "/club", nil)
	bad.AddCookie(&http.Cookie{Name: tokens.CookieName, Value: "garbage"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, bad)
	if rec.Code != http.StatusOK || gotUser {
		t.Errorf("guest fallthrough failed: status %d user %v", rec.Code, gotUser)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sessions                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// carryCookies copies the last Set-Cookie value per name from rec onto a
// new request, the way a browser would.
func carryCookies(rec *httptest.ResponseRecorder, method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	last := map[string]*http.Cookie{}
	var order []string
	for _, c := range rec.Result().Cookies() {
		if _, seen := last[c.Name]; !seen {
			order = append(order, c.Name)
		}
		last[c.Name] = c
	}
	for _, name := range order {
		req.AddCookie(last[name])
	}
	return req
}

func TestSessionManager_FlashRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/club", nil)
	sm.Flash(rec, req, auth.FlashSuccess, "Club created.")
	sm.Flash(rec, req, auth.FlashError, "Image upload failed.")

	next := carryCookies(rec, "GET", "/club")
	rec2 := httptest.NewRecorder()
	flashes := sm.Flashes(rec2, next)
	if len(flashes) != 2 {
		t.Fatalf("got %d flashes, want 2: %+v", len(flashes), flashes)
	}
	if flashes[0].Kind != auth.FlashSuccess || flashes[0].Message != "Club created." {
		t.Errorf("first flash = %+v", flashes[0])
	}

	// drained
	again := carryCookies(rec2, "GET", "/club")
	if got := sm.Flashes(httptest.NewRecorder(), again); len(got) != 0 {
		t.Errorf("flashes not drained: %+v", got)
	}
}

func TestSessionManager_Values(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/auth/google", nil)
	if err := sm.SetValue(rec, req, "oauth_state", "abc"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	next := carryCookies(rec, "GET", "/auth/google/callback")
	if got := sm.Value(next, "oauth_state"); got != "abc" {
		t.Errorf("Value = %q", got)
	}
	rec2 := httptest.NewRecorder()
	if got := sm.PopValue(rec2, next, "oauth_state"); got != "abc" {
		t.Errorf("PopValue = %q", got)
	}
	after := carryCookies(rec2, "GET", "/")
	if got := sm.Value(after, "oauth_state"); got != "" {
		t.Errorf("value survived PopValue: %q", got)
	}
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty key")
	}
}
