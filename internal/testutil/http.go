package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUser returns a session user with the admin role.
func AdminUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:         primitive.NewObjectID().Hex(),
		Name:       "Test Admin",
		Username:   "testadmin",
		Email:      "admin@test.com",
		Role:       models.RoleAdmin,
		IsVerified: true,
	}
}

// MemberUser returns a session user with the user role.
func MemberUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:         primitive.NewObjectID().Hex(),
		Name:       "Test User",
		Username:   "testuser",
		Email:      "user@test.com",
		Role:       models.RoleUser,
		IsVerified: true,
	}
}

// ModeratorUser returns a regular user who moderates the given clubs.
func ModeratorUser(clubs ...primitive.ObjectID) *auth.SessionUser {
	u := MemberUser()
	u.Name, u.Username, u.Email = "Test Moderator", "testmod", "mod@test.com"
	for _, c := range clubs {
		u.ModeratorOf = append(u.ModeratorOf, c.Hex())
	}
	return u
}

// SessionFor converts a stored user into its session form.
func SessionFor(u models.User) *auth.SessionUser {
	return auth.FromModel(u)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user *auth.SessionUser) *http.Request {
	return auth.WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewFormRequest creates a urlencoded POST-style request.
func NewFormRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// NewJSONRequest creates a request with a JSON body that asks for JSON back.
func NewJSONRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	if location := r.Header().Get("Location"); location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
