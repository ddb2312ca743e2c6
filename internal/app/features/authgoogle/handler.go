// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/navigation"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Session keys for the in-flight OAuth exchange.
const (
	stateKey  = "oauth_state"
	returnKey = "oauth_return"
)

// DefaultUserInfoURL is Google's userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// SessionStarter signs a user in once Google has vouched for them.
type SessionStarter interface {
	StartSession(w http.ResponseWriter, r *http.Request, u models.User, provider, returnTo string)
}

// Handler handles Google OAuth authentication.
type Handler struct {
	Users    *userstore.Store
	Sessions *auth.SessionManager
	Starter  SessionStarter
	Sec      *seclog.Logger
	Log      *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://events.example.com/auth/google/callback"

	// Endpoint and UserInfoURL default to Google's; tests point them at a
	// local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	db *mongo.Database,
	sessions *auth.SessionManager,
	starter SessionStarter,
	sec *seclog.Logger,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:        userstore.New(db),
		Sessions:     sessions,
		Starter:      starter,
		Sec:          sec,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  DefaultUserInfoURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// toLogin flashes msg and sends the browser back to the sign-in page.
func (h *Handler) toLogin(w http.ResponseWriter, r *http.Request, msg string) {
	h.Sessions.Flash(w, r, auth.FlashError, msg)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                            |
| Redirects to Google's consent screen.                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.toLogin(w, r, "Google sign-in is not available.")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.toLogin(w, r, "Unable to start Google sign-in.")
		return
	}
	if err := h.Sessions.SetValue(w, r, stateKey, state); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.toLogin(w, r, "Unable to start Google sign-in.")
		return
	}
	if ret := navigation.LocalPath(query.Get(r, navigation.ReturnParam)); ret != "" {
		_ = h.Sessions.SetValue(w, r, returnKey, ret)
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                   |
| Exchanges the code, resolves or creates the user and signs them in.         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	expected := h.Sessions.PopValue(w, r, stateKey)
	returnTo := h.Sessions.PopValue(w, r, returnKey)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Info("Google OAuth declined", zap.String("error", errParam))
		h.toLogin(w, r, "Google sign-in was cancelled.")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" || expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		h.Sec.Request(r, seclog.InvalidToken, "", map[string]any{"purpose": "oauth_state"})
		h.toLogin(w, r, "Your Google sign-in expired. Please try again.")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.toLogin(w, r, "Google sign-in failed. Please try again.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Remote())
	defer cancel()

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.toLogin(w, r, "Google sign-in failed. Please try again.")
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.toLogin(w, r, "Google sign-in failed. Please try again.")
		return
	}
	if info.ID == "" || info.Email == "" || !info.EmailVerified {
		h.Sec.Request(r, seclog.LoginFailed, "", map[string]any{"provider": "google", "reason": "unverified google email"})
		h.toLogin(w, r, "Your Google account email is not verified.")
		return
	}

	dbctx, dbcancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer dbcancel()

	u, err := h.resolveUser(dbctx, info)
	if errors.Is(err, errUserDeleted) {
		h.Sec.Request(r, seclog.LoginFailed, u.ID.Hex(), map[string]any{"provider": "google", "reason": "account deleted"})
		h.toLogin(w, r, "This account is no longer active.")
		return
	}
	if err != nil {
		h.Log.Error("failed to resolve Google user", zap.Error(err), zap.String("email", info.Email))
		h.toLogin(w, r, "Google sign-in failed. Please try again.")
		return
	}

	h.Starter.StartSession(w, r, u, "google", returnTo)
}

/*─────────────────────────────────────────────────────────────────────────────*
| User lookup                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

var errUserDeleted = errors.New("user deleted")

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := h.oauth2Config().Client(ctx, token)

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// resolveUser finds the account for a Google identity. Users are matched by
// Google id first, then by email (which links the account). With no match a
// new verified account is created.
func (h *Handler) resolveUser(ctx context.Context, info *googleUserInfo) (models.User, error) {
	u, err := h.Users.GetByGoogleID(ctx, info.ID)
	if err == nil {
		if u.Deleted {
			return u, errUserDeleted
		}
		return u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, err
	}

	u, err = h.Users.GetByEmail(ctx, info.Email)
	if err == nil {
		if u.Deleted {
			return u, errUserDeleted
		}
		if err := h.Users.LinkGoogle(ctx, u.ID, info.ID); err != nil {
			return models.User{}, fmt.Errorf("link google: %w", err)
		}
		gid := info.ID
		u.GoogleID = &gid
		u.IsVerified = true
		return u, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, err
	}

	username, err := h.uniqueUsername(ctx, info.Email)
	if err != nil {
		return models.User{}, err
	}
	name := info.Name
	if strings.TrimSpace(name) == "" {
		name = username
	}
	gid := info.ID
	created, err := h.Users.Create(ctx, models.User{
		Name:       name,
		Username:   username,
		Email:      info.Email,
		Avatar:     info.Picture,
		Role:       models.RoleUser,
		IsVerified: true,
		GoogleID:   &gid,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("create google user: %w", err)
	}
	h.Log.Info("user created via Google sign-in",
		zap.String("user_id", created.ID.Hex()),
		zap.String("username", created.Username))
	return created, nil
}

var usernameStrip = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// baseUsername derives a username candidate from the local part of email.
func baseUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	base := usernameStrip.ReplaceAllString(local, "")
	if len(base) > 24 {
		base = base[:24]
	}
	for len(base) < 3 {
		base += "0"
	}
	return base
}

// uniqueUsername returns the first free name among base, base1, base2, ...
// falling back to a random suffix.
func (h *Handler) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := baseUsername(email)
	for i := 0; i < 20; i++ {
		candidate := base
		if i > 0 {
			candidate = base + strconv.Itoa(i)
		}
		taken, err := h.Users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return base + "-" + uuid.NewString()[:5], nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
