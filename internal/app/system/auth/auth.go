// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated principal placed in r.Context().
type SessionUser struct {
	ID          string
	Name        string
	Username    string
	Email       string
	Role        string
	Avatar      string
	IsVerified  bool
	ModeratorOf []string
}

// IsAdmin reports whether the user holds the admin role.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, models.RoleAdmin)
}

// Moderates reports whether the user moderates the club with hex id clubID.
func (u *SessionUser) Moderates(clubID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.ModeratorOf {
		if id == clubID {
			return true
		}
	}
	return false
}

// CanManageClub reports whether the user is an admin or moderates clubID.
func (u *SessionUser) CanManageClub(clubID string) bool {
	return u.IsAdmin() || u.Moderates(clubID)
}

// IsModerator reports whether the user moderates any club.
func (u *SessionUser) IsModerator() bool {
	return u != nil && len(u.ModeratorOf) > 0
}

// ObjectID returns the user id as an ObjectID (zero when malformed).
func (u *SessionUser) ObjectID() primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(u.ID)
	return oid
}

// FromModel builds the context principal from a stored user.
func FromModel(m models.User) *SessionUser {
	mods := make([]string, 0, len(m.ModeratorOf))
	for _, id := range m.ModeratorOf {
		mods = append(mods, id.Hex())
	}
	return &SessionUser{
		ID:          m.ID.Hex(),
		Name:        m.Name,
		Username:    m.Username,
		Email:       m.Email,
		Role:        m.Role,
		Avatar:      m.Avatar,
		IsVerified:  m.IsVerified,
		ModeratorOf: mods,
	}
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithUser returns a copy of r carrying u.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Token resolution                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// Users loads accounts by id.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

var (
	errNoToken    = errors.New("no access token")
	errNoAccount  = errors.New("account not found")
	errUnverified = errors.New("account not verified")

	// ErrAccountLookup reports that the account could not be loaded for a
	// reason other than its absence. The token itself may be fine.
	ErrAccountLookup = errors.New("account lookup failed")
)

// Authenticator resolves the access-token cookie into a SessionUser.
type Authenticator struct {
	Tokens *tokens.Manager
	Users  Users
	Sec    *seclog.Logger
	Log    *zap.Logger
	Secure bool
}

// NewAuthenticator wires token verification to account lookup.
func NewAuthenticator(tm *tokens.Manager, users Users, sec *seclog.Logger, logger *zap.Logger, secure bool) *Authenticator {
	return &Authenticator{Tokens: tm, Users: users, Sec: sec, Log: logger, Secure: secure}
}

// Resolve verifies the request's access token and loads its account. The
// account must exist, be verified and not be deleted.
func (a *Authenticator) Resolve(r *http.Request) (*SessionUser, error) {
	c, err := r.Cookie(tokens.CookieName)
	if err != nil || c.Value == "" {
		return nil, errNoToken
	}
	claims, err := a.Tokens.VerifyToken(r.Context(), c.Value, tokens.TypeAccess)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, tokens.ErrTokenInvalid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := a.Users.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errNoAccount
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountLookup, err)
	}
	if u.Deleted {
		return nil, errNoAccount
	}
	if !u.IsVerified {
		return nil, errUnverified
	}
	return FromModel(u), nil
}

// RequireAuth admits only requests with a valid access token for an active,
// verified account. Others get the cookie cleared and are sent to login
// (HTML) or answered 401 (JSON).
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.Resolve(r)
		if errors.Is(err, ErrAccountLookup) {
			a.Log.Error("auth: account lookup failed", zap.Error(err))
			unavailable(w, r)
			return
		}
		if err != nil {
			a.noteFailure(r, err)
			if !errors.Is(err, errNoToken) {
				http.SetCookie(w, tokens.ClearAccessCookie(a.Secure))
			}
			unauthorized(w, r, messageFor(err))
			return
		}
		next.ServeHTTP(w, WithUser(r, u))
	})
}

// LoadOptional places the user in context when the token resolves and
// otherwise continues as a guest.
func (a *Authenticator) LoadOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.Resolve(r)
		if err != nil {
			switch {
			case errors.Is(err, ErrAccountLookup):
				a.Log.Warn("optional auth: account lookup failed, continuing as guest", zap.Error(err))
			case !errors.Is(err, errNoToken):
				a.Log.Debug("optional auth: continuing as guest", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, WithUser(r, u))
	})
}

func (a *Authenticator) noteFailure(r *http.Request, err error) {
	switch {
	case errors.Is(err, errNoToken):
		a.Sec.Request(r, seclog.UnauthorizedAccess, "", map[string]any{"path": r.URL.Path})
	case errors.Is(err, tokens.ErrTokenBlacklisted):
		a.Sec.Request(r, seclog.TokenBlacklisted, "", map[string]any{"path": r.URL.Path})
	case errors.Is(err, tokens.ErrTokenInvalid), errors.Is(err, tokens.ErrTokenTypeMismatch):
		a.Sec.Request(r, seclog.InvalidToken, "", map[string]any{"path": r.URL.Path, "reason": err.Error()})
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, tokens.ErrTokenExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, errUnverified):
		return "Please verify your email before continuing."
	default:
		return "Please log in to continue."
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Guards                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// RequireSignedIn ensures a user is in context (set by RequireAuth or
// LoadOptional).
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r, "Please log in to continue.")
	})
}

// RequireRole ensures the user in context holds one of the allowed roles.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				unauthorized(w, r, "Please log in to continue.")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireClubManager admits admins and moderators of the club whose hex id
// is in the route parameter param.
func RequireClubManager(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				unauthorized(w, r, "Please log in to continue.")
				return
			}
			if !u.CanManageClub(chi.URLParam(r, param)) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginURL returns the login page URL that returns to the current request.
func LoginURL(r *http.Request) string {
	return "/auth/login?returnTo=" + url.QueryEscape(r.URL.RequestURI())
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	if respond.WantsJSON(r) {
		respond.Error(w, http.StatusUnauthorized, msg)
		return
	}
	http.Redirect(w, r, LoginURL(r), http.StatusSeeOther)
}

func unavailable(w http.ResponseWriter, r *http.Request) {
	const msg = "The service is temporarily unavailable. Please try again."
	w.Header().Set("Retry-After", "5")
	if respond.WantsJSON(r) {
		respond.Error(w, http.StatusServiceUnavailable, msg)
		return
	}
	http.Error(w, msg, http.StatusServiceUnavailable)
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if respond.WantsJSON(r) {
		respond.Error(w, http.StatusForbidden, "You do not have permission to do that.")
		return
	}
	http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
}
