// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "guest", "", NilObjectID, false. ok=true means a valid, authenticated user
// with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "guest", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in context: fail closed.
		return "guest", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// CanManageClub reports whether the current user is an admin or moderates clubID.
func CanManageClub(r *http.Request, clubID primitive.ObjectID) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.CanManageClub(clubID.Hex())
}

// CanEditUser reports whether the current user owns the profile or is an admin.
func CanEditUser(r *http.Request, target models.User) bool {
	_, _, id, ok := UserCtx(r)
	if !ok {
		return false
	}
	return id == target.ID || IsAdmin(r)
}

// CanDeleteEvent reports whether the current user created the event or is an admin.
func CanDeleteEvent(r *http.Request, e models.Event) bool {
	_, _, id, ok := UserCtx(r)
	if !ok {
		return false
	}
	return id == e.CreatedBy || IsAdmin(r)
}

// CanPostAnnouncement reports whether the current user may post to club.
// Site-wide announcements (nil club) are admin-only.
func CanPostAnnouncement(r *http.Request, club *primitive.ObjectID) bool {
	if IsAdmin(r) {
		return true
	}
	if club == nil {
		return false
	}
	return CanManageClub(r, *club)
}

// CanDeleteAnnouncement reports whether the current user posted a or is an admin.
func CanDeleteAnnouncement(r *http.Request, a models.Announcement) bool {
	_, _, id, ok := UserCtx(r)
	if !ok {
		return false
	}
	return id == a.PostedBy || IsAdmin(r)
}
