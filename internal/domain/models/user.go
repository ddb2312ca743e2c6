// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold. Club moderation is tracked separately on ModeratorOf.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// RoleRequest is a pending request by a user to moderate a club.
type RoleRequest struct {
	ClubID      primitive.ObjectID `bson:"club_id" json:"club_id"`
	Message     string             `bson:"message" json:"message"`
	RequestedAt time.Time          `bson:"requested_at" json:"requested_at"`
}

// User is a portal account. PasswordHash is nil for accounts created through
// Google sign-in until the user sets a password.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	Username     string               `bson:"username" json:"username"`
	UsernameCI   string               `bson:"username_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string               `bson:"email" json:"email"`
	EmailCI      string               `bson:"email_ci" json:"-"`
	PasswordHash *string              `bson:"password_hash,omitempty" json:"-"`
	Avatar       string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role         string               `bson:"role" json:"role"` // admin | user
	IsVerified   bool                 `bson:"is_verified" json:"is_verified"`
	GoogleID     *string              `bson:"google_id,omitempty" json:"-"`
	ModeratorOf  []primitive.ObjectID `bson:"moderator_of,omitempty" json:"moderator_of,omitempty"`
	RoleRequest  *RoleRequest         `bson:"role_request,omitempty" json:"role_request,omitempty"`
	Deleted      bool                 `bson:"deleted" json:"-"`
	DeletedAt    *time.Time           `bson:"deleted_at,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Moderates reports whether the user moderates the given club.
func (u User) Moderates(clubID primitive.ObjectID) bool {
	for _, id := range u.ModeratorOf {
		if id == clubID {
			return true
		}
	}
	return false
}
