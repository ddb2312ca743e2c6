// internal/domain/models/loginhistory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginRecord captures a single successful sign-in.
// CreatedAt is indexed for the admin dashboard's recent-activity view.
type LoginRecord struct {
	UserID    primitive.ObjectID `bson:"user_id"`
	Username  string             `bson:"username"`
	CreatedAt time.Time          `bson:"created_at"`
	IP        string             `bson:"ip"`
	UserAgent string             `bson:"user_agent,omitempty"`
	Provider  string             `bson:"provider"` // password | google
}
