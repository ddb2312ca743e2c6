// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement is a site-wide message, or club-scoped when Club is set.
type Announcement struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	PostedBy  primitive.ObjectID  `bson:"posted_by" json:"posted_by"`
	Club      *primitive.ObjectID `bson:"club,omitempty" json:"club,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}
