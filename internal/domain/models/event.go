// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventTypes is the canonical list of event categories.
var EventTypes = []string{
	"workshop",
	"seminar",
	"competition",
	"cultural",
	"sports",
	"hackathon",
	"meetup",
	"other",
}

// IsValidEventType reports whether t is one of EventTypes.
func IsValidEventType(t string) bool {
	for _, v := range EventTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Sponsor struct {
	Name    string `bson:"name" json:"name"`
	Website string `bson:"website,omitempty" json:"website,omitempty"`
}

type Winner struct {
	Position string `bson:"position" json:"position"`
	Name     string `bson:"name" json:"name"`
}

type Report struct {
	Title string `bson:"title" json:"title"`
	URL   string `bson:"url" json:"url"`
}

// Event is a club-hosted happening. StartDate and EndDate are calendar days
// stored as UTC midnight; StartTime/EndTime are "HH:MM" wall-clock strings.
type Event struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	Title       string               `bson:"title" json:"title"`
	TitleCI     string               `bson:"title_ci" json:"-"`
	Description string               `bson:"description" json:"description"`
	Type        string               `bson:"type" json:"type"`
	StartDate   time.Time            `bson:"start_date" json:"start_date"`
	EndDate     time.Time            `bson:"end_date" json:"end_date"`
	StartTime   string               `bson:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime     string               `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Location    string               `bson:"location" json:"location"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Club        primitive.ObjectID   `bson:"club" json:"club"`
	CollabClubs []primitive.ObjectID `bson:"collab_clubs,omitempty" json:"collab_clubs,omitempty"`
	CreatedBy   primitive.ObjectID   `bson:"created_by" json:"created_by"`
	Sponsors    []Sponsor            `bson:"sponsors,omitempty" json:"sponsors,omitempty"`
	Winners     []Winner             `bson:"winners,omitempty" json:"winners,omitempty"`
	Reports     []Report             `bson:"reports,omitempty" json:"reports,omitempty"`
	EventLeads  []string             `bson:"event_leads,omitempty" json:"event_leads,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}
