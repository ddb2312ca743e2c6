// internal/domain/models/recruitment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormFieldTypes lists the input types an application form field may use.
var FormFieldTypes = []string{"text", "textarea", "email", "number", "url", "select"}

// FormField is one question on a recruitment's application form.
// Name is the key answers are stored under.
type FormField struct {
	Label    string   `bson:"label" json:"label"`
	Name     string   `bson:"name" json:"name"`
	Type     string   `bson:"type" json:"type"`
	Required bool     `bson:"required" json:"required"`
	Options  []string `bson:"options,omitempty" json:"options,omitempty"`
}

// Recruitment is a club's open call for members.
type Recruitment struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Club        primitive.ObjectID `bson:"club" json:"club"`
	Deadline    time.Time          `bson:"deadline" json:"deadline"`
	Fields      []FormField        `bson:"fields,omitempty" json:"fields,omitempty"`
	Active      bool               `bson:"active" json:"active"`
	CreatedBy   primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// AcceptsAt reports whether applications are open at t.
func (r Recruitment) AcceptsAt(t time.Time) bool {
	return r.Active && !t.After(r.Deadline)
}

// Registration is one application to a recruitment.
type Registration struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Recruitment primitive.ObjectID `bson:"recruitment" json:"recruitment"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	EmailCI     string             `bson:"email_ci" json:"-"`
	Answers     map[string]string  `bson:"answers,omitempty" json:"answers,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
