// internal/domain/models/club.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GalleryItem is one image in a club's gallery. Order in the slice is display order.
type GalleryItem struct {
	URL        string             `bson:"url" json:"url"`
	Caption    string             `bson:"caption,omitempty" json:"caption,omitempty"`
	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// Club includes a case/diacritic-insensitive name for uniqueness and sort.
type Club struct {
	ID           primitive.ObjectID   `bson:"_id" json:"id"`
	Name         string               `bson:"name" json:"name"`
	NameCI       string               `bson:"name_ci" json:"-"`
	Description  string               `bson:"description" json:"description"`
	About        string               `bson:"about,omitempty" json:"about,omitempty"`
	Image        string               `bson:"image,omitempty" json:"image,omitempty"`
	Banner       string               `bson:"banner,omitempty" json:"banner,omitempty"`
	Gallery      []GalleryItem        `bson:"gallery,omitempty" json:"gallery,omitempty"`
	Moderators   []primitive.ObjectID `bson:"moderators,omitempty" json:"moderators,omitempty"`
	Recruitments []primitive.ObjectID `bson:"recruitments,omitempty" json:"recruitments,omitempty"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// ImageURLs returns every hosted image the club references: display image,
// banner, then each gallery entry. Empty fields are skipped.
func (c Club) ImageURLs() []string {
	var out []string
	if c.Image != "" {
		out = append(out, c.Image)
	}
	if c.Banner != "" {
		out = append(out, c.Banner)
	}
	for _, g := range c.Gallery {
		if g.URL != "" {
			out = append(out, g.URL)
		}
	}
	return out
}
