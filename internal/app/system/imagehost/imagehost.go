// internal/app/system/imagehost/imagehost.go
//
// Package imagehost stores uploaded images with an external provider and
// removes them again, best effort, when the owning record is deleted.
package imagehost

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Destroy when the provider has no such asset.
var ErrNotFound = errors.New("image not found")

// Object is an image ready to be stored.
type Object struct {
	// Folder groups assets ("clubs", "events", "avatars").
	Folder      string
	Name        string
	ContentType string
	Data        []byte
}

// Stored describes an uploaded asset.
type Stored struct {
	URL      string
	PublicID string
}

// Host is an image storage provider.
type Host interface {
	Upload(ctx context.Context, obj Object) (Stored, error)
	Destroy(ctx context.Context, publicID string) error
	// PublicID derives the provider id from a delivery URL, or "" when
	// the URL is not one of this provider's.
	PublicID(url string) string
}
