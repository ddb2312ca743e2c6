package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
)

// FakeImageHost records uploads and deletes. Public ids listed in Fail
// return an error from Destroy.
type FakeImageHost struct {
	mu        sync.Mutex
	Fail      map[string]bool
	Uploaded  []imagehost.Object
	Destroyed []string
}

// NewFakeImageHost returns an empty fake. Destroy fails for failIDs.
func NewFakeImageHost(failIDs ...string) *FakeImageHost {
	f := &FakeImageHost{Fail: map[string]bool{}}
	for _, id := range failIDs {
		f.Fail[id] = true
	}
	return f
}

func (f *FakeImageHost) Upload(_ context.Context, obj imagehost.Object) (imagehost.Stored, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploaded = append(f.Uploaded, obj)
	id := obj.Folder + "/" + obj.Name
	return imagehost.Stored{
		URL:      "https://res.cloudinary.com/test/image/upload/v1/" + id + ".png",
		PublicID: id,
	}, nil
}

func (f *FakeImageHost) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Destroyed = append(f.Destroyed, publicID)
	if f.Fail[publicID] {
		return errors.New("fake destroy failure")
	}
	return nil
}

func (f *FakeImageHost) PublicID(url string) string {
	return imagehost.ExtractPublicID(url)
}

// DestroyCalls returns how many Destroy calls were made.
func (f *FakeImageHost) DestroyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Destroyed)
}

// CloudinaryURL builds a delivery URL for publicID.
func CloudinaryURL(publicID string) string {
	return "https://res.cloudinary.com/test/image/upload/v1700000000/" + strings.TrimPrefix(publicID, "/") + ".jpg"
}
