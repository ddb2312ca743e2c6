package clubstore_test

import (
	"errors"
	"testing"

	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	"github.com/dalemusser/eventportal/internal/app/system/indexes"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newStore(t *testing.T) *clubstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return clubstore.New(db)
}

func TestStore_CreateDuplicate(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Club{Name: "Robotics", Description: "bots"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Club{Name: " ROBOTICS "}); !errors.Is(err, clubstore.ErrDuplicateClub) {
		t.Errorf("duplicate err = %v, want ErrDuplicateClub", err)
	}
}

func TestStore_Gallery(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := store.Create(ctx, models.Club{Name: "Photo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, u := range []string{"https://x/1.jpg", "https://x/2.jpg", "https://x/3.jpg"} {
		if err := store.AddGalleryItem(ctx, c.ID, models.GalleryItem{URL: u}); err != nil {
			t.Fatalf("AddGalleryItem: %v", err)
		}
	}

	removed, err := store.RemoveGalleryItem(ctx, c.ID, 1)
	if err != nil {
		t.Fatalf("RemoveGalleryItem: %v", err)
	}
	if removed.URL != "https://x/2.jpg" {
		t.Errorf("removed %q, want the second image", removed.URL)
	}
	got, _ := store.GetByID(ctx, c.ID)
	if len(got.Gallery) != 2 || got.Gallery[0].URL != "https://x/1.jpg" || got.Gallery[1].URL != "https://x/3.jpg" {
		t.Errorf("gallery after remove = %+v", got.Gallery)
	}
	if got.Gallery[0].UploadedAt.IsZero() {
		t.Error("UploadedAt not set")
	}

	if _, err := store.RemoveGalleryItem(ctx, c.ID, 5); !errors.Is(err, clubstore.ErrNoSuchImage) {
		t.Errorf("out of range err = %v", err)
	}
}

func TestStore_ModeratorsAndExists(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Club{Name: "A"})
	b, _ := store.Create(ctx, models.Club{Name: "B"})
	user := primitive.NewObjectID()

	if err := store.AddModerator(ctx, a.ID, user); err != nil {
		t.Fatalf("AddModerator: %v", err)
	}
	if err := store.AddModerator(ctx, a.ID, user); err != nil {
		t.Fatalf("AddModerator (again): %v", err)
	}
	got, _ := store.GetByID(ctx, a.ID)
	if len(got.Moderators) != 1 {
		t.Errorf("moderators = %v, want one entry", got.Moderators)
	}

	if err := store.RemoveUserFromAll(ctx, user); err != nil {
		t.Fatalf("RemoveUserFromAll: %v", err)
	}
	got, _ = store.GetByID(ctx, a.ID)
	if len(got.Moderators) != 0 {
		t.Errorf("moderators after removal = %v", got.Moderators)
	}

	ok, err := store.Exists(ctx, a.ID, b.ID, a.ID)
	if err != nil || !ok {
		t.Errorf("Exists(a, b, a) = %v, %v", ok, err)
	}
	ok, _ = store.Exists(ctx, a.ID, primitive.NewObjectID())
	if ok {
		t.Error("Exists with unknown id = true")
	}

	if err := store.Update(ctx, primitive.NewObjectID(), clubstore.Update{Name: "Z"}); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Update(missing) err = %v", err)
	}
}
