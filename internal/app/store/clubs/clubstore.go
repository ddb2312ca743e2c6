// internal/app/store/clubs/clubstore.go
package clubstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/normalize"
	"github.com/dalemusser/eventportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateClub is returned when a club with the same folded name exists.
	ErrDuplicateClub = errors.New("a club with this name already exists")
	// ErrNoSuchImage is returned for an out-of-range gallery index.
	ErrNoSuchImage = errors.New("no such gallery image")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clubs")}
}

// Create inserts a club with a fresh id and timestamps.
func (s *Store) Create(ctx context.Context, c models.Club) (models.Club, error) {
	c.ID = primitive.NewObjectID()
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Club{}, ErrDuplicateClub
		}
		return models.Club{}, err
	}
	return c, nil
}

// GetByID loads a club. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Club, error) {
	var c models.Club
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	return c, err
}

// List returns all clubs sorted by name. Clubs are few; no paging.
func (s *Store) List(ctx context.Context) ([]models.Club, error) {
	return s.find(ctx, bson.M{})
}

// ListByIDs returns the named clubs sorted by name.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Club, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Club, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.Club
	err = cur.All(ctx, &out)
	return out, err
}

// Exists reports whether every id names a club.
func (s *Store) Exists(ctx context.Context, ids ...primitive.ObjectID) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return false, err
	}
	return n == int64(len(uniq(ids))), nil
}

func uniq(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Update holds the editable club fields.
type Update struct {
	Name        string
	Description string
	About       string
	Image       string
	Banner      string
}

// Update saves the editable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	name := normalize.Name(upd.Name)
	return s.update(ctx, id, bson.M{"$set": bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"description": upd.Description,
		"about":       upd.About,
		"image":       upd.Image,
		"banner":      upd.Banner,
	}})
}

func (s *Store) update(ctx context.Context, id primitive.ObjectID, upd bson.M) error {
	set, _ := upd["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		upd["$set"] = set
	}
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, upd)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateClub
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddGalleryItem appends an image to the gallery.
func (s *Store) AddGalleryItem(ctx context.Context, id primitive.ObjectID, item models.GalleryItem) error {
	if item.UploadedAt.IsZero() {
		item.UploadedAt = time.Now().UTC()
	}
	return s.update(ctx, id, bson.M{"$push": bson.M{"gallery": item}})
}

// RemoveGalleryItem removes the gallery entry at index and returns it.
// The entry is pulled by URL, not position.
func (s *Store) RemoveGalleryItem(ctx context.Context, id primitive.ObjectID, index int) (models.GalleryItem, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return models.GalleryItem{}, err
	}
	if index < 0 || index >= len(c.Gallery) {
		return models.GalleryItem{}, ErrNoSuchImage
	}
	item := c.Gallery[index]
	if err := s.update(ctx, id, bson.M{"$pull": bson.M{"gallery": bson.M{"url": item.URL}}}); err != nil {
		return models.GalleryItem{}, err
	}
	return item, nil
}

// AddModerator records userID as a moderator of the club.
func (s *Store) AddModerator(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{"$addToSet": bson.M{"moderators": userID}})
}

// RemoveModerator drops userID from the club's moderators.
func (s *Store) RemoveModerator(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{"$pull": bson.M{"moderators": userID}})
}

// RemoveUserFromAll drops userID from every club's moderators.
func (s *Store) RemoveUserFromAll(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx, bson.M{"moderators": userID}, bson.M{"$pull": bson.M{"moderators": userID}})
	return err
}

// AddRecruitment links a recruitment to the club.
func (s *Store) AddRecruitment(ctx context.Context, id, recID primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{"$addToSet": bson.M{"recruitments": recID}})
}

// RemoveRecruitment unlinks a recruitment.
func (s *Store) RemoveRecruitment(ctx context.Context, id, recID primitive.ObjectID) error {
	return s.update(ctx, id, bson.M{"$pull": bson.M{"recruitments": recID}})
}

// Delete removes the club. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of clubs.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
