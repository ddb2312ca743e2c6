// internal/app/store/announcements/announcementstore.go
package announcementstore

import (
	"context"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

// Create inserts an announcement.
func (s *Store) Create(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	a.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

// GetByID loads an announcement. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	var a models.Announcement
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	return a, err
}

// List returns one page, newest first. A non-zero club restricts to that
// club's announcements.
func (s *Store) List(ctx context.Context, club primitive.ObjectID, p paging.Page) ([]models.Announcement, paging.Result, error) {
	filter := bson.M{}
	if !club.IsZero() {
		filter["club"] = club
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, paging.Result{}, err
	}
	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, paging.Result{}, err
	}
	return out, paging.Trim(&out, p), nil
}

// Recent returns the newest limit announcements.
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.Announcement, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var out []models.Announcement
	err = cur.All(ctx, &out)
	return out, err
}

// Delete removes an announcement. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByClub removes a club's announcements.
func (s *Store) DeleteByClub(ctx context.Context, club primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"club": club})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
