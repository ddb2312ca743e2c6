// internal/app/store/recruitments/recruitmentstore.go
package recruitmentstore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("recruitments")}
}

// Create inserts an active recruitment.
func (s *Store) Create(ctx context.Context, rec models.Recruitment) (models.Recruitment, error) {
	rec.ID = primitive.NewObjectID()
	rec.Active = true
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.Recruitment{}, err
	}
	return rec, nil
}

// GetByID loads a recruitment. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Recruitment, error) {
	var rec models.Recruitment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	return rec, err
}

// ListOpen returns active recruitments whose deadline has not passed,
// nearest deadline first.
func (s *Store) ListOpen(ctx context.Context, now time.Time) ([]models.Recruitment, error) {
	return s.find(ctx, bson.M{"active": true, "deadline": bson.M{"$gte": now}},
		bson.D{{Key: "deadline", Value: 1}, {Key: "_id", Value: 1}})
}

// ListByClub returns every recruitment of a club, newest first.
func (s *Store) ListByClub(ctx context.Context, clubID primitive.ObjectID) ([]models.Recruitment, error) {
	return s.find(ctx, bson.M{"club": clubID}, bson.D{{Key: "created_at", Value: -1}})
}

func (s *Store) find(ctx context.Context, filter bson.M, sort bson.D) ([]models.Recruitment, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	var out []models.Recruitment
	err = cur.All(ctx, &out)
	return out, err
}

// SetActive opens or closes a recruitment.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"active": active, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a recruitment. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByClub removes every recruitment of a club and returns their ids.
func (s *Store) DeleteByClub(ctx context.Context, clubID primitive.ObjectID) ([]primitive.ObjectID, error) {
	recs, err := s.ListByClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	_, err = s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return ids, err
}

// CountOpen returns the number of recruitments accepting applications.
func (s *Store) CountOpen(ctx context.Context, now time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"active": true, "deadline": bson.M{"$gte": now}})
}
