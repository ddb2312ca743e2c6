// internal/app/store/logs/logstore.go
package logstore

import (
	"context"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is append-only: there is no update or delete.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("logs")}
}

// Append inserts an entry. A zero Timestamp is set to now.
func (s *Store) Append(ctx context.Context, e models.Log) (models.Log, error) {
	e.ID = primitive.NewObjectID()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Log{}, err
	}
	return e, nil
}

// Filter narrows List.
type Filter struct {
	Action     string
	TargetType string
}

// List returns one page, newest first.
func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]models.Log, paging.Result, error) {
	filter := bson.M{}
	if f.Action != "" {
		filter["action"] = f.Action
	}
	if f.TargetType != "" {
		filter["target_type"] = f.TargetType
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, paging.Result{}, err
	}
	var out []models.Log
	if err := cur.All(ctx, &out); err != nil {
		return nil, paging.Result{}, err
	}
	return out, paging.Trim(&out, p), nil
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
