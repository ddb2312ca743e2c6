// internal/app/store/logins/loginstore.go
package loginstore

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/clientip"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("login_records")}
}

// Create inserts a LoginRecord. If CreatedAt is zero, it's set to time.Now().UTC().
func (s *Store) Create(ctx context.Context, rec models.LoginRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rec)
	return err
}

// CreateFrom builds a LoginRecord for u from the HTTP request and inserts it.
func (s *Store) CreateFrom(ctx context.Context, r *http.Request, u models.User, provider string) error {
	return s.Create(ctx, models.LoginRecord{
		UserID:    u.ID,
		Username:  u.Username,
		IP:        clientip.From(r),
		UserAgent: r.UserAgent(),
		Provider:  provider,
	})
}

// Recent returns the newest limit sign-ins.
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.LoginRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var out []models.LoginRecord
	err = cur.All(ctx, &out)
	return out, err
}
