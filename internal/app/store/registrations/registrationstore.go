// internal/app/store/registrations/registrationstore.go
package registrationstore

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

// ErrAlreadyApplied is returned when the email already applied to the recruitment.
var ErrAlreadyApplied = errors.New("you have already applied to this recruitment")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registrations")}
}

// Create stores an application. One per (recruitment, email).
func (s *Store) Create(ctx context.Context, reg models.Registration) (models.Registration, error) {
	reg.ID = primitive.NewObjectID()
	reg.Name = normalize.Name(reg.Name)
	reg.Email = normalize.Email(reg.Email)
	reg.EmailCI = text.Fold(reg.Email)
	reg.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, reg); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Registration{}, ErrAlreadyApplied
		}
		return models.Registration{}, err
	}
	return reg, nil
}

// ListByRecruitment returns applications oldest first.
func (s *Store) ListByRecruitment(ctx context.Context, recID primitive.ObjectID) ([]models.Registration, error) {
	cur, err := s.c.Find(ctx, bson.M{"recruitment": recID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.Registration
	err = cur.All(ctx, &out)
	return out, err
}

// CountByRecruitment returns the number of applications.
func (s *Store) CountByRecruitment(ctx context.Context, recID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"recruitment": recID})
}

// DeleteByRecruitments removes every application to the given recruitments.
func (s *Store) DeleteByRecruitments(ctx context.Context, recIDs ...primitive.ObjectID) (int64, error) {
	if len(recIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"recruitment": bson.M{"$in": recIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
