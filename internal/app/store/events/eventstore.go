// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/normalize"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts an event with a fresh id and timestamps. The collection
// validator rejects an end date before the start date.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.ID = primitive.NewObjectID()
	e.Title = normalize.Name(e.Title)
	e.TitleCI = text.Fold(e.Title)
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads an event. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var e models.Event
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	return e, err
}

// Filter narrows List.
type Filter struct {
	Type string             // one of models.EventTypes, or "" for all
	Q    string             // title prefix
	Club primitive.ObjectID // host or collaborator; zero for all
}

func (f Filter) bson() bson.M {
	m := bson.M{}
	if t := normalize.Filter(f.Type); t != "" {
		m["type"] = t
	}
	if lo, hi := text.PrefixRange(normalize.QueryParam(f.Q)); lo != "" {
		m["title_ci"] = bson.M{"$gte": lo, "$lt": hi}
	}
	if !f.Club.IsZero() {
		m["$or"] = bson.A{bson.M{"club": f.Club}, bson.M{"collab_clubs": f.Club}}
	}
	return m
}

// List returns one page of events, newest start date first.
func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]models.Event, paging.Result, error) {
	cur, err := s.c.Find(ctx, f.bson(), p.FindOptions(bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, paging.Result{}, err
	}
	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, paging.Result{}, err
	}
	return out, paging.Trim(&out, p), nil
}

// Upcoming returns up to limit events that have not ended by now, soonest first.
func (s *Store) Upcoming(ctx context.Context, now time.Time, limit int64) ([]models.Event, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cur, err := s.c.Find(ctx,
		bson.M{"end_date": bson.M{"$gte": today}},
		options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var out []models.Event
	err = cur.All(ctx, &out)
	return out, err
}

// Update holds the editable event fields.
type Update struct {
	Title       string
	Description string
	Type        string
	StartDate   time.Time
	EndDate     time.Time
	StartTime   string
	EndTime     string
	Location    string
	Image       string
	Club        primitive.ObjectID
	CollabClubs []primitive.ObjectID
	EventLeads  []string
	Sponsors    []models.Sponsor
	Winners     []models.Winner
	Reports     []models.Report
}

// Update replaces the editable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	title := normalize.Name(upd.Title)
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":        title,
		"title_ci":     text.Fold(title),
		"description":  upd.Description,
		"type":         upd.Type,
		"start_date":   upd.StartDate,
		"end_date":     upd.EndDate,
		"start_time":   upd.StartTime,
		"end_time":     upd.EndTime,
		"location":     upd.Location,
		"image":        upd.Image,
		"club":         upd.Club,
		"collab_clubs": upd.CollabClubs,
		"event_leads":  upd.EventLeads,
		"sponsors":     upd.Sponsors,
		"winners":      upd.Winners,
		"reports":      upd.Reports,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the event. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// RemoveCollaborator drops clubID from every event's collab_clubs.
func (s *Store) RemoveCollaborator(ctx context.Context, clubID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx, bson.M{"collab_clubs": clubID}, bson.M{"$pull": bson.M{"collab_clubs": clubID}})
	return err
}

// Count returns the number of events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
