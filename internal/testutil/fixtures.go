package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/authutil"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestPassword satisfies the password strength rules. Fixture users are
// created with it.
const TestPassword = "Str0ng!Passw0rd"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateUser creates a verified user with TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, name, username, email, role string) models.User {
	f.t.Helper()

	hash, err := authutil.HashPassword(TestPassword)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Username:     username,
		UsernameCI:   text.Fold(username),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: &hash,
		Role:         role,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateAdmin creates a verified admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, username string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Admin "+username, username, username+"@test.com", models.RoleAdmin)
}

// CreateMember creates a verified regular user.
func (f *Fixtures) CreateMember(ctx context.Context, username string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "User "+username, username, username+"@test.com", models.RoleUser)
}

// CreateUnverifiedUser creates a user that has not confirmed their email.
func (f *Fixtures) CreateUnverifiedUser(ctx context.Context, username string) models.User {
	f.t.Helper()
	u := f.CreateMember(ctx, username)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, map[string]any{"$set": map[string]any{"is_verified": false}}); err != nil {
		f.t.Fatalf("unverify user: %v", err)
	}
	u.IsVerified = false
	return u
}

// CreateClub creates a club. Image URLs may be empty.
func (f *Fixtures) CreateClub(ctx context.Context, name string, moderators ...primitive.ObjectID) models.Club {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Club{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: name + " description",
		Moderators:  moderators,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "clubs", c)
	for _, m := range moderators {
		if _, err := f.db.Collection("users").UpdateByID(ctx, m, map[string]any{"$addToSet": map[string]any{"moderator_of": c.ID}}); err != nil {
			f.t.Fatalf("add moderator: %v", err)
		}
	}
	return c
}

// InsertClub stores c as given, filling ID and timestamps when zero.
func (f *Fixtures) InsertClub(ctx context.Context, c models.Club) models.Club {
	f.t.Helper()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.NameCI == "" {
		c.NameCI = text.Fold(c.Name)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
		c.UpdatedAt = c.CreatedAt
	}
	f.insert(ctx, "clubs", c)
	return c
}

// CreateEvent creates a one-day workshop starting daysFromNow days ahead.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, club, createdBy primitive.ObjectID, daysFromNow int) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, daysFromNow)
	e := models.Event{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		Description: title + " description",
		Type:        "workshop",
		StartDate:   day,
		EndDate:     day,
		StartTime:   "10:00",
		EndTime:     "12:00",
		Location:    "Main Hall",
		Club:        club,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "events", e)
	return e
}

// CreateRecruitment creates an active recruitment with the given deadline
// and a single optional text field named "why".
func (f *Fixtures) CreateRecruitment(ctx context.Context, title string, club, createdBy primitive.ObjectID, deadline time.Time) models.Recruitment {
	f.t.Helper()

	now := time.Now().UTC()
	rec := models.Recruitment{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: title + " description",
		Club:        club,
		Deadline:    deadline,
		Fields: []models.FormField{
			{Label: "Why do you want to join?", Name: "why", Type: "textarea"},
		},
		Active:    true,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "recruitments", rec)
	if _, err := f.db.Collection("clubs").UpdateByID(ctx, club, map[string]any{"$addToSet": map[string]any{"recruitments": rec.ID}}); err != nil {
		f.t.Fatalf("link recruitment: %v", err)
	}
	return rec
}

// CreateAnnouncement creates an announcement, club-scoped when club is non-nil.
func (f *Fixtures) CreateAnnouncement(ctx context.Context, title string, postedBy primitive.ObjectID, club *primitive.ObjectID) models.Announcement {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Announcement{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Message:   title + " message",
		PostedBy:  postedBy,
		Club:      club,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "announcements", a)
	return a
}
