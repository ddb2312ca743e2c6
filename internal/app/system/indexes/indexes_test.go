package indexes_test

import (
	"testing"

	"github.com/dalemusser/eventportal/internal/app/system/indexes"
	"github.com/dalemusser/eventportal/internal/testutil"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll  string
		names []string
	}{
		{"users", []string{"uniq_users_username_ci", "uniq_users_email_ci", "uniq_users_google_id"}},
		{"clubs", []string{"uniq_clubs_name_ci", "idx_clubs_moderators"}},
		{"events", []string{"idx_events_start", "idx_events_type_start", "idx_events_club_start"}},
		{"recruitments", []string{"idx_recruitments_active_deadline"}},
		{"registrations", []string{"uniq_registrations_recruitment_email"}},
		{"announcements", []string{"idx_announcements_created"}},
		{"logs", []string{"idx_logs_timestamp", "idx_logs_target"}},
		{"login_records", []string{"idx_login_records_created"}},
	}
	for _, tt := range tests {
		got := indexNames(t, db, tt.coll)
		for _, name := range tt.names {
			if !got[name] {
				t.Errorf("expected index %q on %s", name, tt.coll)
			}
		}
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	clubs := db.Collection("clubs")
	if _, err := clubs.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "name": "Chess", "name_ci": "chess"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := clubs.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "name": "CHESS", "name_ci": "chess"})
	if !wafflemongo.IsDup(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}

	// google_id is sparse: many users without one are fine.
	users := db.Collection("users")
	for _, u := range []string{"a", "b"} {
		doc := bson.M{"_id": primitive.NewObjectID(), "username_ci": u, "email_ci": u + "@x.io"}
		if _, err := users.InsertOne(ctx, doc); err != nil {
			t.Errorf("insert user %s without google_id: %v", u, err)
		}
	}
}

func TestEnsureAll_ReplacesMismatchedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A non-unique index on the same keys under another name is replaced.
	_, err := db.Collection("clubs").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name_ci", Value: 1}},
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	names := indexNames(t, db, "clubs")
	if !names["uniq_clubs_name_ci"] {
		t.Error("expected uniq_clubs_name_ci after reconcile")
	}
	if names["name_ci_1"] {
		t.Error("old index name_ci_1 should have been dropped")
	}
}
