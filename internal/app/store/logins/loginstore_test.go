package loginstore_test

import (
	"net/http/httptest"
	"testing"
	"time"

	loginstore "github.com/dalemusser/eventportal/internal/app/store/logins"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	if err := store.Create(ctx, models.LoginRecord{UserID: userID, IP: "192.168.1.1", Provider: "password"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var found models.LoginRecord
	if err := db.Collection("login_records").FindOne(ctx, bson.M{"user_id": userID}).Decode(&found); err != nil {
		t.Fatalf("failed to find login record: %v", err)
	}
	if found.IP != "192.168.1.1" {
		t.Errorf("IP: got %q, want %q", found.IP, "192.168.1.1")
	}
	if found.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_CreateFromAndRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := loginstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	old := models.LoginRecord{UserID: primitive.NewObjectID(), Provider: "google", CreatedAt: time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)}
	if err := store.Create(ctx, old); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	req.Header.Set("User-Agent", "test-agent")
	u := models.User{ID: primitive.NewObjectID(), Username: "ann"}
	if err := store.CreateFrom(ctx, req, u, "password"); err != nil {
		t.Fatalf("CreateFrom failed: %v", err)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent = %d rows, want 2", len(recent))
	}
	if recent[0].Username != "ann" || recent[0].IP != "10.0.0.9" || recent[0].UserAgent != "test-agent" {
		t.Errorf("newest record = %+v", recent[0])
	}
}
