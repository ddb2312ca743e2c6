package logstore_test

import (
	"testing"
	"time"

	logstore "github.com/dalemusser/eventportal/internal/app/store/logs"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_AppendAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := logstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actor := primitive.NewObjectID()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := []models.Log{
		{Actor: actor, Action: models.ActionCreate, TargetType: "club", TargetID: primitive.NewObjectID(), Timestamp: base},
		{Actor: actor, Action: models.ActionDelete, TargetType: "event", TargetID: primitive.NewObjectID(), Timestamp: base.Add(time.Minute)},
		{Actor: actor, Action: models.ActionDelete, TargetType: "club", TargetID: primitive.NewObjectID()},
	}
	for _, e := range entries {
		if _, err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rows, res, err := store.List(ctx, logstore.Filter{}, paging.WithSize(1, 2))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 || !res.HasNext {
		t.Errorf("page 1: %d rows, HasNext=%v", len(rows), res.HasNext)
	}
	if rows[0].Timestamp.Before(rows[1].Timestamp) {
		t.Error("expected newest first")
	}

	deletes, _, _ := store.List(ctx, logstore.Filter{Action: models.ActionDelete, TargetType: "club"}, paging.New(1))
	if len(deletes) != 1 {
		t.Errorf("filtered List = %d rows, want 1", len(deletes))
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}
