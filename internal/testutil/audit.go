package testutil

import (
	"context"
	"testing"

	logstore "github.com/dalemusser/eventportal/internal/app/store/logs"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// NewAudit returns an audit logger writing to db's logs collection.
func NewAudit(db *mongo.Database) *auditlog.Logger {
	return auditlog.New(logstore.New(db), zap.NewNop(), auditlog.ModeDB)
}

// CountLogs counts audit entries with the given action and target type.
func CountLogs(t *testing.T, ctx context.Context, db *mongo.Database, action, targetType string) int64 {
	t.Helper()
	n, err := db.Collection("logs").CountDocuments(ctx, bson.M{"action": action, "target_type": targetType})
	if err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return n
}
