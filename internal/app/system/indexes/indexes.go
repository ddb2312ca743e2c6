// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup fails fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"clubs", ensureClubs},
		{"events", ensureEvents},
		{"recruitments", ensureRecruitments},
		{"registrations", ensureRegistrations},
		{"announcements", ensureAnnouncements},
		{"logs", ensureLogs},
		{"login_records", ensureLoginRecords},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
	Sparse *bool  `bson:"sparse,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(p *bool) bool { return p != nil && *p }

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func createErr(coll *mongo.Collection, name string, unique bool, err error) string {
	if unique && wafflemongo.IsDup(err) {
		return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), name, err)
}

// ensureIndexSet makes coll's indexes match models. An index with the same
// key pattern but different name or options is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		var name string
		var unique, sparse bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = boolVal(m.Options.Unique)
			sparse = boolVal(m.Options.Sparse)
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
		}

		if ex, ok := existing[sig]; ok {
			if boolVal(ex.Unique) == unique && boolVal(ex.Sparse) == sparse && (name == "" || ex.Name == name) {
				zap.L().Debug("reusing existing index", fields...)
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				// Another index with these keys appeared since we listed.
				if ex, ok := listExisting(ctx, coll)[sig]; ok {
					if _, dropErr := coll.Indexes().DropOne(ctx, ex.Name); dropErr == nil {
						_, err = coll.Indexes().CreateOne(ctx, m)
					}
				}
			}
			if err != nil {
				zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
				errs = append(errs, createErr(coll, name, unique, err))
				continue
			}
		}
		zap.L().Info("index ensured", append(fields, zap.String("took", time.Since(start).String()))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collections                                                                */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username_ci", Value: 1}},
			Options: options.Index().SetName("uniq_users_username_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetName("uniq_users_email_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetName("uniq_users_google_id").SetUnique(true).SetSparse(true),
		},
		{
			// admin role-request queue
			Keys:    bson.D{{Key: "role_request.requested_at", Value: 1}},
			Options: options.Index().SetName("idx_users_role_request").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "deleted", Value: 1}, {Key: "username_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_deleted_username"),
		},
	})
}

func ensureClubs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("clubs"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("uniq_clubs_name_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "moderators", Value: 1}},
			Options: options.Index().SetName("idx_clubs_moderators"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "start_date", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_events_start"),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "start_date", Value: -1}},
			Options: options.Index().SetName("idx_events_type_start"),
		},
		{
			Keys:    bson.D{{Key: "club", Value: 1}, {Key: "start_date", Value: -1}},
			Options: options.Index().SetName("idx_events_club_start"),
		},
		{
			Keys:    bson.D{{Key: "collab_clubs", Value: 1}},
			Options: options.Index().SetName("idx_events_collab_clubs"),
		},
	})
}

func ensureRecruitments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("recruitments"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "deadline", Value: 1}},
			Options: options.Index().SetName("idx_recruitments_active_deadline"),
		},
		{
			Keys:    bson.D{{Key: "club", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_recruitments_club"),
		},
	})
}

func ensureRegistrations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("registrations"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "recruitment", Value: 1}, {Key: "email_ci", Value: 1}},
			Options: options.Index().SetName("uniq_registrations_recruitment_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "recruitment", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_registrations_recruitment_created"),
		},
	})
}

func ensureAnnouncements(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("announcements"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_announcements_created"),
		},
		{
			Keys:    bson.D{{Key: "club", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_announcements_club_created"),
		},
	})
}

func ensureLogs(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("logs"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_logs_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "actor", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_logs_actor_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "target_type", Value: 1}, {Key: "target_id", Value: 1}},
			Options: options.Index().SetName("idx_logs_target"),
		},
	})
}

// dashboards read "recent activity" from login_records
func ensureLoginRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("login_records"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_login_records_created"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_login_records_user_created"),
		},
	})
}
