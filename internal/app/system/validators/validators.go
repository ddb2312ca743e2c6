// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("clubs", clubsSchema())
	ensure("events", eventsSchema())
	ensure("recruitments", recruitmentsSchema())
	ensure("registrations", registrationsSchema())
	ensure("announcements", announcementsSchema())
	ensure("logs", logsSchema())

	// No validator; the collection still needs to exist.
	ensure("login_records", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func strs(vs []string) bson.A {
	out := make(bson.A, 0, len(vs))
	for _, v := range vs {
		out = append(out, v)
	}
	return out
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "username", "username_ci", "email", "email_ci", "role", "is_verified"},
			"properties": bson.M{
				"name":          nonBlank,
				"username":      nonBlank,
				"username_ci":   nonBlank,
				"email":         nonBlank,
				"email_ci":      nonBlank,
				"password_hash": bson.M{"bsonType": bson.A{"string", "null"}},
				"role":          bson.M{"enum": bson.A{models.RoleAdmin, models.RoleUser}},
				"is_verified":   bson.M{"bsonType": "bool"},
				"moderator_of":  bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
			},
		},
	}
}

func clubsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci"},
			"properties": bson.M{
				"name":       nonBlank,
				"name_ci":    nonBlank,
				"moderators": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"gallery": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"url"},
						"properties": bson.M{
							"url": nonBlank,
						},
					},
				},
			},
		},
	}
}

// eventsSchema also requires end_date >= start_date.
func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "type", "start_date", "end_date", "club"},
			"properties": bson.M{
				"title":      nonBlank,
				"type":       bson.M{"enum": strs(models.EventTypes)},
				"start_date": bson.M{"bsonType": "date"},
				"end_date":   bson.M{"bsonType": "date"},
				"start_time": bson.M{"bsonType": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
				"end_time":   bson.M{"bsonType": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
				"club":       bson.M{"bsonType": "objectId"},
			},
		},
		"$expr": bson.M{"$gte": bson.A{"$end_date", "$start_date"}},
	}
}

func recruitmentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "club", "deadline", "active"},
			"properties": bson.M{
				"title":    nonBlank,
				"club":     bson.M{"bsonType": "objectId"},
				"deadline": bson.M{"bsonType": "date"},
				"active":   bson.M{"bsonType": "bool"},
				"fields": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"name", "type"},
						"properties": bson.M{
							"name": nonBlank,
							"type": bson.M{"enum": strs(models.FormFieldTypes)},
						},
					},
				},
			},
		},
	}
}

func registrationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"recruitment", "name", "email", "email_ci"},
			"properties": bson.M{
				"recruitment": bson.M{"bsonType": "objectId"},
				"name":        nonBlank,
				"email":       nonBlank,
				"email_ci":    nonBlank,
			},
		},
	}
}

func announcementsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "message", "posted_by"},
			"properties": bson.M{
				"title":     nonBlank,
				"message":   nonBlank,
				"posted_by": bson.M{"bsonType": "objectId"},
				"club":      bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func logsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"actor", "action", "target_type", "timestamp"},
			"properties": bson.M{
				"actor":       bson.M{"bsonType": "objectId"},
				"action":      bson.M{"enum": bson.A{models.ActionCreate, models.ActionEdit, models.ActionDelete}},
				"target_type": nonBlank,
				"timestamp":   bson.M{"bsonType": "date"},
			},
		},
	}
}
