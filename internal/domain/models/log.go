// internal/domain/models/log.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Log actions.
const (
	ActionCreate = "CREATE"
	ActionEdit   = "EDIT"
	ActionDelete = "DELETE"
)

// Log is an append-only record of an administrative mutation.
type Log struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	Actor        primitive.ObjectID  `bson:"actor" json:"actor"`
	ActorName    string              `bson:"actor_name,omitempty" json:"actor_name,omitempty"`
	AffectedUser *primitive.ObjectID `bson:"affected_user,omitempty" json:"affected_user,omitempty"`
	Action       string              `bson:"action" json:"action"`
	TargetType   string              `bson:"target_type" json:"target_type"`
	TargetID     primitive.ObjectID  `bson:"target_id" json:"target_id"`
	Details      string              `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp    time.Time           `bson:"timestamp" json:"timestamp"`
}
