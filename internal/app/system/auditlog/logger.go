// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	logstore "github.com/dalemusser/eventportal/internal/app/store/logs"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination modes for audit entries.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// Logger records admin and moderator mutations. It writes to the logs
// collection (via logstore.Store) and to structured logs (via zap).
type Logger struct {
	store  *logstore.Store
	zapLog *zap.Logger
	mode   string
}

// New creates a new audit Logger. An unknown mode is treated as ModeAll.
func New(store *logstore.Store, zapLog *zap.Logger, mode string) *Logger {
	switch mode {
	case ModeAll, ModeDB, ModeLog, ModeOff:
	default:
		mode = ModeAll
	}
	return &Logger{store: store, zapLog: zapLog, mode: mode}
}

// Entry describes the target of a mutation.
type Entry struct {
	TargetType   string
	TargetID     primitive.ObjectID
	AffectedUser *primitive.ObjectID
	Details      string
}

func (l *Logger) logToZap(e models.Log) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("action", e.Action),
		zap.String("actor_id", e.Actor.Hex()),
		zap.String("target_type", e.TargetType),
		zap.String("target_id", e.TargetID.Hex()),
	}
	if e.AffectedUser != nil {
		fields = append(fields, zap.String("affected_user", e.AffectedUser.Hex()))
	}
	if e.Details != "" {
		fields = append(fields, zap.String("details", e.Details))
	}
	l.zapLog.Info("audit event", fields...)
}

// Log records an entry according to the configured mode.
// A nil Logger is a no-op so handlers under test may leave it unset.
// Storage failures are logged and never returned: the mutation has
// already happened.
func (l *Logger) Log(ctx context.Context, e models.Log) {
	if l == nil || l.mode == ModeOff {
		return
	}
	if l.mode == ModeAll || l.mode == ModeLog {
		l.logToZap(e)
	}
	if (l.mode == ModeAll || l.mode == ModeDB) && l.store != nil {
		if _, err := l.store.Append(ctx, e); err != nil {
			l.zapLog.Error("failed to store audit entry",
				zap.Error(err),
				zap.String("action", e.Action),
				zap.String("target_type", e.TargetType))
		}
	}
}

func (l *Logger) record(ctx context.Context, actor *auth.SessionUser, action string, e Entry) {
	entry := models.Log{
		Action:       action,
		TargetType:   e.TargetType,
		TargetID:     e.TargetID,
		AffectedUser: e.AffectedUser,
		Details:      e.Details,
	}
	if actor != nil {
		entry.Actor = actor.ObjectID()
		entry.ActorName = actor.Username
	}
	l.Log(ctx, entry)
}

// Create records a CREATE.
func (l *Logger) Create(ctx context.Context, actor *auth.SessionUser, e Entry) {
	l.record(ctx, actor, models.ActionCreate, e)
}

// Edit records an EDIT.
func (l *Logger) Edit(ctx context.Context, actor *auth.SessionUser, e Entry) {
	l.record(ctx, actor, models.ActionEdit, e)
}

// Delete records a DELETE.
func (l *Logger) Delete(ctx context.Context, actor *auth.SessionUser, e Entry) {
	l.record(ctx, actor, models.ActionDelete, e)
}
