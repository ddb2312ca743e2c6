// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/eventportal/internal/app/resources"
	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.AdminEmail != "" {
		sctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()
		if err := ensureAdmin(sctx, deps, appCfg.AdminEmail, logger); err != nil {
			logger.Error("admin bootstrap failed", zap.Error(err))
			return err
		}
	}
	return nil
}

// ensureAdmin promotes the account registered under email to admin. A
// missing account is logged and skipped; it is promoted on a later start
// once it has registered.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Warn("admin_email has no account yet", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}
	if u.Role == models.RoleAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return err
	}
	logger.Info("promoted account to admin",
		zap.String("email", email),
		zap.String("user_id", u.ID.Hex()))
	return nil
}
