// internal/app/bootstrap/services.go
package bootstrap

import (
	"fmt"
	"time"

	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	logstore "github.com/dalemusser/eventportal/internal/app/store/logs"
	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auditlog"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/clientip"
	"github.com/dalemusser/eventportal/internal/app/system/csrf"
	"github.com/dalemusser/eventportal/internal/app/system/imagehost"
	"github.com/dalemusser/eventportal/internal/app/system/mailer"
	"github.com/dalemusser/eventportal/internal/app/system/ratelimit"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/secure"
	"github.com/dalemusser/eventportal/internal/app/system/tokens"
	"github.com/dalemusser/eventportal/internal/app/system/ttlstore"
	"github.com/dalemusser/eventportal/internal/app/system/uploadsec"
	"github.com/dalemusser/eventportal/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// sweepInterval is how often the in-memory TTL store drops expired
// blacklist entries and rate-limit counters.
const sweepInterval = 5 * time.Minute

// services is the component graph shared by the feature handlers.
type services struct {
	Sec       *seclog.Logger
	Store     ttlstore.Store
	Redis     *redis.Client // nil with the memory store
	Sweeper   *workers.Sweeper
	Tokens    *tokens.Manager
	Sessions  *auth.SessionManager
	CSRF      *csrf.Protector
	Limiter   *ratelimit.Limiter
	Guard     *ratelimit.LoginGuard
	Operators *secure.Operators
	Authn     *auth.Authenticator
	Mailer    mailer.Sender
	Images    imagehost.Host
	Uploads   *uploadsec.Checker
	Audit     *auditlog.Logger
	ErrLog    *uierrors.ErrorLogger
}

// newServices builds every shared component from config. Nothing is
// started; call start once the handler is built.
func newServices(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	s := &services{ErrLog: uierrors.NewErrorLogger(logger)}

	if err := clientip.SetTrustedProxies(appCfg.TrustedProxies); err != nil {
		return nil, err
	}
	if len(appCfg.TrustedProxies) > 0 {
		logger.Info("trusting forwarded client addresses", zap.Strings("proxies", appCfg.TrustedProxies))
	}

	sec, err := seclog.New(appCfg.SecurityLogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("security log: %w", err)
	}
	s.Sec = sec

	s.Store, s.Redis, s.Sweeper = buildStore(appCfg, logger)

	s.Tokens = tokens.NewManager(appCfg.JWTSecret, tokens.NewBlacklist(s.Store))

	s.Sessions, err = auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, appCfg.Production, logger)
	if err != nil {
		return nil, err
	}

	s.CSRF = csrf.New(s.Sessions, sec, logger, appCfg.Production)
	s.Limiter = ratelimit.New(s.Store, sec, logger)
	s.Guard = ratelimit.NewLoginGuard(s.Store)
	s.Operators = secure.NewOperators(sec)
	s.Authn = auth.NewAuthenticator(s.Tokens, userstore.New(deps.MongoDatabase), sec, logger, appCfg.Production)
	s.Uploads = uploadsec.New(s.Limiter, sec, logger)
	s.Audit = auditlog.New(logstore.New(deps.MongoDatabase), logger, appCfg.AuditLogMode)

	if s.Mailer, err = buildMailer(appCfg, logger); err != nil {
		return nil, err
	}
	if s.Images, err = buildImageHost(appCfg, logger); err != nil {
		return nil, err
	}
	return s, nil
}

// buildStore returns the shared TTL store. The memory store comes with a
// sweeper; the Redis store expires keys itself.
func buildStore(appCfg AppConfig, logger *zap.Logger) (ttlstore.Store, *redis.Client, *workers.Sweeper) {
	if appCfg.TTLStore == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		logger.Info("using redis ttl store", zap.String("addr", appCfg.RedisAddr))
		return ttlstore.NewRedis(rdb, "eventportal:"), rdb, nil
	}
	mem := ttlstore.NewMemory()
	return mem, nil, workers.NewSweeper("ttlstore", mem, logger, sweepInterval)
}

func buildMailer(appCfg AppConfig, logger *zap.Logger) (mailer.Sender, error) {
	if appCfg.MailSMTPHost == "" {
		logger.Warn("smtp host not set; emails will be logged, not sent")
		return mailer.LogSender{Log: logger}, nil
	}
	return mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
		TLS:      appCfg.MailSMTPTLS,
	}, logger)
}

func buildImageHost(appCfg AppConfig, logger *zap.Logger) (imagehost.Host, error) {
	switch appCfg.ImageHost {
	case "minio":
		m, err := imagehost.NewMinIO(imagehost.MinIOConfig{
			Endpoint:  appCfg.MinIOEndpoint,
			AccessKey: appCfg.MinIOAccessKey,
			SecretKey: appCfg.MinIOSecretKey,
			Bucket:    appCfg.MinIOBucket,
			UseSSL:    appCfg.MinIOUseSSL,
			PublicURL: appCfg.MinIOPublicURL,
		})
		if err != nil {
			return nil, err
		}
		return imagehost.WithBreaker(m, "minio", logger), nil
	default:
		c, err := imagehost.NewCloudinary(appCfg.CloudinaryCloudName, appCfg.CloudinaryAPIKey,
			appCfg.CloudinaryAPISecret, appCfg.CloudinaryFolder)
		if err != nil {
			return nil, err
		}
		return imagehost.WithBreaker(c, "cloudinary", logger), nil
	}
}

// start launches background workers.
func (s *services) start() {
	if s.Sweeper != nil {
		s.Sweeper.Start()
	}
}

// stop halts workers and closes the security log and the Redis client.
func (s *services) stop(logger *zap.Logger) {
	if s.Sweeper != nil {
		s.Sweeper.Stop()
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if err := s.Sec.Close(); err != nil {
		logger.Warn("security log close failed", zap.Error(err))
	}
}
