// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/clientip"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSecretLen is the length below which a secret is reported as weak.
const minSecretLen = 32

// appConfigKeys defines the configuration keys for the event portal.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: EVENTPORTAL_MONGO_URI, EVENTPORTAL_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
//
// Keys listed in legacyEnv also fall back to their unprefixed variables.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "eventportal", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "jwt_secret", Default: "", Desc: "Secret for signing JWTs (32+ chars)"},
	{Name: "session_key", Default: "", Desc: "Session signing key (32+ chars)"},
	{Name: "session_name", Default: "eventportal-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime"},

	// Shared TTL store for the blacklist, rate limiter and login tracker
	{Name: "ttl_store", Default: "memory", Desc: "TTL store backend: 'memory' or 'redis'"},
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Image host
	{Name: "image_host", Default: "cloudinary", Desc: "Image host: 'cloudinary' or 'minio'"},
	{Name: "cloudinary_cloud_name", Default: "", Desc: "Cloudinary cloud name"},
	{Name: "cloudinary_api_key", Default: "", Desc: "Cloudinary API key"},
	{Name: "cloudinary_api_secret", Default: "", Desc: "Cloudinary API secret"},
	{Name: "cloudinary_folder", Default: "eventportal", Desc: "Folder prefix for uploaded images"},
	{Name: "minio_endpoint", Default: "", Desc: "MinIO/S3 endpoint (host:port)"},
	{Name: "minio_access_key", Default: "", Desc: "MinIO access key"},
	{Name: "minio_secret_key", Default: "", Desc: "MinIO secret key"},
	{Name: "minio_bucket", Default: "eventportal", Desc: "MinIO bucket"},
	{Name: "minio_use_ssl", Default: false, Desc: "Use TLS for MinIO"},
	{Name: "minio_public_url", Default: "", Desc: "Public base URL for stored images"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs emails instead)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_smtp_tls", Default: "opportunistic", Desc: "SMTP TLS policy: mandatory, opportunistic or none"},
	{Name: "mail_from", Default: "", Desc: "From email address (defaults to the SMTP user)"},
	{Name: "mail_from_name", Default: "Event Portal", Desc: "From display name"},

	// Base URL for email links and OAuth callbacks
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy IPs or CIDRs allowed to set X-Forwarded-For"},
	{Name: "security_log_path", Default: "logs/security.log", Desc: "NDJSON security log file"},
	{Name: "audit_log", Default: "all", Desc: "Audit logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "admin_email", Default: "", Desc: "Email of an account to promote to admin on startup"},
}

// legacyEnv maps config keys to the unprefixed variables older deployments
// set. They are read only when the key itself is empty.
var legacyEnv = map[string][]string{
	"mongo_uri":             {"MONGO_URI"},
	"jwt_secret":            {"JWT_SECRET"},
	"session_key":           {"SESSION_SECRET"},
	"cloudinary_cloud_name": {"CLOUDINARY_CLOUD_NAME"},
	"cloudinary_api_key":    {"CLOUDINARY_API_KEY"},
	"cloudinary_api_secret": {"CLOUDINARY_API_SECRET"},
	"mail_smtp_user":        {"EMAIL_USER"},
	"mail_smtp_pass":        {"EMAIL_PASS"},
	"google_client_id":      {"GOOGLE_CLIENT_ID"},
	"google_client_secret":  {"GOOGLE_CLIENT_SECRET"},
}

// withLegacy returns v, or the first non-empty legacy variable for key.
func withLegacy(key, v string, getenv func(string) string) string {
	if v != "" {
		return v
	}
	for _, name := range legacyEnv[key] {
		if s := strings.TrimSpace(getenv(name)); s != "" {
			return s
		}
	}
	return ""
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// WAFFLE_* and EVENTPORTAL_* environment variables and flags, merged with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "EVENTPORTAL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	str := func(key string) string {
		return withLegacy(key, appValues.String(key), os.Getenv)
	}

	appCfg := AppConfig{
		MongoURI:         str("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:     str("jwt_secret"),
		SessionKey:    str("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),

		TrustedProxies: splitList(appValues.String("trusted_proxies")),

		Production: coreCfg.Env == "prod" || os.Getenv("NODE_ENV") == "production",

		TTLStore:      strings.ToLower(appValues.String("ttl_store")),
		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		ImageHost:           strings.ToLower(appValues.String("image_host")),
		CloudinaryCloudName: str("cloudinary_cloud_name"),
		CloudinaryAPIKey:    str("cloudinary_api_key"),
		CloudinaryAPISecret: str("cloudinary_api_secret"),
		CloudinaryFolder:    appValues.String("cloudinary_folder"),
		MinIOEndpoint:       appValues.String("minio_endpoint"),
		MinIOAccessKey:      appValues.String("minio_access_key"),
		MinIOSecretKey:      appValues.String("minio_secret_key"),
		MinIOBucket:         appValues.String("minio_bucket"),
		MinIOUseSSL:         appValues.Bool("minio_use_ssl"),
		MinIOPublicURL:      appValues.String("minio_public_url"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: str("mail_smtp_user"),
		MailSMTPPass: str("mail_smtp_pass"),
		MailSMTPTLS:  appValues.String("mail_smtp_tls"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL: appValues.String("base_url"),

		GoogleClientID:     str("google_client_id"),
		GoogleClientSecret: str("google_client_secret"),

		SecurityLogPath: appValues.String("security_log_path"),
		AuditLogMode:    appValues.String("audit_log"),
		AdminEmail:      appValues.String("admin_email"),
	}

	// EMAIL_USER/EMAIL_PASS deployments used Gmail without naming a host.
	if appCfg.MailSMTPHost == "" && os.Getenv("EMAIL_USER") != "" {
		appCfg.MailSMTPHost = "smtp.gmail.com"
		logger.Info("using smtp.gmail.com for legacy EMAIL_USER credentials")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Missing secrets, a missing or malformed MongoDB URI and missing
// credentials for the selected image host abort startup. Short secrets
// only warn.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var missing []string
	need := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}

	need("jwt_secret (JWT_SECRET)", appCfg.JWTSecret)
	need("session_key (SESSION_SECRET)", appCfg.SessionKey)
	need("mongo_uri (MONGO_URI)", appCfg.MongoURI)

	switch appCfg.ImageHost {
	case "cloudinary":
		need("cloudinary_cloud_name", appCfg.CloudinaryCloudName)
		need("cloudinary_api_key", appCfg.CloudinaryAPIKey)
		need("cloudinary_api_secret", appCfg.CloudinaryAPISecret)
	case "minio":
		need("minio_endpoint", appCfg.MinIOEndpoint)
		need("minio_access_key", appCfg.MinIOAccessKey)
		need("minio_secret_key", appCfg.MinIOSecretKey)
	default:
		return fmt.Errorf("image_host must be 'cloudinary' or 'minio', got %q", appCfg.ImageHost)
	}

	switch appCfg.TTLStore {
	case "memory":
	case "redis":
		need("redis_addr", appCfg.RedisAddr)
	default:
		return fmt.Errorf("ttl_store must be 'memory' or 'redis', got %q", appCfg.TTLStore)
	}

	if len(missing) > 0 {
		logger.Error("missing required configuration", zap.Strings("keys", missing))
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if _, err := clientip.ParseProxies(appCfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted_proxies: %w", err)
	}

	for _, w := range weakSecrets(appCfg) {
		logger.Warn("secret is shorter than recommended",
			zap.String("key", w),
			zap.Int("min_length", minSecretLen))
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return errors.New("google_client_id and google_client_secret must be set together")
	}

	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// weakSecrets names the secrets shorter than minSecretLen.
func weakSecrets(appCfg AppConfig) []string {
	var weak []string
	if len(appCfg.JWTSecret) < minSecretLen {
		weak = append(weak, "jwt_secret")
	}
	if len(appCfg.SessionKey) < minSecretLen {
		weak = append(weak, "session_key")
	}
	return weak
}
