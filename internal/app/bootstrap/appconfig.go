// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, log level, body limits); AppConfig
// is everything specific to the event portal.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Secrets
	JWTSecret  string // Signs access, verification and reset tokens
	SessionKey string // Signs the gorilla session cookie

	// Session cookie
	SessionName   string        // Cookie name (default: eventportal-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Lifetime of the session cookie

	// TrustedProxies lists the reverse proxies (IPs or CIDRs) whose
	// X-Forwarded-For and X-Real-IP headers name the client.
	TrustedProxies []string

	// Production forces Secure cookies. True when WAFFLE runs in prod or
	// NODE_ENV=production.
	Production bool

	// Shared TTL store: "memory" or "redis"
	TTLStore      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Image host: "cloudinary" or "minio"
	ImageHost           string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string // prefix for every public id
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOBucket         string
	MinIOUseSSL         bool
	MinIOPublicURL      string

	// Email/SMTP configuration. A blank host logs emails instead of sending.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailSMTPTLS  string // mandatory | opportunistic | none
	MailFrom     string
	MailFromName string

	// Base URL for email links and the OAuth callback
	BaseURL string // e.g., "https://events.example.edu" or "http://localhost:3000"

	// Google OAuth configuration (optional)
	GoogleClientID     string
	GoogleClientSecret string

	// Security log (NDJSON)
	SecurityLogPath string

	// Audit logging mode: 'all' (db+log), 'db', 'log', or 'off'
	AuditLogMode string

	// AdminEmail promotes the matching account to admin at startup.
	AdminEmail string
}
