// Package seclog records security events as newline-delimited JSON.
//
// Each record has the fields timestamp, eventType, userId, ip, userAgent,
// details and severity. Records are appended to the security log file and
// mirrored to the application logger.
package seclog

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dalemusser/eventportal/internal/app/system/clientip"
	"github.com/dalemusser/eventportal/internal/app/system/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType names a kind of security event.
type EventType string

const (
	LoginSuccess           EventType = "LOGIN_SUCCESS"
	LoginFailed            EventType = "LOGIN_FAILED"
	Logout                 EventType = "LOGOUT"
	Registration           EventType = "REGISTRATION"
	AccountLocked          EventType = "ACCOUNT_LOCKED"
	EmailVerified          EventType = "EMAIL_VERIFIED"
	PasswordResetRequested EventType = "PASSWORD_RESET_REQUESTED"
	PasswordChanged        EventType = "PASSWORD_CHANGED"
	InvalidToken           EventType = "INVALID_TOKEN"
	TokenBlacklisted       EventType = "TOKEN_BLACKLISTED"
	UnauthorizedAccess     EventType = "UNAUTHORIZED_ACCESS"
	ForbiddenAccess        EventType = "FORBIDDEN_ACCESS"
	CSRFViolation          EventType = "CSRF_VIOLATION"
	RateLimitExceeded      EventType = "RATE_LIMIT_EXCEEDED"
	IPBlocked              EventType = "IP_BLOCKED"
	InjectionAttempt       EventType = "INJECTION_ATTEMPT"
	FileUploadRejected     EventType = "FILE_UPLOAD_REJECTED"
	SuspiciousFile         EventType = "SUSPICIOUS_FILE"
	FileUploaded           EventType = "FILE_UPLOADED"
	AdminAction            EventType = "ADMIN_ACTION"
	RoleChanged            EventType = "ROLE_CHANGED"
)

// Severity grades an event for triage.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severities = map[EventType]Severity{
	LoginSuccess:           SeverityLow,
	Logout:                 SeverityLow,
	Registration:           SeverityLow,
	EmailVerified:          SeverityLow,
	TokenBlacklisted:       SeverityLow,
	FileUploaded:           SeverityLow,
	LoginFailed:            SeverityMedium,
	PasswordResetRequested: SeverityMedium,
	PasswordChanged:        SeverityMedium,
	InvalidToken:           SeverityMedium,
	UnauthorizedAccess:     SeverityMedium,
	RateLimitExceeded:      SeverityMedium,
	FileUploadRejected:     SeverityMedium,
	AdminAction:            SeverityMedium,
	ForbiddenAccess:        SeverityHigh,
	CSRFViolation:          SeverityHigh,
	AccountLocked:          SeverityHigh,
	IPBlocked:              SeverityHigh,
	RoleChanged:            SeverityHigh,
	InjectionAttempt:       SeverityCritical,
	SuspiciousFile:         SeverityCritical,
}

// SeverityOf returns the severity for t. Unknown types are low.
func SeverityOf(t EventType) Severity {
	if s, ok := severities[t]; ok {
		return s
	}
	return SeverityLow
}

// Event is one security-relevant occurrence.
type Event struct {
	Type      EventType
	UserID    string
	IP        string
	UserAgent string
	Details   map[string]any
}

// Logger writes security events. A nil *Logger discards everything so
// components can be built without one in tests.
type Logger struct {
	file    *zap.Logger
	console *zap.Logger
	closer  io.Closer
}

// New opens (or creates) the NDJSON file at path for appending. An empty
// path disables the file sink; events still reach console.
func New(path string, console *zap.Logger) (*Logger, error) {
	if path == "" {
		return &Logger{console: console}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, err
	}
	l := NewWithWriter(f, console)
	l.closer = f
	return l, nil
}

// NewWithWriter writes records to w.
func NewWithWriter(w io.Writer, console *zap.Logger) *Logger {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		MessageKey:     "eventType",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.DebugLevel)
	return &Logger{file: zap.New(core), console: console}
}

// Log records ev.
func (l *Logger) Log(ev Event) {
	if l == nil {
		return
	}
	sev := SeverityOf(ev.Type)
	metrics.SecurityEvents.WithLabelValues(string(ev.Type), string(sev)).Inc()

	fields := []zap.Field{
		zap.String("userId", ev.UserID),
		zap.String("ip", ev.IP),
		zap.String("userAgent", ev.UserAgent),
		zap.Any("details", ev.Details),
		zap.String("severity", string(sev)),
	}
	if l.file != nil {
		l.file.Info(string(ev.Type), fields...)
	}
	if l.console != nil {
		cf := append([]zap.Field{zap.String("event_type", string(ev.Type))}, fields...)
		switch sev {
		case SeverityHigh, SeverityCritical:
			l.console.Warn("security event", cf...)
		default:
			l.console.Info("security event", cf...)
		}
	}
}

// Request records an event of type t for r, filling IP and user agent.
func (l *Logger) Request(r *http.Request, t EventType, userID string, details map[string]any) {
	if l == nil {
		return
	}
	ua := r.UserAgent()
	if len(ua) > 256 {
		ua = ua[:256]
	}
	l.Log(Event{
		Type:      t,
		UserID:    userID,
		IP:        clientip.From(r),
		UserAgent: ua,
		Details:   details,
	})
}

// Close flushes and closes the file sink.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = l.file.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
