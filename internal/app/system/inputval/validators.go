// internal/app/system/inputval/validators.go
package inputval

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/eventportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,30}$`)

// IsValidEmail reports whether s is a single bare address (no display name)
// with a well-formed local part and domain.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if part == "" || strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// IsValidObjectID reports whether s is a 24-character hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.ToLower(strings.TrimSpace(s)))
	return err == nil
}

// IsValidEventType reports whether s names one of the event types.
func IsValidEventType(s string) bool {
	return models.IsValidEventType(strings.ToLower(strings.TrimSpace(s)))
}

// EventTypesList returns the event types in display order.
func EventTypesList() []string {
	out := make([]string, len(models.EventTypes))
	copy(out, models.EventTypes)
	return out
}

// IsValidFormFieldType reports whether s is a supported recruitment form field type.
func IsValidFormFieldType(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range models.FormFieldTypes {
		if t == s {
			return true
		}
	}
	return false
}

// IsValidRole reports whether s is a user role.
func IsValidRole(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.RoleAdmin, models.RoleUser:
		return true
	}
	return false
}

// IsValidUsername reports whether s is 3-30 letters, digits, dots, dashes
// or underscores.
func IsValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// IsValidClock reports whether s is a 24-hour HH:MM time.
func IsValidClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}
