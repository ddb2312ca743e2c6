// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
)

// ReturnParam is the query/form key that carries a post-action destination.
const ReturnParam = "returnTo"

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/club").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject (e.g., "/edit", "/delete").
	// These prevent redirect loops back to action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks the query parameter and then the form value for "returnTo",
// rejects anything that is not a local path, and applies the prefix and
// subpath rules.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	ret := LocalPath(query.Get(r, ReturnParam))
	if ret == "" {
		ret = LocalPath(r.FormValue(ReturnParam))
	}

	if ret != "" && allowed(ret, opts) {
		return ret
	}
	if opts.Fallback == "" {
		return "/"
	}
	return opts.Fallback
}

func allowed(ret string, opts BackURLOptions) bool {
	if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
		return false
	}
	for _, excluded := range opts.ExcludedSubpaths {
		if strings.Contains(ret, excluded) {
			return false
		}
	}
	return true
}

// Referer returns the path and query of the Referer header when it points
// at this host, otherwise fallback.
func Referer(r *http.Request, fallback string) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && !strings.EqualFold(u.Host, r.Host)) {
		return fallback
	}
	if p := LocalPath(u.RequestURI()); p != "" {
		return p
	}
	return fallback
}

// LocalPath returns p when it is a path on this site ("/..." but not
// "//host" or "/\host"), otherwise "".
func LocalPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return ""
	}
	if strings.ContainsAny(p, "\r\n") {
		return ""
	}
	return p
}

// Common back URL configurations for reuse across packages.
var (
	ClubsBackURL = BackURLOptions{
		AllowedPrefix:    "/club",
		ExcludedSubpaths: []string{"/edit", "/delete"},
		Fallback:         "/club",
	}

	EventsBackURL = BackURLOptions{
		AllowedPrefix:    "/event",
		ExcludedSubpaths: []string{"/edit", "/delete", "/new"},
		Fallback:         "/event",
	}

	RecruitmentsBackURL = BackURLOptions{
		AllowedPrefix:    "/recruitment",
		ExcludedSubpaths: []string{"/delete", "/new"},
		Fallback:         "/recruitment",
	}

	AnnouncementsBackURL = BackURLOptions{
		AllowedPrefix:    "/announcements",
		ExcludedSubpaths: []string{"/delete", "/new"},
		Fallback:         "/announcements",
	}

	AdminBackURL = BackURLOptions{
		AllowedPrefix:    "/admin",
		ExcludedSubpaths: []string{"/delete"},
		Fallback:         "/admin",
	}

	// LoginReturn is where a successful login may land.
	LoginReturn = BackURLOptions{
		ExcludedSubpaths: []string{"/auth/"},
		Fallback:         "/",
	}
)
