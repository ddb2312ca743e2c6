package navigation

import (
	"net/http/httptest"
	"testing"
)

func TestSafeBackURL(t *testing.T) {
	tests := []struct {
		name   string
		target string
		opts   BackURLOptions
		want   string
	}{
		{"local path", "/club?returnTo=%2Fclub%2Fabc", ClubsBackURL, "/club/abc"},
		{"absolute url rejected", "/x?returnTo=https%3A%2F%2Fevil.test%2F", ClubsBackURL, "/club"},
		{"protocol relative rejected", "/x?returnTo=%2F%2Fevil.test", ClubsBackURL, "/club"},
		{"wrong prefix", "/x?returnTo=%2Fevent", ClubsBackURL, "/club"},
		{"excluded subpath", "/x?returnTo=%2Fclub%2Fabc%2Fedit", ClubsBackURL, "/club"},
		{"missing", "/x", EventsBackURL, "/event"},
		{"login return", "/auth/login?returnTo=%2Fuser%2Fann", LoginReturn, "/user/ann"},
		{"login loop", "/auth/login?returnTo=%2Fauth%2Flogin", LoginReturn, "/"},
		{"empty fallback", "/x", BackURLOptions{}, "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if got := SafeBackURL(req, tt.opts); got != tt.want {
				t.Errorf("SafeBackURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReferer(t *testing.T) {
	tests := []struct {
		name    string
		referer string
		want    string
	}{
		{"same host", "http://example.com/club/1?tab=gallery", "/club/1?tab=gallery"},
		{"other host", "http://evil.test/clubs/1", "/fallback"},
		{"missing", "", "/fallback"},
		{"relative", "/event", "/event"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "http://example.com/club/1/gallery", nil)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			if got := Referer(req, "/fallback"); got != tt.want {
				t.Errorf("Referer = %q, want %q", got, tt.want)
			}
		})
	}
}
