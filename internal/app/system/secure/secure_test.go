package secure_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/app/system/secure"
	"go.uber.org/zap"
)

func newOperators(buf *bytes.Buffer) *secure.Operators {
	return secure.NewOperators(seclog.NewWithWriter(buf, zap.NewNop()))
}

func TestHeaders(t *testing.T) {
	h := secure.Headers(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	for _, name := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rec.Header().Get(name) == "" {
			t.Errorf("missing %s", name)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should not be sent over plain http")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS behind https proxy")
	}
}

func TestUnsafe(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"name", false},
		{"$gt", true},
		{"$where", true},
		{"profile.role", true},
		{"price$", false},
	}
	for _, tt := range tests {
		if got := secure.Unsafe(tt.key); got != tt.want {
			t.Errorf("Unsafe(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestOperators_Query(t *testing.T) {
	var buf bytes.Buffer
	var seen url.Values
	h := newOperators(&buf).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/event?q=talk&$where=1&a.b=2", nil))

	if seen.Get("q") != "talk" {
		t.Errorf("q = %q", seen.Get("q"))
	}
	if seen.Has("$where") || seen.Has("a.b") {
		t.Errorf("unsafe keys survived: %v", seen)
	}
	if !strings.Contains(buf.String(), "INJECTION_ATTEMPT") {
		t.Error("expected security event")
	}
}

func TestOperators_Form(t *testing.T) {
	var buf bytes.Buffer
	var name string
	h := newOperators(&buf).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name = r.FormValue("identifier")
		if r.PostForm.Has("$ne") {
			t.Error("unsafe post key survived")
		}
	}))

	form := url.Values{"identifier": {"ann"}, "$ne": {"x"}}
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if name != "ann" {
		t.Errorf("identifier = %q", name)
	}
}

func TestOperators_JSONNested(t *testing.T) {
	var buf bytes.Buffer
	var body map[string]any
	h := newOperators(&buf).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("handler got invalid JSON: %v", err)
		}
	}))

	req := httptest.NewRequest("POST", "/event", strings.NewReader(`{"title":"T","filter":{"$gt":""},"list":[{"x.y":1,"ok":2}]}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if body["title"] != "T" {
		t.Errorf("title = %v", body["title"])
	}
	if f, _ := body["filter"].(map[string]any); len(f) != 0 {
		t.Errorf("filter = %v, want empty", f)
	}
	item := body["list"].([]any)[0].(map[string]any)
	if _, ok := item["x.y"]; ok {
		t.Error("nested dotted key survived")
	}
	if !strings.Contains(buf.String(), "INJECTION_ATTEMPT") {
		t.Error("expected security event")
	}
}

func TestOperators_CleanJSONUntouched(t *testing.T) {
	var buf bytes.Buffer
	const payload = `{"title":"Hello"}`
	var got string
	h := newOperators(&buf).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		got = string(raw)
	}))

	req := httptest.NewRequest("POST", "/event", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != payload {
		t.Errorf("body = %q, want %q", got, payload)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected security log: %s", buf.String())
	}
}
