package secure

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/eventportal/internal/app/system/seclog"
)

// maxJSONBody bounds how much of a JSON body is buffered for inspection.
const maxJSONBody = 1 << 20

// Operators strips keys that MongoDB would read as operators or paths
// (a leading "$" or any ".") from the query string, urlencoded forms and
// JSON bodies. Each request that needed stripping is logged once as an
// INJECTION_ATTEMPT; the request itself proceeds with the cleaned input.
type Operators struct {
	sec *seclog.Logger
}

func NewOperators(sec *seclog.Logger) *Operators {
	return &Operators{sec: sec}
}

// Unsafe reports whether key would be interpreted by MongoDB.
func Unsafe(key string) bool {
	return strings.HasPrefix(key, "$") || strings.Contains(key, ".")
}

func (o *Operators) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var removed []string

		if r.URL.RawQuery != "" {
			q := r.URL.Query()
			if keys := stripValues(q); len(keys) > 0 {
				r.URL.RawQuery = q.Encode()
				removed = append(removed, keys...)
			}
		}

		ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		switch {
		case r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead:
		case ct == "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err == nil {
				removed = append(removed, stripValues(r.PostForm)...)
				r.Form = mergeForm(r.URL.Query(), r.PostForm)
			}
		case ct == "application/json" || strings.HasSuffix(ct, "+json"):
			removed = append(removed, stripJSONBody(r)...)
		}

		if len(removed) > 0 {
			o.sec.Request(r, seclog.InjectionAttempt, "", map[string]any{
				"path": r.URL.Path,
				"keys": removed,
			})
		}
		next.ServeHTTP(w, r)
	})
}

func stripValues(v url.Values) []string {
	var removed []string
	for k := range v {
		if Unsafe(k) {
			removed = append(removed, k)
			delete(v, k)
		}
	}
	return removed
}

func mergeForm(query, post url.Values) url.Values {
	out := make(url.Values, len(query)+len(post))
	for k, vs := range post {
		out[k] = append(out[k], vs...)
	}
	for k, vs := range query {
		out[k] = append(out[k], vs...)
	}
	return out
}

// stripJSONBody rewrites r.Body without unsafe keys. Bodies that are too
// large or not JSON are restored untouched for the handler to reject.
func stripJSONBody(r *http.Request) []string {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	_ = r.Body.Close()
	if err != nil || len(raw) > maxJSONBody {
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
		return nil
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil
	}
	var removed []string
	doc = StripKeys(doc, &removed)
	if len(removed) == 0 {
		return nil
	}
	clean, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	r.Body = io.NopCloser(bytes.NewReader(clean))
	r.ContentLength = int64(len(clean))
	return removed
}

// StripKeys removes unsafe keys from decoded JSON at any depth and appends
// each removed key to removed.
func StripKeys(v any, removed *[]string) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if Unsafe(k) {
				*removed = append(*removed, k)
				delete(t, k)
				continue
			}
			t[k] = StripKeys(child, removed)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = StripKeys(child, removed)
		}
		return t
	default:
		return v
	}
}
