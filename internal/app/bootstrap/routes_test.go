package bootstrap

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/eventportal/internal/testutil"
	"github.com/go-chi/chi/v5"
)

func TestMountPortal_SingularPrefixes(t *testing.T) {
	db := testutil.SetupTestDB(t)

	svc, err := newServices(nil, validConfig(), DBDeps{MongoDatabase: db}, testLogger())
	if err != nil {
		t.Fatalf("newServices: %v", err)
	}
	r := chi.NewRouter()
	mountPortal(r, db, svc, testLogger())

	seen := map[string]bool{}
	err = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+strings.TrimSuffix(route, "/")] = true
		for _, plural := range []string{"/clubs", "/events", "/recruitments"} {
			if strings.HasPrefix(route, plural) {
				t.Errorf("route %s %s uses a plural prefix", method, route)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	for _, want := range []string{
		"GET /club",
		"GET /club/{id}",
		"POST /club/{id}/gallery",
		"GET /event",
		"GET /event/{id}",
		"POST /event/{id}/edit",
		"GET /recruitment",
		"GET /recruitment/new",
		"GET /announcements",
	} {
		if !seen[want] {
			t.Errorf("missing route %q", want)
		}
	}
}
