package club_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dalemusser/eventportal/internal/app/features/club"
	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type harness struct {
	h      *club.Handler
	db     *mongo.Database
	fx     *testutil.Fixtures
	images *testutil.FakeImageHost
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	images := testutil.NewFakeImageHost()
	sec := testutil.NewSecurity(t)
	h := club.NewHandler(db, images, sec.Sessions, testutil.NewAudit(db), uierrors.NewErrorLogger(logger), logger)
	return &harness{h: h, db: db, fx: testutil.NewFixtures(t, db), images: images}
}

func clubRequest(r *http.Request, user *auth.SessionUser, id string) *http.Request {
	if user != nil {
		r = auth.WithUser(r, user)
	}
	return testutil.WithChiURLParam(r, "id", id)
}

func TestServeView_JSON(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := hs.fx.CreateAdmin(ctx, "viewadmin")
	c := hs.fx.CreateClub(ctx, "Astronomy")
	hs.fx.CreateEvent(ctx, "Star party", c.ID, admin.ID, 5)

	req := clubRequest(httptest.NewRequest("GET", "/club/x", nil), nil, c.ID.Hex())
	req.Header.Set("Accept", "application/json")
	rec := testutil.NewRecorder()
	hs.h.ServeView(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Star party")
}

func TestServeView_NotFound(t *testing.T) {
	hs := newHarness(t)

	for _, id := range []string{"not-an-id", "64b000000000000000000000"} {
		req := clubRequest(httptest.NewRequest("GET", "/club/x", nil), nil, id)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		hs.h.ServeView(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", id, rec.Code)
		}
	}
}

func TestHandleEdit_ReplacesImage(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mod := hs.fx.CreateMember(ctx, "clubmod")
	c := hs.fx.InsertClub(ctx, models.Club{
		Name:        "Photography",
		Description: "Lenses",
		Image:       testutil.CloudinaryURL("clubs/photo-old"),
		Moderators:  []primitive.ObjectID{mod.ID},
	})

	form := url.Values{
		"name":        {"Photography Society"},
		"description": {"Lenses and light"},
		"image":       {testutil.CloudinaryURL("clubs/photo-new")},
	}
	req := clubRequest(testutil.NewFormRequest("POST", "/club/x/edit", form), testutil.ModeratorUser(c.ID), c.ID.Hex())
	rec := httptest.NewRecorder()
	hs.h.HandleEdit(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/club/"+c.ID.Hex() {
		t.Fatalf("got %d → %q", rec.Code, rec.Header().Get("Location"))
	}
	got, _ := clubstore.New(hs.db).GetByID(ctx, c.ID)
	if got.Name != "Photography Society" || got.Image != testutil.CloudinaryURL("clubs/photo-new") {
		t.Errorf("club = %+v", got)
	}
	if len(hs.images.Destroyed) != 1 || hs.images.Destroyed[0] != "clubs/photo-old" {
		t.Errorf("destroyed = %v, want [clubs/photo-old]", hs.images.Destroyed)
	}
	if n := testutil.CountLogs(t, ctx, hs.db, models.ActionEdit, "club"); n != 1 {
		t.Errorf("audit entries = %d, want 1", n)
	}
}

func TestHandleEdit_ValidationJSON(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := hs.fx.CreateClub(ctx, "Debate")

	req := clubRequest(testutil.NewJSONRequest("POST", "/club/x/edit", `{"name":"","description":"x","image":"javascript:alert(1)"}`), testutil.AdminUser(), c.ID.Hex())
	rec := httptest.NewRecorder()
	hs.h.HandleEdit(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if hs.images.DestroyCalls() != 0 {
		t.Error("no image should be touched on validation failure")
	}
}

func TestGallery_AddAndRemove(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := hs.fx.CreateClub(ctx, "Film")
	admin := testutil.AdminUser()

	for _, id := range []string{"gallery/a", "gallery/b"} {
		req := clubRequest(testutil.NewFormRequest("POST", "/club/x/gallery", url.Values{
			"url":     {testutil.CloudinaryURL(id)},
			"caption": {"Shot " + id},
		}), admin, c.ID.Hex())
		rec := httptest.NewRecorder()
		hs.h.HandleGalleryAdd(rec, req)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("add %s: status = %d", id, rec.Code)
		}
	}

	got, _ := clubstore.New(hs.db).GetByID(ctx, c.ID)
	if len(got.Gallery) != 2 {
		t.Fatalf("gallery size = %d, want 2", len(got.Gallery))
	}

	req := clubRequest(testutil.NewFormRequest("POST", "/club/x/gallery/0/delete", nil), admin, c.ID.Hex())
	req = testutil.WithChiURLParam(req, "index", "0")
	rec := httptest.NewRecorder()
	hs.h.HandleGalleryRemove(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("remove: status = %d", rec.Code)
	}

	got, _ = clubstore.New(hs.db).GetByID(ctx, c.ID)
	if len(got.Gallery) != 1 || got.Gallery[0].URL != testutil.CloudinaryURL("gallery/b") {
		t.Errorf("gallery after remove = %+v", got.Gallery)
	}
	if len(hs.images.Destroyed) != 1 || hs.images.Destroyed[0] != "gallery/a" {
		t.Errorf("destroyed = %v", hs.images.Destroyed)
	}
}

func TestGallery_RemoveOutOfRange(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := hs.fx.CreateClub(ctx, "Empty")

	req := clubRequest(testutil.NewJSONRequest("POST", "/club/x/gallery/3/delete", ""), testutil.AdminUser(), c.ID.Hex())
	req = testutil.WithChiURLParam(req, "index", "3")
	rec := httptest.NewRecorder()
	hs.h.HandleGalleryRemove(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestModerators_AddAndRemove(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := hs.fx.CreateClub(ctx, "Hiking")
	u := hs.fx.CreateMember(ctx, "hiker")
	admin := testutil.AdminUser()

	req := clubRequest(testutil.NewFormRequest("POST", "/club/x/moderators", url.Values{"userId": {u.ID.Hex()}}), admin, c.ID.Hex())
	rec := httptest.NewRecorder()
	hs.h.HandleModeratorAdd(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add: status = %d", rec.Code)
	}

	gotClub, _ := clubstore.New(hs.db).GetByID(ctx, c.ID)
	gotUser, _ := userstore.New(hs.db).GetByID(ctx, u.ID)
	if len(gotClub.Moderators) != 1 || !gotUser.Moderates(c.ID) {
		t.Fatalf("moderator link incomplete: club=%v user=%v", gotClub.Moderators, gotUser.ModeratorOf)
	}

	req = clubRequest(testutil.NewFormRequest("POST", "/club/x/moderators/y/delete", nil), admin, c.ID.Hex())
	req = testutil.WithChiURLParam(req, "userID", u.ID.Hex())
	rec = httptest.NewRecorder()
	hs.h.HandleModeratorRemove(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("remove: status = %d", rec.Code)
	}

	gotClub, _ = clubstore.New(hs.db).GetByID(ctx, c.ID)
	gotUser, _ = userstore.New(hs.db).GetByID(ctx, u.ID)
	if len(gotClub.Moderators) != 0 || gotUser.Moderates(c.ID) {
		t.Errorf("moderator link not removed: club=%v user=%v", gotClub.Moderators, gotUser.ModeratorOf)
	}
}

func TestModerators_UnknownUser(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := hs.fx.CreateClub(ctx, "Knitting")

	req := clubRequest(testutil.NewJSONRequest("POST", "/club/x/moderators", `{"userId":"64b000000000000000000001"}`), testutil.AdminUser(), c.ID.Hex())
	rec := httptest.NewRecorder()
	hs.h.HandleModeratorAdd(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRoutes_ModeratorAccess(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	mine := hs.fx.CreateClub(ctx, "Mine")
	other := hs.fx.CreateClub(ctx, "Other")
	router := club.Routes(hs.h)

	tests := []struct {
		name   string
		path   string
		user   *auth.SessionUser
		status int
	}{
		{"guest edit", "/" + mine.ID.Hex() + "/gallery/0/delete", nil, http.StatusUnauthorized},
		{"moderator other club", "/" + other.ID.Hex() + "/gallery/0/delete", testutil.ModeratorUser(mine.ID), http.StatusForbidden},
		{"moderator adds moderator", "/" + mine.ID.Hex() + "/moderators", testutil.ModeratorUser(mine.ID), http.StatusForbidden},
		{"moderator own club", "/" + mine.ID.Hex() + "/gallery/0/delete", testutil.ModeratorUser(mine.ID), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest("POST", tt.path, "{}")
			if tt.user != nil {
				req = auth.WithUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
