package admin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dalemusser/eventportal/internal/app/features/admin"
	uierrors "github.com/dalemusser/eventportal/internal/app/features/errors"
	clubstore "github.com/dalemusser/eventportal/internal/app/store/clubs"
	registrationstore "github.com/dalemusser/eventportal/internal/app/store/registrations"
	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/auth"
	"github.com/dalemusser/eventportal/internal/app/system/seclog"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type harness struct {
	h      *admin.Handler
	db     *mongo.Database
	fx     *testutil.Fixtures
	sec    *testutil.Security
	images *testutil.FakeImageHost
}

func newHarness(t *testing.T, failIDs ...string) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	images := testutil.NewFakeImageHost(failIDs...)
	sec := testutil.NewSecurity(t)
	h := admin.NewHandler(db, images, sec.Sessions, sec.Sec, testutil.NewAudit(db), uierrors.NewErrorLogger(logger), logger)
	return &harness{h: h, db: db, fx: testutil.NewFixtures(t, db), sec: sec, images: images}
}

func asUser(r *http.Request, u *auth.SessionUser, id string) *http.Request {
	r = auth.WithUser(r, u)
	if id != "" {
		r = testutil.WithChiURLParam(r, "id", id)
	}
	return r
}

func TestRoutes_AdminOnly(t *testing.T) {
	hs := newHarness(t)
	router := admin.Routes(hs.h)

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"guest", nil, http.StatusUnauthorized},
		{"member", testutil.MemberUser(), http.StatusForbidden},
		{"moderator", testutil.ModeratorUser(primitive.NewObjectID()), http.StatusForbidden},
		{"admin", testutil.AdminUser(), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Accept", "application/json")
			if tt.user != nil {
				req = auth.WithUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServeDashboard_Counts(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := hs.fx.CreateAdmin(ctx, "dashadmin")
	c := hs.fx.CreateClub(ctx, "Robotics")
	hs.fx.CreateEvent(ctx, "Build night", c.ID, adm.ID, 2)

	req := asUser(httptest.NewRequest("GET", "/admin", nil), testutil.SessionFor(adm), "")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	hs.h.ServeDashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Counts struct {
			Users  int64
			Clubs  int64
			Events int64
		} `json:"counts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Counts.Users != 1 || body.Counts.Clubs != 1 || body.Counts.Events != 1 {
		t.Errorf("counts = %+v", body.Counts)
	}
}

func TestHandleClubDelete_Cascade(t *testing.T) {
	hs := newHarness(t, "clubs/banner", "clubs/gallery-2")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := hs.fx.CreateAdmin(ctx, "cascadeadmin")
	mod := hs.fx.CreateMember(ctx, "cascademod")
	now := time.Now().UTC()
	c := hs.fx.InsertClub(ctx, models.Club{
		Name:        "Photography",
		Description: "Cameras",
		Image:       testutil.CloudinaryURL("clubs/logo"),
		Banner:      testutil.CloudinaryURL("clubs/banner"),
		Gallery: []models.GalleryItem{
			{URL: testutil.CloudinaryURL("clubs/gallery-1"), UploadedBy: adm.ID, UploadedAt: now},
			{URL: testutil.CloudinaryURL("clubs/gallery-2"), UploadedBy: adm.ID, UploadedAt: now},
		},
		Moderators: []primitive.ObjectID{mod.ID},
	})
	if err := userstore.New(hs.db).AddModeratorOf(ctx, mod.ID, c.ID); err != nil {
		t.Fatalf("AddModeratorOf: %v", err)
	}

	host := hs.fx.CreateClub(ctx, "Film")
	ev := hs.fx.CreateEvent(ctx, "Joint shoot", host.ID, adm.ID, 5)
	if _, err := hs.db.Collection("events").UpdateByID(ctx, ev.ID, bson.M{"$set": bson.M{"collab_clubs": []primitive.ObjectID{c.ID}}}); err != nil {
		t.Fatalf("add collaborator: %v", err)
	}

	rec := hs.fx.CreateRecruitment(ctx, "Photographers wanted", c.ID, adm.ID, now.Add(72*time.Hour))
	if _, err := registrationstore.New(hs.db).Create(ctx, models.Registration{
		Recruitment: rec.ID, Name: "Pat", Email: "pat@example.com",
	}); err != nil {
		t.Fatalf("registration: %v", err)
	}
	clubID := c.ID
	hs.fx.CreateAnnouncement(ctx, "Photo walk", adm.ID, &clubID)

	req := asUser(testutil.NewFormRequest("POST", "/admin/clubs/delete/"+c.ID.Hex(), url.Values{}), testutil.SessionFor(adm), c.ID.Hex())
	w := testutil.NewRecorder()
	hs.h.HandleClubDelete(w, req)

	w.AssertStatus(t, http.StatusFound)
	if loc := w.Header().Get("Location"); loc != "/admin/clubs" {
		t.Errorf("Location = %q, want /admin/clubs", loc)
	}
	if got := hs.images.DestroyCalls(); got != 4 {
		t.Errorf("destroy calls = %d, want 4 (%v)", got, hs.images.Destroyed)
	}

	if _, err := clubstore.New(hs.db).GetByID(ctx, c.ID); err != mongo.ErrNoDocuments {
		t.Errorf("club still present: %v", err)
	}
	counts := []struct {
		coll   string
		filter bson.M
	}{
		{"recruitments", bson.M{"club": c.ID}},
		{"registrations", bson.M{"recruitment": rec.ID}},
		{"announcements", bson.M{"club": c.ID}},
		{"users", bson.M{"moderator_of": c.ID}},
		{"events", bson.M{"collab_clubs": c.ID}},
	}
	for _, tc := range counts {
		n, err := hs.db.Collection(tc.coll).CountDocuments(ctx, tc.filter)
		if err != nil {
			t.Fatalf("count %s: %v", tc.coll, err)
		}
		if n != 0 {
			t.Errorf("%s still references the club (%d)", tc.coll, n)
		}
	}
	if n, _ := hs.db.Collection("events").CountDocuments(ctx, bson.M{"_id": ev.ID}); n != 1 {
		t.Error("collaborating event should be kept")
	}
	if n := testutil.CountLogs(t, ctx, hs.db, models.ActionDelete, "club"); n != 1 {
		t.Errorf("audit entries = %d, want 1", n)
	}
}

func TestHandleClubDelete_JSONReportsFailures(t *testing.T) {
	hs := newHarness(t, "clubs/a")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := hs.fx.InsertClub(ctx, models.Club{
		Name:        "Sailing",
		Description: "Boats",
		Image:       testutil.CloudinaryURL("clubs/a"),
		Banner:      "https://example.com/banner.jpg",
	})

	req := asUser(testutil.NewJSONRequest("POST", "/admin/clubs/delete/x", "{}"), testutil.AdminUser(), c.ID.Hex())
	w := testutil.NewRecorder()
	hs.h.HandleClubDelete(w, req)

	w.AssertStatus(t, http.StatusOK)
	var body struct {
		ImagesDeleted int `json:"imagesDeleted"`
		ImagesFailed  int `json:"imagesFailed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ImagesDeleted != 0 || body.ImagesFailed != 1 {
		t.Errorf("deleted=%d failed=%d, want 0 and 1", body.ImagesDeleted, body.ImagesFailed)
	}
	if got := hs.images.DestroyCalls(); got != 1 {
		t.Errorf("destroy calls = %d, want 1 (non-host URL skipped)", got)
	}
}

func TestHandleClubDelete_NotFound(t *testing.T) {
	hs := newHarness(t)

	for _, id := range []string{"nope", primitive.NewObjectID().Hex()} {
		req := asUser(testutil.NewJSONRequest("POST", "/admin/clubs/delete/x", "{}"), testutil.AdminUser(), id)
		rec := httptest.NewRecorder()
		hs.h.HandleClubDelete(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", id, rec.Code)
		}
	}
}

func TestHandleClubCreate(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	hs.fx.CreateClub(ctx, "Debate")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"created", `{"name":"Chess  Club","description":"Knights and bishops","extra":"dropped"}`, http.StatusCreated},
		{"duplicate name", `{"name":"debate","description":"Again"}`, http.StatusBadRequest},
		{"missing description", `{"name":"Go"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(testutil.NewJSONRequest("POST", "/admin/clubs", tt.body), testutil.AdminUser(), "")
			rec := httptest.NewRecorder()
			hs.h.HandleClubCreate(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if n := testutil.CountLogs(t, ctx, hs.db, models.ActionCreate, "club"); n != 1 {
		t.Errorf("audit entries = %d, want 1", n)
	}
}

func TestHandleRoleChange(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := hs.fx.CreateAdmin(ctx, "roleadmin")
	target := hs.fx.CreateMember(ctx, "promoteme")

	req := asUser(testutil.NewJSONRequest("POST", "/admin/users/x/role", `{"role":"admin"}`), testutil.SessionFor(adm), target.ID.Hex())
	rec := httptest.NewRecorder()
	hs.h.HandleRoleChange(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got, err := userstore.New(hs.db).GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", got.Role)
	}
	if !hs.sec.Logged(seclog.RoleChanged) {
		t.Error("expected a ROLE_CHANGED security event")
	}
	if n := testutil.CountLogs(t, ctx, hs.db, models.ActionEdit, "user"); n != 1 {
		t.Errorf("audit entries = %d, want 1", n)
	}
}

func TestHandleRoleChange_Rejects(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	adm := hs.fx.CreateAdmin(ctx, "rejectadmin")
	target := hs.fx.CreateMember(ctx, "rejecttarget")

	tests := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"own account", adm.ID.Hex(), `{"role":"user"}`, http.StatusBadRequest},
		{"unknown role", target.ID.Hex(), `{"role":"superuser"}`, http.StatusBadRequest},
		{"missing user", primitive.NewObjectID().Hex(), `{"role":"admin"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(testutil.NewJSONRequest("POST", "/admin/users/x/role", tt.body), testutil.SessionFor(adm), tt.id)
			rec := httptest.NewRecorder()
			hs.h.HandleRoleChange(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleSoftDelete(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	target := hs.fx.CreateMember(ctx, "softgone")
	req := asUser(testutil.NewFormRequest("POST", "/admin/users/x/delete", url.Values{}), testutil.AdminUser(), target.ID.Hex())
	rec := testutil.NewRecorder()
	hs.h.HandleSoftDelete(rec, req)

	rec.AssertRedirect(t, "/admin/users")
	users := userstore.New(hs.db)
	if _, err := users.GetByUsername(ctx, "softgone"); err != mongo.ErrNoDocuments {
		t.Errorf("soft-deleted user still resolvable: %v", err)
	}
	got, err := users.GetByID(ctx, target.ID)
	if err != nil || !got.Deleted {
		t.Errorf("record should remain flagged deleted: %+v %v", got, err)
	}
}

func TestHandleHardDelete_CleansUp(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	target := hs.fx.CreateMember(ctx, "hardgone")
	avatar := testutil.CloudinaryURL("avatars/hardgone")
	if _, err := hs.db.Collection("users").UpdateByID(ctx, target.ID, bson.M{"$set": bson.M{"avatar": avatar}}); err != nil {
		t.Fatalf("set avatar: %v", err)
	}
	c := hs.fx.CreateClub(ctx, "Hiking", target.ID)

	req := asUser(testutil.NewJSONRequest("POST", "/admin/users/x/purge", "{}"), testutil.AdminUser(), target.ID.Hex())
	rec := testutil.NewRecorder()
	hs.h.HandleHardDelete(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"imagesDeleted":1`)
	if len(hs.images.Destroyed) != 1 || hs.images.Destroyed[0] != "avatars/hardgone" {
		t.Errorf("destroyed = %v", hs.images.Destroyed)
	}
	if _, err := userstore.New(hs.db).GetByID(ctx, target.ID); err != mongo.ErrNoDocuments {
		t.Errorf("user still present: %v", err)
	}
	got, err := clubstore.New(hs.db).GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("club: %v", err)
	}
	if len(got.Moderators) != 0 {
		t.Errorf("moderators = %v, want none", got.Moderators)
	}
}

func TestHandleRoleDecision(t *testing.T) {
	tests := []struct {
		name      string
		approve   string
		deleteClb bool
		wantMod   bool
	}{
		{"approve", "true", false, true},
		{"deny", "false", false, false},
		{"approve deleted club", "true", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			u := hs.fx.CreateMember(ctx, "requester")
			c := hs.fx.CreateClub(ctx, "Origami")
			users := userstore.New(hs.db)
			if err := users.SetRoleRequest(ctx, u.ID, models.RoleRequest{ClubID: c.ID, Message: "I fold"}); err != nil {
				t.Fatalf("SetRoleRequest: %v", err)
			}
			if tt.deleteClb {
				if _, err := clubstore.New(hs.db).Delete(ctx, c.ID); err != nil {
					t.Fatalf("delete club: %v", err)
				}
			}

			form := url.Values{"approve": {tt.approve}}
			req := asUser(testutil.NewFormRequest("POST", "/admin/role-requests/x", form), testutil.AdminUser(), u.ID.Hex())
			rec := testutil.NewRecorder()
			hs.h.HandleRoleDecision(rec, req)
			rec.AssertRedirect(t, "/admin/role-requests")

			got, err := users.GetByID(ctx, u.ID)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if got.RoleRequest != nil {
				t.Error("request should be cleared")
			}
			isMod := len(got.ModeratorOf) == 1 && got.ModeratorOf[0] == c.ID
			if isMod != tt.wantMod {
				t.Errorf("moderator_of = %v, want moderator %v", got.ModeratorOf, tt.wantMod)
			}
			if tt.wantMod {
				club, err := clubstore.New(hs.db).GetByID(ctx, c.ID)
				if err != nil || len(club.Moderators) != 1 {
					t.Errorf("club moderators = %v (%v)", club.Moderators, err)
				}
			}
			if n := testutil.CountLogs(t, ctx, hs.db, models.ActionEdit, "club"); n != 1 {
				t.Errorf("audit entries = %d, want 1", n)
			}
		})
	}
}

func TestHandleRoleDecision_NoPendingRequest(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := hs.fx.CreateMember(ctx, "norequest")
	req := asUser(testutil.NewJSONRequest("POST", "/admin/role-requests/x", `{"approve":true}`), testutil.AdminUser(), u.ID.Hex())
	rec := httptest.NewRecorder()
	hs.h.HandleRoleDecision(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleEventDelete(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := hs.fx.CreateMember(ctx, "eventowner")
	c := hs.fx.CreateClub(ctx, "Theatre")
	ev := hs.fx.CreateEvent(ctx, "Opening night", c.ID, owner.ID, 4)
	if _, err := hs.db.Collection("events").UpdateByID(ctx, ev.ID, bson.M{"$set": bson.M{"image": testutil.CloudinaryURL("events/poster")}}); err != nil {
		t.Fatalf("set image: %v", err)
	}

	req := asUser(testutil.NewJSONRequest("POST", "/admin/events/delete/x", "{}"), testutil.AdminUser(), ev.ID.Hex())
	rec := testutil.NewRecorder()
	hs.h.HandleEventDelete(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"imagesDeleted":1`)
	if n, _ := hs.db.Collection("events").CountDocuments(ctx, bson.M{"_id": ev.ID}); n != 0 {
		t.Error("event should be deleted")
	}
	if n := testutil.CountLogs(t, ctx, hs.db, models.ActionDelete, "event"); n != 1 {
		t.Errorf("audit entries = %d, want 1", n)
	}
}

func TestServeLogs_Filters(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := asUser(testutil.NewJSONRequest("POST", "/admin/clubs", `{"name":"Logged","description":"d"}`), testutil.AdminUser(), "")
	hs.h.HandleClubCreate(httptest.NewRecorder(), req)
	target := hs.fx.CreateMember(ctx, "loggeduser")
	req = asUser(testutil.NewFormRequest("POST", "/admin/users/x/delete", url.Values{}), testutil.AdminUser(), target.ID.Hex())
	hs.h.HandleSoftDelete(httptest.NewRecorder(), req)

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?action=create", 1},
		{"?target=user", 1},
		{"?action=DELETE&target=club", 0},
		{"?action=bogus", 2},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := asUser(httptest.NewRequest("GET", "/admin/logs"+tt.query, nil), testutil.AdminUser(), "")
			req.Header.Set("Accept", "application/json")
			rec := httptest.NewRecorder()
			hs.h.ServeLogs(rec, req)

			var body struct {
				Logs []models.Log `json:"logs"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Logs) != tt.want {
				t.Errorf("entries = %d, want %d", len(body.Logs), tt.want)
			}
		})
	}
}
