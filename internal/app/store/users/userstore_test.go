package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/eventportal/internal/app/store/users"
	"github.com/dalemusser/eventportal/internal/app/system/indexes"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/eventportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func newStore(t *testing.T) (*userstore.Store, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return userstore.New(db), db
}

func TestStore_CreateAndLookup(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Name: "  Ann   Lee ", Username: "AnnLee", Email: " Ann@Example.COM "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.Name != "Ann Lee" || u.Email != "ann@example.com" || u.Role != models.RoleUser {
		t.Errorf("normalization: got %+v", u)
	}
	if u.UsernameCI != "annlee" {
		t.Errorf("UsernameCI = %q, want %q", u.UsernameCI, "annlee")
	}

	for _, ident := range []string{"annlee", "ANNLEE", "ann@example.com"} {
		got, err := store.GetByIdentifier(ctx, ident)
		if err != nil {
			t.Errorf("GetByIdentifier(%q): %v", ident, err)
			continue
		}
		if got.ID != u.ID {
			t.Errorf("GetByIdentifier(%q) returned %s", ident, got.ID.Hex())
		}
	}

	if _, err := store.GetByUsername(ctx, "nobody"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByUsername(missing) err = %v, want ErrNoDocuments", err)
	}
}

func TestStore_Create_Duplicates(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "A", Username: "ann", Email: "ann@x.io"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.User{Name: "B", Username: "ANN", Email: "other@x.io"}); !errors.Is(err, userstore.ErrDuplicateUsername) {
		t.Errorf("duplicate username err = %v", err)
	}
	if _, err := store.Create(ctx, models.User{Name: "C", Username: "bob", Email: "ANN@x.io"}); !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("duplicate email err = %v", err)
	}
	if _, err := store.Create(ctx, models.User{Name: "D", Username: "dan", Email: "d@x.io", Role: "root"}); err == nil {
		t.Error("expected error for bad role")
	}
}

func TestStore_RoleRequestLifecycle(t *testing.T) {
	store, db := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateMember(ctx, "requester")
	club := primitive.NewObjectID()

	if err := store.SetRoleRequest(ctx, u.ID, models.RoleRequest{ClubID: club, Message: "please"}); err != nil {
		t.Fatalf("SetRoleRequest: %v", err)
	}
	pending, err := store.ListRoleRequests(ctx)
	if err != nil {
		t.Fatalf("ListRoleRequests: %v", err)
	}
	if len(pending) != 1 || pending[0].RoleRequest == nil || pending[0].RoleRequest.ClubID != club {
		t.Fatalf("pending = %+v", pending)
	}

	if err := store.AddModeratorOf(ctx, u.ID, club); err != nil {
		t.Fatalf("AddModeratorOf: %v", err)
	}
	if err := store.ClearRoleRequest(ctx, u.ID); err != nil {
		t.Fatalf("ClearRoleRequest: %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if got.RoleRequest != nil {
		t.Error("role request not cleared")
	}
	if !got.Moderates(club) {
		t.Error("moderator_of not updated")
	}

	if err := store.RemoveClubFromAll(ctx, club); err != nil {
		t.Fatalf("RemoveClubFromAll: %v", err)
	}
	got, _ = store.GetByID(ctx, u.ID)
	if got.Moderates(club) {
		t.Error("club not removed from moderator_of")
	}
}

func TestStore_SoftDeleteHidesFromUsernameLookup(t *testing.T) {
	store, db := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := testutil.NewFixtures(t, db).CreateMember(ctx, "gone")
	if err := store.SoftDelete(ctx, u.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := store.GetByUsername(ctx, "gone"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("deleted user still visible: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil || !got.Deleted || got.DeletedAt == nil {
		t.Errorf("GetByID after soft delete = %+v, %v", got, err)
	}
	if err := store.SetRole(ctx, primitive.NewObjectID(), models.RoleAdmin); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("SetRole(missing) err = %v", err)
	}
}

func TestStore_List(t *testing.T) {
	store, db := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	for _, name := range []string{"alpha", "alpine", "beta"} {
		fx.CreateMember(ctx, name)
	}

	rows, res, err := store.List(ctx, "alp", paging.New(1), false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 || res.HasNext {
		t.Errorf("List(alp) = %d rows, HasNext=%v", len(rows), res.HasNext)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v; want 3", n, err)
	}
}
