// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/normalize"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateUsername is returned when the folded username is taken.
	ErrDuplicateUsername = errors.New("that username is already taken")
	// ErrDuplicateEmail is returned when the folded email is taken.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"user"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// dupErr maps a duplicate-key error to the field that collided.
func dupErr(err error) error {
	if !wafflemongo.IsDup(err) {
		return err
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, "email_ci") {
				return ErrDuplicateEmail
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && strings.Contains(ce.Message, "email_ci") {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

// Create inserts a new user after normalizing fields. Role defaults to user.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.Username = normalize.Username(u.Username)
	u.UsernameCI = text.Fold(u.Username)
	u.Email = normalize.Email(u.Email)
	u.EmailCI = text.Fold(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Role != models.RoleAdmin && u.Role != models.RoleUser {
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, dupErr(err)
	}
	return u, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, filter).Decode(&u)
	return u, err
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByUsername looks up a non-deleted user by case-insensitive username.
func (s *Store) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, bson.M{"username_ci": text.Fold(normalize.Username(username)), "deleted": bson.M{"$ne": true}})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))})
}

// GetByIdentifier accepts either a username or an email address.
func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	folded := text.Fold(normalize.Username(identifier))
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username_ci": folded},
		bson.M{"email_ci": folded},
	}})
}

// GetByGoogleID looks up a user linked to a Google account.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	return s.findOne(ctx, bson.M{"google_id": googleID})
}

// UsernameExists reports whether any user, deleted or not, holds username.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"username_ci": text.Fold(normalize.Username(username))}, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return dupErr(err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	Name     string
	Username string
	Avatar   string
}

// UpdateProfile changes name, username and avatar.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	username := normalize.Username(upd.Username)
	return s.set(ctx, id, bson.M{
		"name":        normalize.Name(upd.Name),
		"username":    username,
		"username_ci": text.Fold(username),
		"avatar":      upd.Avatar,
	})
}

// SetPassword stores a new bcrypt hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.set(ctx, id, bson.M{"password_hash": hash})
}

// MarkVerified sets is_verified.
func (s *Store) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	return s.set(ctx, id, bson.M{"is_verified": true})
}

// LinkGoogle attaches a Google account id and marks the email verified.
func (s *Store) LinkGoogle(ctx context.Context, id primitive.ObjectID, googleID string) error {
	return s.set(ctx, id, bson.M{"google_id": googleID, "is_verified": true})
}

// SetRole changes the user's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if role != models.RoleAdmin && role != models.RoleUser {
		return errBadRole
	}
	return s.set(ctx, id, bson.M{"role": role})
}

// SetRoleRequest records a pending moderator request.
func (s *Store) SetRoleRequest(ctx context.Context, id primitive.ObjectID, req models.RoleRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	return s.set(ctx, id, bson.M{"role_request": req})
}

// ClearRoleRequest removes any pending moderator request.
func (s *Store) ClearRoleRequest(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"role_request": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// ListRoleRequests returns users with a pending request, oldest first.
func (s *Store) ListRoleRequests(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"role_request": bson.M{"$exists": true, "$ne": nil}, "deleted": bson.M{"$ne": true}},
		options.Find().SetSort(bson.D{{Key: "role_request.requested_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.User
	err = cur.All(ctx, &out)
	return out, err
}

// AddModeratorOf grants moderation of clubID.
func (s *Store) AddModeratorOf(ctx context.Context, id, clubID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$addToSet": bson.M{"moderator_of": clubID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveModeratorOf revokes moderation of clubID.
func (s *Store) RemoveModeratorOf(ctx context.Context, id, clubID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"moderator_of": clubID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveClubFromAll drops clubID from every user's moderator_of list and
// any pending request for it.
func (s *Store) RemoveClubFromAll(ctx context.Context, clubID primitive.ObjectID) error {
	if _, err := s.c.UpdateMany(ctx, bson.M{"moderator_of": clubID}, bson.M{"$pull": bson.M{"moderator_of": clubID}}); err != nil {
		return err
	}
	_, err := s.c.UpdateMany(ctx, bson.M{"role_request.club_id": clubID}, bson.M{"$unset": bson.M{"role_request": ""}})
	return err
}

// SoftDelete flags the account deleted; it can no longer sign in.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	return s.set(ctx, id, bson.M{"deleted": true, "deleted_at": now})
}

// Delete removes the user document. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByIDs returns the users with the given ids, sorted by username.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "username_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.User
	err = cur.All(ctx, &out)
	return out, err
}

// List returns one page of users whose username, name or email starts
// with q (case-folded), sorted by username.
func (s *Store) List(ctx context.Context, q string, p paging.Page, includeDeleted bool) ([]models.User, paging.Result, error) {
	filter := bson.M{}
	if !includeDeleted {
		filter["deleted"] = bson.M{"$ne": true}
	}
	if lo, hi := text.PrefixRange(normalize.QueryParam(q)); lo != "" {
		filter["$or"] = bson.A{
			bson.M{"username_ci": bson.M{"$gte": lo, "$lt": hi}},
			bson.M{"email_ci": bson.M{"$gte": lo, "$lt": hi}},
		}
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "username_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, paging.Result{}, err
	}
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, paging.Result{}, err
	}
	return out, paging.Trim(&out, p), nil
}

// Count returns the number of non-deleted users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"deleted": bson.M{"$ne": true}})
}
