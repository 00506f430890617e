package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	publicprofilestore "github.com/volcani/experimenthub/internal/app/store/publicprofiles"
	"github.com/volcani/experimenthub/internal/app/system/normalize"
	"github.com/volcani/experimenthub/internal/app/system/txn"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateEmail is returned when a profile with this e-mail exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrNotFound       = errors.New("user not found")
)

type Store struct {
	db     *mongo.Database
	c      *mongo.Collection
	public *publicprofilestore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{
		db:     db,
		c:      db.Collection("users"),
		public: publicprofilestore.New(db),
	}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized e-mail.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateWithProfile inserts the private profile and its public projection
// as one unit. IsApproved is always false on creation. On a server without
// transactions the profile insert is undone by hand when the projection
// cannot be written.
func (s *Store) CreateWithProfile(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.Email = normalize.Email(u.Email)
	u.Phone = normalize.Phone(u.Phone)
	u.Role = normalize.Role(u.Role)
	u.IsApproved = false
	u.CreatedAt = time.Now().UTC()

	err := txn.Run(ctx, s.db, zap.L(), func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, u); err != nil {
			if wafflemongo.IsDup(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if err := s.public.Insert(ctx, u.PublicProfile()); err != nil {
			if _, derr := s.c.DeleteOne(ctx, bson.M{"_id": u.ID}); derr != nil {
				zap.L().Error("orphaned user after failed public profile insert",
					zap.String("user_id", u.ID.Hex()), zap.Error(derr))
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// SetPassword replaces the stored hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password_hash": hash}})
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetApproved flips the approval flag. The approval workflow lives
// outside this service; tests and operators use it directly.
func (s *Store) SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_approved": approved}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
