package publicprofilestore

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads and writes public_users, the projection every approved user
// may list.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("public_users")}
}

// Insert writes p. The caller sets ID and UID from the owning user.
func (s *Store) Insert(ctx context.Context, p models.PublicProfile) error {
	p.FullNameCI = text.Fold(p.FullName())
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert public profile: %w", err)
	}
	return nil
}

// ListAll returns every profile ordered by folded full name.
func (s *Store) ListAll(ctx context.Context) ([]models.PublicProfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list public profiles: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.PublicProfile{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode public profiles: %w", err)
	}
	return out, nil
}

// Delete removes the profile with the given id. Missing is not an error.
func (s *Store) Delete(ctx context.Context, uid string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"uid": uid})
	return err
}
