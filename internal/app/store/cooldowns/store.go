package cooldownstore

import (
	"context"
	"fmt"
	"time"

	"github.com/volcani/experimenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists "try again later" windows keyed by an opaque string such
// as "password_reset:dana@example.com". Expired records are removed on
// read; the TTL index on expires_at collects the rest.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cooldowns"), now: time.Now}
}

// Key joins purpose and subject.
func Key(purpose, subject string) string {
	return purpose + ":" + subject
}

// Start opens (or restarts) the window for key, lasting d from now.
func (s *Store) Start(ctx context.Context, key, purpose string, d time.Duration) (models.Cooldown, error) {
	now := s.now().UTC()
	c := models.Cooldown{
		Key:       key,
		Purpose:   purpose,
		ExpiresAt: now.Add(d),
		CreatedAt: now,
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{
			"key":        c.Key,
			"purpose":    c.Purpose,
			"expires_at": c.ExpiresAt,
			"created_at": c.CreatedAt,
		}},
		options.Update().SetUpsert(true))
	if err != nil {
		return models.Cooldown{}, fmt.Errorf("start cooldown: %w", err)
	}
	return c, nil
}

// Get returns the open window for key, or nil when there is none.
func (s *Store) Get(ctx context.Context, key string) (*models.Cooldown, error) {
	var c models.Cooldown
	err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cooldown: %w", err)
	}
	if !c.Active(s.now()) {
		// The TTL monitor runs about once a minute; do not wait for it.
		_, _ = s.c.DeleteOne(ctx, bson.M{"key": key, "expires_at": c.ExpiresAt})
		return nil, nil
	}
	return &c, nil
}

// Remaining is the whole seconds left on key's window, zero when closed.
func (s *Store) Remaining(ctx context.Context, key string) (int, error) {
	c, err := s.Get(ctx, key)
	if err != nil || c == nil {
		return 0, err
	}
	return c.Remaining(s.now()), nil
}

// Clear closes key's window.
func (s *Store) Clear(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"key": key})
	return err
}

// DeleteExpired removes every window that closed before now.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
