package resettokenstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrInvalidToken covers unknown, used and expired tokens alike.
var ErrInvalidToken = errors.New("reset token is invalid or expired")

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reset_tokens"), now: time.Now}
}

// Issue replaces any outstanding token for userID and returns the raw
// value to mail. Only its hash is stored.
func (s *Store) Issue(ctx context.Context, userID primitive.ObjectID, ttl time.Duration) (string, error) {
	raw := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	now := s.now().UTC()

	if _, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return "", fmt.Errorf("revoke reset tokens: %w", err)
	}
	_, err := s.c.InsertOne(ctx, models.ResetToken{
		ID:        primitive.NewObjectID(),
		TokenHash: hash(raw),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("insert reset token: %w", err)
	}
	return raw, nil
}

// Consume deletes the token and returns its user. A token works once.
func (s *Store) Consume(ctx context.Context, raw string) (primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return primitive.NilObjectID, ErrInvalidToken
	}

	var t models.ResetToken
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"token_hash": hash(raw),
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return primitive.NilObjectID, ErrInvalidToken
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("consume reset token: %w", err)
	}
	return t.UserID, nil
}

// DeleteExpired removes tokens past their expiry.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
