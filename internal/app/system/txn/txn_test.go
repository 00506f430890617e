package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/volcani/experimenthub/internal/app/system/txn"
	"github.com/volcani/experimenthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func count(t *testing.T, c *mongo.Collection, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := c.CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestRun_WritesBothDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users, profiles := db.Collection("users"), db.Collection("public_users")

	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := users.InsertOne(ctx, bson.M{"_id": "u1"}); err != nil {
			return err
		}
		_, err := profiles.InsertOne(ctx, bson.M{"_id": "u1"})
		return err
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if count(t, users, bson.M{"_id": "u1"}) != 1 || count(t, profiles, bson.M{"_id": "u1"}) != 1 {
		t.Error("expected both writes to land")
	}
}

func TestRun_ReturnsWorkError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := txn.Run(ctx, db, nil, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want the work's own error", err)
	}
}

// The second insert collides with an existing document. Whether or not the
// server runs a transaction, the undo inside fn leaves no partial write.
func TestRun_CompensatedFailureLeavesNothingBehind(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	users, profiles := db.Collection("users"), db.Collection("public_users")

	if _, err := profiles.InsertOne(ctx, bson.M{"_id": "taken"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := users.InsertOne(ctx, bson.M{"_id": "taken"}); err != nil {
			return err
		}
		if _, err := profiles.InsertOne(ctx, bson.M{"_id": "taken"}); err != nil {
			if _, derr := users.DeleteOne(ctx, bson.M{"_id": "taken"}); derr != nil {
				return errors.Join(err, derr)
			}
			return err
		}
		return nil
	})
	if !mongo.IsDuplicateKeyError(err) {
		t.Fatalf("expected the duplicate key error, got %v", err)
	}
	if n := count(t, users, bson.M{"_id": "taken"}); n != 0 {
		t.Errorf("user document survived the failed unit: %d", n)
	}
}

func TestIsNotSupported(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":                   {nil, false},
		"unrelated":             {errors.New("connection reset"), false},
		"illegal operation":     {mongo.CommandError{Code: 20}, true},
		"standalone txn number": {mongo.CommandError{Code: 51}, true},
		"not in transaction":    {mongo.CommandError{Code: 263}, true},
		"other code":            {mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		"replica set wording":   {errors.New("Transaction numbers are only allowed on a Replica Set member"), true},
		"sessions unsupported":  {errors.New("sessions are not supported by this deployment"), true},
		"lone keyword":          {errors.New("transaction aborted"), false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := txn.IsNotSupported(tc.err); got != tc.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
