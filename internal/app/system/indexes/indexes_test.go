package indexes_test

import (
	"testing"

	"github.com/volcani/experimenthub/internal/app/system/indexes"
	"github.com/volcani/experimenthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, coll *mongo.Collection) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes on %s: %v", coll.Name(), err)
	}
	defer cur.Close(ctx)

	out := map[string]bson.M{}
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			out[name] = idx
		}
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesExpectedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string][]string{
		"users":        {"uniq_users_email"},
		"public_users": {"uniq_public_users_uid", "idx_public_users_email"},
		"experiments":  {"idx_experiments_owner_created"},
		"cooldowns":    {"uniq_cooldowns_key", "ttl_cooldowns_expires"},
		"reset_tokens": {"uniq_reset_tokens_hash", "idx_reset_tokens_user", "ttl_reset_tokens_expires"},
	}
	for coll, names := range want {
		have := indexNames(t, db.Collection(coll))
		for _, n := range names {
			if _, ok := have[n]; !ok {
				t.Errorf("%s: missing index %q", coll, n)
			}
		}
	}
}

func TestEnsureAll_CooldownIndexIsTTL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	idx, ok := indexNames(t, db.Collection("cooldowns"))["ttl_cooldowns_expires"]
	if !ok {
		t.Fatal("ttl index missing")
	}
	if _, ok := idx["expireAfterSeconds"]; !ok {
		t.Errorf("expected expireAfterSeconds on ttl index, got %v", idx)
	}
}

func TestEnsureAll_UniqueEmailEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"email": "dana@example.com"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := users.InsertOne(ctx, bson.M{"email": "dana@example.com"}); err == nil {
		t.Error("expected duplicate e-mail to be rejected")
	}
}
