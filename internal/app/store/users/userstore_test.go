package userstore_test

import (
	"testing"

	userstore "github.com/volcani/experimenthub/internal/app/store/users"
	"github.com/volcani/experimenthub/internal/app/system/indexes"
	"github.com/volcani/experimenthub/internal/domain/models"
	"github.com/volcani/experimenthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestStore_CreateWithProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.CreateWithProfile(ctx, models.User{
		FirstName:  "  Dana ",
		LastName:   "Levi",
		Email:      " Dana@Example.COM ",
		Phone:      "050-123-4567",
		Role:       "חוקר",
		IsApproved: true,
	})
	if err != nil {
		t.Fatalf("CreateWithProfile failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "dana@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}
	if created.FirstName != "Dana" {
		t.Errorf("expected trimmed first name, got %q", created.FirstName)
	}
	if created.IsApproved {
		t.Error("new users must start unapproved")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	var pub models.PublicProfile
	if err := db.Collection("public_users").FindOne(ctx, bson.M{"_id": created.ID}).Decode(&pub); err != nil {
		t.Fatalf("public profile not written: %v", err)
	}
	if pub.UID != created.ID.Hex() || pub.Email != "dana@example.com" {
		t.Errorf("unexpected public profile: %+v", pub)
	}

	var raw bson.M
	if err := db.Collection("public_users").FindOne(ctx, bson.M{"_id": created.ID}).Decode(&raw); err != nil {
		t.Fatalf("reload public profile: %v", err)
	}
	for _, private := range []string{"phone", "is_approved", "password_hash"} {
		if _, ok := raw[private]; ok {
			t.Errorf("public profile must not carry %q", private)
		}
	}
}

func TestStore_CreateWithProfile_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	if _, err := store.CreateWithProfile(ctx, models.User{FirstName: "A", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.CreateWithProfile(ctx, models.User{FirstName: "B", Email: "DUP@example.com"})
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}

	n, err := db.Collection("public_users").CountDocuments(ctx, bson.M{"email": "dup@example.com"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected one public profile, got %d", n)
	}
}

func TestStore_CreateWithProfile_UndoesUserWhenProjectionFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Make the projection insert collide on e-mail while users has no
	// conflicting document.
	_, err := db.Collection("public_users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	if _, err := db.Collection("public_users").InsertOne(ctx, bson.M{"uid": "stray", "email": "a@example.com"}); err != nil {
		t.Fatalf("insert stray profile: %v", err)
	}

	if _, err := store.CreateWithProfile(ctx, models.User{FirstName: "A", Email: "a@example.com"}); err == nil {
		t.Fatal("expected projection failure to surface")
	}
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected the user insert to be undone, found %d users", n)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateApprovedUser(ctx, "Dana", "Levi", "dana@example.com")

	got, err := store.GetByEmail(ctx, "  DANA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected %s, got %s", u.ID.Hex(), got.ID.Hex())
	}

	if _, err := store.GetByEmail(ctx, "nobody@example.com"); err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetPasswordAndApproved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Dana", "Levi", "dana@example.com", false)

	if err := store.SetPassword(ctx, u.ID, "hash"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := store.SetApproved(ctx, u.ID, true); err != nil {
		t.Fatalf("SetApproved: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PasswordHash != "hash" || !got.IsApproved {
		t.Errorf("unexpected user after updates: %+v", got)
	}

	if err := store.SetPassword(ctx, primitive.NewObjectID(), "x"); err != userstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFetcher_ApprovalGate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	fetcher := userstore.NewFetcher(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	approved := fixtures.CreateApprovedUser(ctx, "Dana", "Levi", "dana@example.com")
	pending := fixtures.CreateUser(ctx, "Noa", "Cohen", "noa@example.com", false)

	su := fetcher.FetchUser(ctx, approved.ID.Hex())
	if su == nil {
		t.Fatal("expected approved user to be fetched")
	}
	if su.FullName() != "Dana Levi" || su.Email != "dana@example.com" {
		t.Errorf("unexpected session user: %+v", su)
	}

	if fetcher.FetchUser(ctx, pending.ID.Hex()) != nil {
		t.Error("unapproved user must not be fetched")
	}
	if fetcher.FetchUser(ctx, primitive.NewObjectID().Hex()) != nil {
		t.Error("missing user must not be fetched")
	}
	if fetcher.FetchUser(ctx, "not-an-id") != nil {
		t.Error("malformed id must not be fetched")
	}
}
