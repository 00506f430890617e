package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test documents directly, bypassing store validation.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a profile and its public projection.
func (f *Fixtures) CreateUser(ctx context.Context, first, last, email string, approved bool) models.User {
	f.t.Helper()

	u := models.User{
		ID:         primitive.NewObjectID(),
		FirstName:  first,
		LastName:   last,
		Email:      email,
		Role:       "חוקר",
		IsApproved: approved,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	p := u.PublicProfile()
	p.FullNameCI = text.Fold(p.FullName())
	if _, err := f.db.Collection("public_users").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test public profile: %v", err)
	}
	return u
}

// CreateApprovedUser is CreateUser with the approval flag set.
func (f *Fixtures) CreateApprovedUser(ctx context.Context, first, last, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, first, last, email, true)
}

// CreateExperiment inserts a default skeleton owned by owner, created at
// the given time.
func (f *Fixtures) CreateExperiment(ctx context.Context, owner primitive.ObjectID, name string, created time.Time) models.Experiment {
	f.t.Helper()

	e := models.NewExperiment(owner, name, "", created)
	e.ID = primitive.NewObjectID()
	e.Revision = 1
	e.CreatedAt = created.UTC()
	e.UpdatedAt = created.UTC()
	if _, err := f.db.Collection("experiments").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test experiment: %v", err)
	}
	return e
}
