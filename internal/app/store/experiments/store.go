package experimentstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/volcani/experimenthub/internal/app/system/htmlsanitize"
	"github.com/volcani/experimenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("experiment not found")
	// ErrStaleRevision means the record changed since the caller loaded it.
	ErrStaleRevision = errors.New("experiment was modified since it was loaded")
)

// Store is the experiments collection. Every query carries the owner id;
// one user never reads or writes another user's records.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("experiments"), now: time.Now}
}

// Create assigns id, timestamps and the first revision, then inserts e.
func (s *Store) Create(ctx context.Context, e models.Experiment) (models.Experiment, error) {
	now := s.now().UTC()
	e.ID = primitive.NewObjectID()
	e.Revision = 1
	e.CreatedAt = now
	e.UpdatedAt = now
	e.ExperimentName = htmlsanitize.Line(e.ExperimentName)

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Experiment{}, fmt.Errorf("insert experiment: %w", err)
	}
	return e, nil
}

// Get loads one of owner's experiments.
func (s *Store) Get(ctx context.Context, owner, id primitive.ObjectID) (*models.Experiment, error) {
	e := models.DecodeTarget()
	err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": owner}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load experiment: %w", err)
	}
	return &e, nil
}

// Summary is the slice of a record the list view shows.
type Summary struct {
	ID             primitive.ObjectID `bson:"_id"`
	ExperimentName string             `bson:"experiment_name"`
	ExperimentSite string             `bson:"experiment_site"`
	CreatedAt      time.Time          `bson:"created_at"`
}

// ListByOwner returns owner's experiments, newest first.
func (s *Store) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{
			"_id":             1,
			"experiment_name": 1,
			"experiment_site": 1,
			"created_at":      1,
		})
	cur, err := s.c.Find(ctx, bson.M{"owner_id": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer cur.Close(ctx)

	out := []Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode experiments: %w", err)
	}
	return out, nil
}

// Update overwrites every editor-owned field of one record, provided the
// stored revision still equals revision. The revision is bumped and
// updated_at only moves forward. An empty name leaves the stored name.
func (s *Store) Update(ctx context.Context, owner, id primitive.ObjectID, revision int64, name string, f models.ExperimentFields) (*models.Experiment, error) {
	set, err := fieldsDoc(f)
	if err != nil {
		return nil, err
	}
	if name = htmlsanitize.Line(name); name != "" {
		set["experiment_name"] = name
	}

	filter := bson.M{"_id": id, "owner_id": owner, "revision": revision}
	if revision == 0 {
		// Records written before revisions existed have no field at all.
		filter["revision"] = bson.M{"$in": bson.A{0, nil}}
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"revision": 1},
		"$max": bson.M{"updated_at": s.now().UTC()},
	}

	out := models.DecodeTarget()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err == nil {
		return &out, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("update experiment: %w", err)
	}

	// Nothing matched: tell a missing record from a stale one.
	n, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id, "owner_id": owner})
	if cerr != nil {
		return nil, fmt.Errorf("update experiment: %w", cerr)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrStaleRevision
}

// CountByOwner is the number of owner's records.
func (s *Store) CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"owner_id": owner})
}

func fieldsDoc(f models.ExperimentFields) (bson.M, error) {
	raw, err := bson.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode experiment fields: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode experiment fields: %w", err)
	}
	return m, nil
}
