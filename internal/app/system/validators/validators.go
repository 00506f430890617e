// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/volcani/experimenthub/internal/app/system/limits"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("public_users", publicUsersSchema())
	ensure("experiments", experimentsSchema())

	// Short-lived records; the TTL indexes do the policing.
	ensure("cooldowns", nil)
	ensure("reset_tokens", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"first_name", "email", "role", "is_approved"},
			"properties": bson.M{
				"first_name":    nonBlank,
				"last_name":     bson.M{"bsonType": "string"},
				"email":         bson.M{"bsonType": "string", "pattern": "^[^@\\s]+@[^@\\s]+$"},
				"phone":         bson.M{"bsonType": "string"},
				"role":          nonBlank,
				"is_approved":   bson.M{"bsonType": "bool"},
				"password_hash": bson.M{"bsonType": "string"},
				"created_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

// public_users never carries phone or approval; additionalProperties keeps
// a stray private field from leaking in.
func publicUsersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"uid", "email"},
			"properties": bson.M{
				"_id":          bson.M{"bsonType": "objectId"},
				"uid":          nonBlank,
				"first_name":   bson.M{"bsonType": "string"},
				"last_name":    bson.M{"bsonType": "string"},
				"email":        bson.M{"bsonType": "string"},
				"role":         bson.M{"bsonType": "string"},
				"full_name_ci": bson.M{"bsonType": "string"},
			},
			"additionalProperties": false,
		},
	}
}

func sectionSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"shared", "data"},
		"properties": bson.M{
			"shared": bson.M{"bsonType": "bool"},
			"data":   bson.M{"bsonType": "object"},
		},
	}
}

func experimentsSchema() bson.M {
	count := bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"owner_id", "revision", "experiment_name", "created_at"},
			"properties": bson.M{
				"owner_id":          bson.M{"bsonType": "objectId"},
				"revision":          bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
				"experiment_name":   bson.M{"bsonType": "string"},
				"created_at":        bson.M{"bsonType": "date"},
				"updated_at":        bson.M{"bsonType": "date"},
				"partners":          bson.M{"bsonType": bson.A{"array", "null"}},
				"treatments":        bson.M{"bsonType": bson.A{"array", "null"}, "maxItems": limits.MaxTreatments},
				"treatments_count":  bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": limits.MaxTreatments},
				"repetitions_count": count,
				"levels_count":      count,
				"crop_details":      sectionSchema(),
				"structure_details": sectionSchema(),
				"soil_details":      sectionSchema(),
				"drip_details":      sectionSchema(),
			},
		},
	}
}
