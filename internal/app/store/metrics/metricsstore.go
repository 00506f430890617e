package metricsstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of collection totals exported as gauges.
type Counts struct {
	Users         int64
	PendingUsers  int64
	Experiments   int64
	OpenCooldowns int64
}

// FetchCounts returns the totals. Intentionally tolerant: on error it
// returns 0 for that counter.
func FetchCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts

	if n, err := db.Collection("users").CountDocuments(ctx, bson.M{}); err == nil {
		out.Users = n
	}
	if n, err := db.Collection("users").CountDocuments(ctx, bson.M{"is_approved": bson.M{"$ne": true}}); err == nil {
		out.PendingUsers = n
	}
	if n, err := db.Collection("experiments").EstimatedDocumentCount(ctx); err == nil {
		out.Experiments = n
	}
	if n, err := db.Collection("cooldowns").CountDocuments(ctx, bson.M{}); err == nil {
		out.OpenCooldowns = n
	}

	return out
}
