package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the room/day lookup index on timetables and the
// unique conflict_hash index on detected conflicts.
func EnsureIndexes(ctx context.Context, schedules, conflicts *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := schedules.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: fieldRoom, Value: 1}, {Key: fieldDay, Value: 1}},
	}); err != nil {
		return fmt.Errorf("create timetable index: %w", err)
	}

	if _, err := conflicts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conflict_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "detected_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("create conflict indexes: %w", err)
	}
	return nil
}
