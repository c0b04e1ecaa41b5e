package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
)

type conflictDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	models.ConflictRecord `bson:",inline"`
}

// ConflictStore persists detected conflicts keyed by conflict hash.
type ConflictStore struct {
	coll *mongo.Collection
}

// NewConflictStore wraps the detected_conflicts collection.
func NewConflictStore(coll *mongo.Collection) *ConflictStore {
	return &ConflictStore{coll: coll}
}

// UpsertByHash inserts the conflict on first sight and afterwards only moves
// last_detected_at forward.
func (s *ConflictStore) UpsertByHash(ctx context.Context, record *models.ConflictRecord) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if record.DetectedAt.IsZero() {
		record.DetectedAt = now
	}
	if record.LastDetectedAt.IsZero() {
		record.LastDetectedAt = record.DetectedAt
	}

	raw, err := bson.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("encode conflict %s: %w", record.ConflictHash, err)
	}
	var onInsert bson.M
	if err := bson.Unmarshal(raw, &onInsert); err != nil {
		return false, fmt.Errorf("encode conflict %s: %w", record.ConflictHash, err)
	}
	// $set and $setOnInsert must not touch the same path.
	delete(onInsert, "last_detected_at")

	update := bson.M{
		"$setOnInsert": onInsert,
		"$set":         bson.M{"last_detected_at": record.LastDetectedAt},
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"conflict_hash": record.ConflictHash}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert conflict %s: %w", record.ConflictHash, err)
	}
	if res.UpsertedCount == 1 {
		if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
			record.ID = oid.Hex()
		}
		return true, nil
	}
	return false, nil
}

// List returns stored conflicts, newest detection first.
func (s *ConflictStore) List(ctx context.Context, filter models.ConflictFilter) ([]models.ConflictRecord, int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := bson.M{}
	if filter.RoomID != "" {
		query["room_id"] = filter.RoomID
	}
	if filter.Day != "" {
		query["day"] = filter.Day
	}
	if filter.Severity != "" {
		query["severity"] = filter.Severity
	}
	if filter.Notified != nil {
		query["notified"] = *filter.Notified
	}

	opts := options.Find().SetSort(bson.D{{Key: "detected_at", Value: -1}, {Key: "conflict_hash", Value: 1}})
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		opts.SetSkip(int64((page - 1) * filter.PageSize)).SetLimit(int64(filter.PageSize))
	}

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list conflicts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []conflictDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode conflicts: %w", err)
	}
	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count conflicts: %w", err)
	}

	records := make([]models.ConflictRecord, 0, len(docs))
	for _, doc := range docs {
		record := doc.ConflictRecord
		record.ID = doc.ID.Hex()
		records = append(records, record)
	}
	return records, int(total), nil
}

// MarkNotified flags the conflicts with the given hashes as notified.
func (s *ConflictStore) MarkNotified(ctx context.Context, hashes []string) error {
	if len(hashes) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.coll.UpdateMany(ctx, bson.M{"conflict_hash": bson.M{"$in": hashes}}, bson.M{"$set": bson.M{"notified": true}}); err != nil {
		return fmt.Errorf("mark conflicts notified: %w", err)
	}
	return nil
}
