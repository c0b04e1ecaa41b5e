// Package mongostore persists schedules and detected conflicts in MongoDB,
// reading the legacy timetable documents as they are stored.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/internal/timeslot"
)

const opTimeout = 5 * time.Second

// Legacy timetable field names.
const (
	fieldRoom   = "Room ID"
	fieldDay    = "Day"
	fieldStart  = "Start"
	fieldEnd    = "End"
	fieldCourse = "Course"
)

type scheduleDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	models.ScheduleRecord `bson:",inline"`
}

func (d scheduleDoc) toModel() models.ScheduleRecord {
	record := d.ScheduleRecord
	record.ID = d.ID.Hex()
	return record
}

// ScheduleStore reads and writes timetable documents.
type ScheduleStore struct {
	coll *mongo.Collection
}

// NewScheduleStore wraps the timetable collection.
func NewScheduleStore(coll *mongo.Collection) *ScheduleStore {
	return &ScheduleStore{coll: coll}
}

func (s *ScheduleStore) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.ScheduleRecord, error) {
	cursor, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []scheduleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]models.ScheduleRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toModel())
	}
	return records, nil
}

var scheduleSort = bson.D{{Key: fieldRoom, Value: 1}, {Key: fieldDay, Value: 1}, {Key: fieldStart, Value: 1}}

// List returns a page of schedules filtered by room and day.
func (s *ScheduleStore) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleRecord, int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := bson.M{}
	if filter.RoomID != "" {
		query[fieldRoom] = filter.RoomID
	}
	if filter.Day != "" {
		query[fieldDay] = filter.Day
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	opts := options.Find().SetSort(scheduleSort).SetSkip(int64((page - 1) * size)).SetLimit(int64(size))
	records, err := s.find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}
	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}
	return records, int(total), nil
}

// FindByID loads a schedule by its ObjectID hex. Unknown or malformed ids
// yield mongo.ErrNoDocuments.
func (s *ScheduleStore) FindByID(ctx context.Context, id string) (*models.ScheduleRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc scheduleDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, err
	}
	record := doc.toModel()
	return &record, nil
}

// FindByRoomDay returns every booking of a room on a day.
func (s *ScheduleStore) FindByRoomDay(ctx context.Context, roomID, day string) ([]models.ScheduleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	records, err := s.find(ctx, bson.M{fieldRoom: roomID, fieldDay: day}, options.Find().SetSort(bson.D{{Key: fieldStart, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find schedules for %s/%s: %w", roomID, day, err)
	}
	return records, nil
}

// FindByDay returns every booking on a day.
func (s *ScheduleStore) FindByDay(ctx context.Context, day string) ([]models.ScheduleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	records, err := s.find(ctx, bson.M{fieldDay: day}, options.Find().SetSort(scheduleSort))
	if err != nil {
		return nil, fmt.Errorf("find schedules for %s: %w", day, err)
	}
	return records, nil
}

// DistinctRooms lists every room with at least one booking.
func (s *ScheduleStore) DistinctRooms(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	values, err := s.coll.Distinct(ctx, fieldRoom, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms := make([]string, 0, len(values))
	for _, v := range values {
		if room, ok := v.(string); ok && room != "" {
			rooms = append(rooms, room)
		}
	}
	sort.Strings(rooms)
	return rooms, nil
}

// ListConflictBuckets groups timetable documents by room and day and keeps
// the groups holding more than one booking.
func (s *ScheduleStore) ListConflictBuckets(ctx context.Context) ([]models.RoomDayBucket, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "room_id", Value: "$" + fieldRoom}, {Key: "day", Value: "$" + fieldDay}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "count", Value: bson.D{{Key: "$gt", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.room_id", Value: 1}, {Key: "_id.day", Value: 1}}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate conflict buckets: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Key   models.RoomDayBucket `bson:"_id"`
		Count int                  `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode conflict buckets: %w", err)
	}

	buckets := make([]models.RoomDayBucket, 0, len(groups))
	for _, g := range groups {
		buckets = append(buckets, models.RoomDayBucket{RoomID: g.Key.RoomID, Day: g.Key.Day, Count: g.Count})
	}
	return buckets, nil
}

// FindMatching returns schedules matching every non-empty selector field.
func (s *ScheduleStore) FindMatching(ctx context.Context, selector models.ScheduleSelector) ([]models.ScheduleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{fieldRoom: selector.RoomID}
	if selector.Day != "" {
		filter[fieldDay] = selector.Day
	}
	// Legacy rows keep unpadded or dotted times, or the whole range in Start.
	switch {
	case selector.Start != "" && selector.End != "":
		filter["$or"] = bson.A{
			bson.M{fieldStart: anyOf(timeslot.Spellings(selector.Start)), fieldEnd: anyOf(timeslot.Spellings(selector.End))},
			bson.M{fieldStart: anyOf(timeslot.RangeSpellings(selector.Start, selector.End))},
		}
	case selector.Start != "":
		filter[fieldStart] = anyOf(timeslot.Spellings(selector.Start))
	case selector.End != "":
		filter[fieldEnd] = anyOf(timeslot.Spellings(selector.End))
	}
	if selector.Course != "" {
		filter[fieldCourse] = selector.Course
	}

	records, err := s.find(ctx, filter, options.Find().SetSort(scheduleSort))
	if err != nil {
		return nil, fmt.Errorf("find matching schedules: %w", err)
	}
	return records, nil
}

func anyOf(values []string) bson.M {
	return bson.M{"$in": values}
}

// Create inserts a timetable document and assigns its id.
func (s *ScheduleStore) Create(ctx context.Context, record *models.ScheduleRecord) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	doc := scheduleDoc{ID: primitive.NewObjectID(), ScheduleRecord: *record}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	record.ID = doc.ID.Hex()
	return nil
}

// Replace overwrites the document with the record's id.
func (s *ScheduleStore) Replace(ctx context.Context, record *models.ScheduleRecord) error {
	oid, err := primitive.ObjectIDFromHex(record.ID)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	record.UpdatedAt = time.Now().UTC()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": oid}, scheduleDoc{ID: oid, ScheduleRecord: *record})
	if err != nil {
		return fmt.Errorf("replace schedule: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
