package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/motorent/backoffice/internal/models"
)

// RecordFilter narrows completed-record queries for reporting.
type RecordFilter struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	VehicleID string
}

// RecordCollection defines the interface for maintenance work order operations.
// Find methods return (nil, nil) when no document matches.
type RecordCollection interface {
	InsertRecord(ctx context.Context, record models.MaintenanceRecord) (*models.MaintenanceRecord, error)
	FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error)
	FindOpenRecordBySchedule(ctx context.Context, scheduleID string) (*models.MaintenanceRecord, error)
	FindCompletedRecords(ctx context.Context, filter RecordFilter) ([]models.MaintenanceRecord, error)
	UpdateRecord(ctx context.Context, id string, record models.MaintenanceRecord) error
	// CompleteRecord applies set to the record only if it is not already
	// COMPLETED, and returns the updated document. Returns (nil, nil) when
	// no matching non-completed record exists, which callers treat as a lost
	// race or an unknown id.
	CompleteRecord(ctx context.Context, id string, set bson.M) (*models.MaintenanceRecord, error)
}

// MongoRecordCollection implements RecordCollection for MongoDB.
type MongoRecordCollection struct {
	Collection *mongo.Collection
}

// InsertRecord inserts a work order and returns it with its generated id.
func (c *MongoRecordCollection) InsertRecord(ctx context.Context, record models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	if _, err := c.Collection.InsertOne(ctx, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindRecordByID finds a work order by its ID.
func (c *MongoRecordCollection) FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record ID: %w", err)
	}
	var record models.MaintenanceRecord
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindOpenRecordBySchedule returns the OPEN or IN_PROGRESS record spawned
// from the given schedule, if one exists.
func (c *MongoRecordCollection) FindOpenRecordBySchedule(ctx context.Context, scheduleID string) (*models.MaintenanceRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter := bson.M{
		"schedule_id": scheduleID,
		"status":      bson.M{"$in": []models.RecordStatus{models.StatusOpen, models.StatusInProgress}},
	}
	var record models.MaintenanceRecord
	err := c.Collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindCompletedRecords returns COMPLETED records matching the filter,
// bounded by completed_date when a date range is given.
func (c *MongoRecordCollection) FindCompletedRecords(ctx context.Context, filter RecordFilter) ([]models.MaintenanceRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	query := bson.M{"status": models.StatusCompleted}
	if filter.VehicleID != "" {
		query["vehicle_id"] = filter.VehicleID
	}
	dateRange := bson.M{}
	if filter.DateFrom != nil {
		dateRange["$gte"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		dateRange["$lte"] = *filter.DateTo
	}
	if len(dateRange) > 0 {
		query["completed_date"] = dateRange
	}
	cursor, err := c.Collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var records []models.MaintenanceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateRecord updates a work order by its ID.
func (c *MongoRecordCollection) UpdateRecord(ctx context.Context, id string, record models.MaintenanceRecord) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid record ID: %w", err)
	}
	record.ID = objectID
	record.UpdatedAt = time.Now()
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": record})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("record not found")
	}
	return nil
}

// CompleteRecord conditionally updates a record that is not yet COMPLETED.
// The condition makes concurrent completions of the same record resolve to
// exactly one winner.
func (c *MongoRecordCollection) CompleteRecord(ctx context.Context, id string, set bson.M) (*models.MaintenanceRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record ID: %w", err)
	}
	set["updated_at"] = time.Now()
	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$ne": models.StatusCompleted},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var record models.MaintenanceRecord
	err = c.Collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
