package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/motorent/backoffice/internal/models"
)

// ScheduleCollection defines the interface for maintenance schedule operations.
type ScheduleCollection interface {
	InsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (*models.MaintenanceSchedule, error)
	FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error)
	FindActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error)
	UpdateSchedule(ctx context.Context, id string, schedule models.MaintenanceSchedule) error
	DeactivateSchedule(ctx context.Context, id string) error
}

// MongoScheduleCollection implements ScheduleCollection for MongoDB.
type MongoScheduleCollection struct {
	Collection *mongo.Collection
}

// InsertSchedule inserts a schedule and returns it with its generated id.
func (c *MongoScheduleCollection) InsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (*models.MaintenanceSchedule, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	if schedule.ID.IsZero() {
		schedule.ID = primitive.NewObjectID()
	}
	schedule.CreatedAt = time.Now()
	schedule.UpdatedAt = time.Now()
	if _, err := c.Collection.InsertOne(ctx, schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindScheduleByID finds a schedule by its ID.
func (c *MongoScheduleCollection) FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule ID: %w", err)
	}
	var schedule models.MaintenanceSchedule
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&schedule)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

// FindActiveSchedules returns all schedules with is_active set.
func (c *MongoScheduleCollection) FindActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var schedules []models.MaintenanceSchedule
	if err := cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// UpdateSchedule replaces the mutable fields of a schedule by its ID.
func (c *MongoScheduleCollection) UpdateSchedule(ctx context.Context, id string, schedule models.MaintenanceSchedule) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid schedule ID: %w", err)
	}
	schedule.ID = objectID
	schedule.UpdatedAt = time.Now()
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": schedule})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("schedule not found")
	}
	return nil
}

// DeactivateSchedule clears is_active. Schedules are never hard-deleted.
func (c *MongoScheduleCollection) DeactivateSchedule(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid schedule ID: %w", err)
	}
	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("schedule not found")
	}
	return nil
}
