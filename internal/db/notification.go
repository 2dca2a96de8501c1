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

// NotificationCollection is the persisted notification log. The log doubles
// as the dedup source: HasRecentNotification is the look-before-write check
// the escalation worker runs before emitting.
type NotificationCollection interface {
	InsertNotification(ctx context.Context, notification models.Notification) error
	HasRecentNotification(ctx context.Context, ntype models.NotificationType, scheduleID, vehicleID string, within time.Duration) (bool, error)
}

// MongoNotificationCollection implements NotificationCollection for MongoDB.
type MongoNotificationCollection struct {
	Collection *mongo.Collection
}

// InsertNotification appends a notification to the log.
func (c *MongoNotificationCollection) InsertNotification(ctx context.Context, notification models.Notification) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	_, err := c.Collection.InsertOne(ctx, notification)
	return err
}

// HasRecentNotification reports whether a notification with the dedup key
// (type, scheduleID, vehicleID) was recorded within the lookback window.
func (c *MongoNotificationCollection) HasRecentNotification(ctx context.Context, ntype models.NotificationType, scheduleID, vehicleID string, within time.Duration) (bool, error) {
	if c.Collection == nil {
		return false, fmt.Errorf("mongo collection is nil")
	}
	filter := bson.M{
		"type":        ntype,
		"schedule_id": scheduleID,
		"vehicle_id":  vehicleID,
		"created_at":  bson.M{"$gte": time.Now().Add(-within)},
	}
	count, err := c.Collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
