package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType distinguishes escalations from reminders. Together with
// the schedule and vehicle ids it forms the dedup key: the engine never
// emits two notifications with the same key within a 24-hour window.
type NotificationType string

const (
	NotificationMaintenanceRequired NotificationType = "MAINTENANCE_REQUIRED"
	NotificationMaintenanceReminder NotificationType = "MAINTENANCE_REMINDER"
)

// Notification is one outbound message to a back-office user.
type Notification struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type       NotificationType   `json:"type" bson:"type"`
	ScheduleID string             `json:"schedule_id" bson:"schedule_id"`
	VehicleID  string             `json:"vehicle_id" bson:"vehicle_id"`
	UserID     string             `json:"user_id" bson:"user_id"`
	Title      string             `json:"title" bson:"title"`
	Message    string             `json:"message" bson:"message"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}
