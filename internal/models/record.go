package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordType classifies a work order.
type RecordType string

const (
	RecordService    RecordType = "SERVICE"
	RecordRepair     RecordType = "REPAIR"
	RecordAccident   RecordType = "ACCIDENT"
	RecordInspection RecordType = "INSPECTION"
)

// RecordStatus is the lifecycle state of a work order. Transitions are
// linear and forward-only: OPEN -> IN_PROGRESS -> COMPLETED.
type RecordStatus string

const (
	StatusOpen       RecordStatus = "OPEN"
	StatusInProgress RecordStatus = "IN_PROGRESS"
	StatusCompleted  RecordStatus = "COMPLETED"
)

// MaintenanceRecord is one work order instance. At most one record with
// status OPEN or IN_PROGRESS may exist per (vehicle, schedule) pair.
type MaintenanceRecord struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID  string             `json:"vehicle_id" bson:"vehicle_id"`
	ScheduleID string             `json:"schedule_id,omitempty" bson:"schedule_id,omitempty"` // empty for manual records

	Type        RecordType `json:"type" bson:"type"`
	ServiceType string     `json:"service_type" bson:"service_type"`
	Description string     `json:"description" bson:"description"`

	Status RecordStatus `json:"status" bson:"status"`

	ScheduledDate *time.Time `json:"scheduled_date,omitempty" bson:"scheduled_date,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty" bson:"start_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty" bson:"completed_date,omitempty"`
	DowntimeHours float64    `json:"downtime_hours" bson:"downtime_hours"` // set once, on completion

	Cost             float64 `json:"cost" bson:"cost"`
	VendorName       string  `json:"vendor_name,omitempty" bson:"vendor_name,omitempty"`
	MileageAtService float64 `json:"mileage_at_service" bson:"mileage_at_service"`
	Notes            string  `json:"notes,omitempty" bson:"notes,omitempty"`

	CreatedBy string    `json:"created_by" bson:"created_by"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsValidRecordType checks if a record type is valid.
func IsValidRecordType(t RecordType) bool {
	switch t {
	case RecordService, RecordRepair, RecordAccident, RecordInspection:
		return true
	default:
		return false
	}
}
