package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleType selects which triggers a maintenance schedule reacts to.
type ScheduleType string

const (
	ScheduleMileage ScheduleType = "MILEAGE"
	ScheduleTime    ScheduleType = "TIME"
	ScheduleBoth    ScheduleType = "BOTH"
)

// TimeInterval is a named recurrence unit for time-triggered schedules.
type TimeInterval string

const (
	IntervalDaily     TimeInterval = "DAILY"
	IntervalWeekly    TimeInterval = "WEEKLY"
	IntervalMonthly   TimeInterval = "MONTHLY"
	IntervalQuarterly TimeInterval = "QUARTERLY"
	IntervalYearly    TimeInterval = "YEARLY"
)

// Default reminder thresholds applied when a schedule is created without them.
const (
	DefaultReminderDaysBefore    = 7
	DefaultReminderMileageBefore = 500.0
)

// MaintenanceSchedule is a recurring service obligation for one vehicle.
// Checkpoints (last/next service date and mileage) are only mutated when a
// work order spawned from the schedule is completed. Schedules are never
// hard-deleted; they are deactivated instead.
type MaintenanceSchedule struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID string             `json:"vehicle_id" bson:"vehicle_id"`

	ServiceType  string       `json:"service_type" bson:"service_type"` // free text, e.g. "Oil Change"
	ScheduleType ScheduleType `json:"schedule_type" bson:"schedule_type"`

	MileageInterval  float64      `json:"mileage_interval,omitempty" bson:"mileage_interval,omitempty"` // km, required for MILEAGE/BOTH
	TimeInterval     TimeInterval `json:"time_interval,omitempty" bson:"time_interval,omitempty"`       // required for TIME/BOTH
	TimeIntervalDays int          `json:"time_interval_days,omitempty" bson:"time_interval_days,omitempty"`

	LastServiceDate    *time.Time `json:"last_service_date,omitempty" bson:"last_service_date,omitempty"`
	LastServiceMileage float64    `json:"last_service_mileage" bson:"last_service_mileage"`
	NextServiceDate    *time.Time `json:"next_service_date,omitempty" bson:"next_service_date,omitempty"`
	NextServiceMileage float64    `json:"next_service_mileage" bson:"next_service_mileage"` // 0 means not yet computed

	ReminderDaysBefore    int     `json:"reminder_days_before" bson:"reminder_days_before"`
	ReminderMileageBefore float64 `json:"reminder_mileage_before" bson:"reminder_mileage_before"`

	IsActive  bool      `json:"is_active" bson:"is_active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// UsesMileage reports whether the mileage trigger applies to this schedule.
func (s *MaintenanceSchedule) UsesMileage() bool {
	return s.ScheduleType == ScheduleMileage || s.ScheduleType == ScheduleBoth
}

// UsesTime reports whether the calendar trigger applies to this schedule.
func (s *MaintenanceSchedule) UsesTime() bool {
	return s.ScheduleType == ScheduleTime || s.ScheduleType == ScheduleBoth
}

// IsValidScheduleType checks if a schedule type is valid.
func IsValidScheduleType(t ScheduleType) bool {
	switch t {
	case ScheduleMileage, ScheduleTime, ScheduleBoth:
		return true
	default:
		return false
	}
}

// IsValidTimeInterval checks if a time interval is valid.
func IsValidTimeInterval(i TimeInterval) bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalQuarterly, IntervalYearly:
		return true
	default:
		return false
	}
}
