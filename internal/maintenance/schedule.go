package maintenance

import (
	"context"
	"fmt"

	"github.com/motorent/backoffice/internal/db"
	"github.com/motorent/backoffice/internal/models"
)

// ScheduleInput is the operator-facing shape for creating a schedule.
type ScheduleInput struct {
	VehicleID             string              `json:"vehicle_id"`
	ServiceType           string              `json:"service_type"`
	ScheduleType          models.ScheduleType `json:"schedule_type"`
	MileageInterval       float64             `json:"mileage_interval,omitempty"`
	TimeInterval          models.TimeInterval `json:"time_interval,omitempty"`
	TimeIntervalDays      int                 `json:"time_interval_days,omitempty"`
	ReminderDaysBefore    int                 `json:"reminder_days_before,omitempty"`
	ReminderMileageBefore float64             `json:"reminder_mileage_before,omitempty"`
}

// ScheduleService owns the operator-facing schedule operations.
type ScheduleService struct {
	Schedules db.ScheduleCollection
	Vehicles  db.VehicleCollection
}

// Create validates the trigger configuration against the declared schedule
// type, applies reminder defaults and stores the schedule active.
func (s *ScheduleService) Create(ctx context.Context, input ScheduleInput) (*models.MaintenanceSchedule, error) {
	if input.VehicleID == "" {
		return nil, &ValidationError{Field: "vehicle_id", Reason: "is required"}
	}
	if input.ServiceType == "" {
		return nil, &ValidationError{Field: "service_type", Reason: "is required"}
	}
	if !models.IsValidScheduleType(input.ScheduleType) {
		return nil, &ValidationError{Field: "schedule_type", Reason: fmt.Sprintf("unknown schedule type %q", input.ScheduleType)}
	}
	schedule := models.MaintenanceSchedule{
		VehicleID:             input.VehicleID,
		ServiceType:           input.ServiceType,
		ScheduleType:          input.ScheduleType,
		MileageInterval:       input.MileageInterval,
		TimeInterval:          input.TimeInterval,
		TimeIntervalDays:      input.TimeIntervalDays,
		ReminderDaysBefore:    input.ReminderDaysBefore,
		ReminderMileageBefore: input.ReminderMileageBefore,
		IsActive:              true,
	}
	if schedule.UsesMileage() && schedule.MileageInterval <= 0 {
		return nil, &ValidationError{Field: "mileage_interval", Reason: "must be positive for MILEAGE and BOTH schedules"}
	}
	if schedule.UsesTime() {
		if schedule.TimeIntervalDays < 0 {
			return nil, &ValidationError{Field: "time_interval_days", Reason: "must not be negative"}
		}
		if schedule.TimeIntervalDays == 0 && !models.IsValidTimeInterval(schedule.TimeInterval) {
			return nil, &ValidationError{Field: "time_interval", Reason: "required for TIME and BOTH schedules"}
		}
	}
	if schedule.ReminderDaysBefore <= 0 {
		schedule.ReminderDaysBefore = models.DefaultReminderDaysBefore
	}
	if schedule.ReminderMileageBefore <= 0 {
		schedule.ReminderMileageBefore = models.DefaultReminderMileageBefore
	}

	vehicle, err := s.Vehicles.FindVehicleByID(ctx, input.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, ErrVehicleNotFound
	}
	// Seed the mileage checkpoint from the vehicle's current reading so the
	// first interval counts from enrollment, not from zero.
	if schedule.UsesMileage() {
		schedule.LastServiceMileage = vehicle.CurrentMileage
		schedule.NextServiceMileage = vehicle.CurrentMileage + schedule.MileageInterval
	}

	return s.Schedules.InsertSchedule(ctx, schedule)
}

// ListActive returns every active schedule.
func (s *ScheduleService) ListActive(ctx context.Context) ([]models.MaintenanceSchedule, error) {
	return s.Schedules.FindActiveSchedules(ctx)
}

// Deactivate excludes a schedule from due-computation without deleting its
// history.
func (s *ScheduleService) Deactivate(ctx context.Context, id string) error {
	schedule, err := s.Schedules.FindScheduleByID(ctx, id)
	if err != nil {
		return err
	}
	if schedule == nil {
		return ErrScheduleNotFound
	}
	return s.Schedules.DeactivateSchedule(ctx, id)
}
