package maintenance

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/motorent/backoffice/internal/db"
	"github.com/motorent/backoffice/internal/expense"
	"github.com/motorent/backoffice/internal/models"
)

// Controller drives a work order through its lifecycle and keeps the
// vehicle registry, the originating schedule and the expense outbox in step
// with it.
type Controller struct {
	Records   db.RecordCollection
	Schedules db.ScheduleCollection
	Vehicles  db.VehicleCollection
	Expenses  expense.Outbox
	Now       func() time.Time
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// CreateFromScheduleInput carries the optional fields of an escalation.
type CreateFromScheduleInput struct {
	EstimatedCost float64
	VendorName    string
	Notes         string
}

// ManualRecordInput is an operator-entered work order.
type ManualRecordInput struct {
	VehicleID     string
	Type          models.RecordType
	ServiceType   string
	Description   string
	ScheduledDate *time.Time
	Cost          float64
	VendorName    string
	Notes         string
	CreatedBy     string
}

// CreateFromSchedule spawns a work order from a due schedule. The record
// starts IN_PROGRESS because escalation implies work begins. The vehicle is
// moved to IN_MAINTENANCE and its current odometer reading is captured on
// the record.
func (c *Controller) CreateFromSchedule(ctx context.Context, scheduleID, actorID string, input CreateFromScheduleInput) (*models.MaintenanceRecord, error) {
	if input.EstimatedCost < 0 {
		return nil, &ValidationError{Field: "cost", Reason: "must not be negative"}
	}
	schedule, err := c.Schedules.FindScheduleByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if schedule == nil {
		return nil, ErrScheduleNotFound
	}
	if !schedule.IsActive {
		return nil, ErrScheduleInactive
	}
	open, err := c.Records.FindOpenRecordBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("check open record: %w", err)
	}
	if open != nil {
		return nil, ErrOpenRecordExists
	}
	vehicle, err := c.Vehicles.FindVehicleByID(ctx, schedule.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, ErrVehicleNotFound
	}

	now := c.now()
	record := models.MaintenanceRecord{
		VehicleID:        schedule.VehicleID,
		ScheduleID:       scheduleID,
		Type:             models.RecordService,
		ServiceType:      schedule.ServiceType,
		Description:      fmt.Sprintf("Scheduled maintenance: %s", schedule.ServiceType),
		Status:           models.StatusInProgress,
		ScheduledDate:    &now,
		StartDate:        &now,
		Cost:             input.EstimatedCost,
		VendorName:       input.VendorName,
		MileageAtService: vehicle.CurrentMileage,
		Notes:            input.Notes,
		CreatedBy:        actorID,
	}
	created, err := c.Records.InsertRecord(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	c.setVehicleStatus(ctx, schedule.VehicleID, models.VehicleInMaintenance)
	return created, nil
}

// CreateManual creates an operator-entered work order in status OPEN.
func (c *Controller) CreateManual(ctx context.Context, input ManualRecordInput) (*models.MaintenanceRecord, error) {
	if !models.IsValidRecordType(input.Type) {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown record type %q", input.Type)}
	}
	if input.Cost < 0 {
		return nil, &ValidationError{Field: "cost", Reason: "must not be negative"}
	}
	if input.VehicleID == "" {
		return nil, &ValidationError{Field: "vehicle_id", Reason: "is required"}
	}
	vehicle, err := c.Vehicles.FindVehicleByID(ctx, input.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, ErrVehicleNotFound
	}

	record := models.MaintenanceRecord{
		VehicleID:        input.VehicleID,
		Type:             input.Type,
		ServiceType:      input.ServiceType,
		Description:      input.Description,
		Status:           models.StatusOpen,
		ScheduledDate:    input.ScheduledDate,
		Cost:             input.Cost,
		VendorName:       input.VendorName,
		MileageAtService: vehicle.CurrentMileage,
		Notes:            input.Notes,
		CreatedBy:        input.CreatedBy,
	}
	created, err := c.Records.InsertRecord(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	c.setVehicleStatus(ctx, input.VehicleID, models.VehicleInMaintenance)
	return created, nil
}

// Start moves an OPEN record to IN_PROGRESS and stamps its start date.
func (c *Controller) Start(ctx context.Context, recordID string) (*models.MaintenanceRecord, error) {
	record, err := c.Records.FindRecordByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	next, err := transition(ctx, record.Status, eventStart)
	if err != nil {
		return nil, err
	}
	now := c.now()
	record.Status = next
	record.StartDate = &now
	if err := c.Records.UpdateRecord(ctx, recordID, *record); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return record, nil
}

// Complete finishes a work order: stamps the completion time, computes
// downtime, fixes the final cost, releases the vehicle, rolls the schedule
// checkpoints forward and enqueues the expense upsert. Completing an
// already-completed record fails with ErrAlreadyCompleted and writes
// nothing; under concurrent completion exactly one caller wins.
func (c *Controller) Complete(ctx context.Context, recordID string, actualCost *float64, notes string) (*models.MaintenanceRecord, error) {
	if actualCost != nil && *actualCost < 0 {
		return nil, &ValidationError{Field: "cost", Reason: "must not be negative"}
	}
	record, err := c.Records.FindRecordByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	if _, err := transition(ctx, record.Status, eventComplete); err != nil {
		return nil, err
	}

	completed := c.now()
	downtime := completed.Sub(downtimeReference(record)).Hours()
	if downtime < 0 {
		downtime = 0
	}
	cost := record.Cost
	if actualCost != nil {
		cost = *actualCost
	}

	set := bson.M{
		"status":         models.StatusCompleted,
		"completed_date": completed,
		"downtime_hours": downtime,
		"cost":           cost,
	}
	if notes != "" {
		set["notes"] = notes
	}
	updated, err := c.Records.CompleteRecord(ctx, recordID, set)
	if err != nil {
		return nil, fmt.Errorf("complete record: %w", err)
	}
	if updated == nil {
		// Someone else completed it between our read and the conditional
		// write.
		return nil, ErrAlreadyCompleted
	}

	c.setVehicleStatus(ctx, updated.VehicleID, models.VehicleAvailable)
	if updated.ScheduleID != "" {
		c.rollScheduleForward(ctx, updated, completed)
	}
	if cost > 0 {
		c.enqueueExpense(ctx, updated, cost, completed)
	}
	return updated, nil
}

// rollScheduleForward recomputes the originating schedule's checkpoints
// after a completion. Failures are logged, not propagated: the completion
// is already durable and the next escalation sweep reports the stale
// schedule again.
func (c *Controller) rollScheduleForward(ctx context.Context, record *models.MaintenanceRecord, completed time.Time) {
	logger := log.WithFields(log.Fields{"record_id": record.ID.Hex(), "schedule_id": record.ScheduleID})
	schedule, err := c.Schedules.FindScheduleByID(ctx, record.ScheduleID)
	if err != nil || schedule == nil {
		logger.WithError(err).Error("failed to load schedule for checkpoint update")
		return
	}
	mileage := record.MileageAtService
	if vehicle, err := c.Vehicles.FindVehicleByID(ctx, record.VehicleID); err == nil && vehicle != nil {
		mileage = vehicle.CurrentMileage
	}
	schedule.LastServiceDate = &completed
	schedule.LastServiceMileage = mileage
	if schedule.UsesTime() {
		next := NextDate(completed, schedule.TimeInterval, schedule.TimeIntervalDays)
		schedule.NextServiceDate = &next
	}
	if schedule.UsesMileage() {
		schedule.NextServiceMileage = mileage + schedule.MileageInterval
	}
	if err := c.Schedules.UpdateSchedule(ctx, record.ScheduleID, *schedule); err != nil {
		logger.WithError(err).Error("failed to update schedule checkpoints")
	}
}

// enqueueExpense hands the cost of a completed record to the expense
// outbox. Best effort: a failure here never undoes the completion.
func (c *Controller) enqueueExpense(ctx context.Context, record *models.MaintenanceRecord, cost float64, completed time.Time) {
	if c.Expenses == nil {
		return
	}
	branchID := ""
	if vehicle, err := c.Vehicles.FindVehicleByID(ctx, record.VehicleID); err == nil && vehicle != nil {
		branchID = vehicle.BranchID
	}
	cmd := expense.Command{
		RecordID:    record.ID.Hex(),
		VehicleID:   record.VehicleID,
		Amount:      cost,
		Date:        completed,
		Description: fmt.Sprintf("Maintenance: %s", record.ServiceType),
		BranchID:    branchID,
		ActorID:     record.CreatedBy,
	}
	if err := c.Expenses.Enqueue(ctx, cmd); err != nil {
		log.WithError(err).WithField("record_id", record.ID.Hex()).Error("failed to enqueue expense command")
	}
}

// setVehicleStatus writes the registry side effect. A failure is logged as
// a registry/record inconsistency rather than silently corrected.
func (c *Controller) setVehicleStatus(ctx context.Context, vehicleID string, status models.VehicleStatus) {
	if err := c.Vehicles.UpdateVehicleStatus(ctx, vehicleID, status); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"vehicle_id": vehicleID,
			"status":     status,
		}).Error("vehicle status update failed, registry may be inconsistent with records")
	}
}

// downtimeReference picks the earliest known timestamp to measure downtime
// from: start date, then scheduled date, then creation.
func downtimeReference(record *models.MaintenanceRecord) time.Time {
	if record.StartDate != nil {
		return *record.StartDate
	}
	if record.ScheduledDate != nil {
		return *record.ScheduledDate
	}
	return record.CreatedAt
}
