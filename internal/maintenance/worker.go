package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/motorent/backoffice/internal/db"
	"github.com/motorent/backoffice/internal/expense"
	"github.com/motorent/backoffice/internal/models"
	"github.com/motorent/backoffice/internal/notify"
)

var (
	sweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_maintenance_sweeps_total",
		Help: "Escalation sweeps executed.",
	})
	recordsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_maintenance_records_created_total",
		Help: "Work orders created by escalation.",
	})
	notificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_maintenance_notifications_sent_total",
		Help: "Escalation and reminder notifications sent.",
	})
	sweepItemFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_maintenance_sweep_item_failures_total",
		Help: "Per-schedule failures during escalation sweeps.",
	})
)

// DefaultSweepInterval is used when the deployment does not configure one.
const DefaultSweepInterval = 15 * time.Minute

// Worker is the periodic escalation process: it classifies every active
// schedule, turns due ones into work orders exactly once, and emits
// deduplicated reminders for upcoming ones. Each schedule is processed
// independently; one failure never aborts the sweep.
type Worker struct {
	Due        *DueService
	Records    db.RecordCollection
	Users      db.UserCollection
	Controller *Controller
	Sink       notify.Sink
	Dispatcher *expense.Dispatcher // optional

	// SystemActorID is stamped as created_by on auto-generated records.
	SystemActorID string
	Interval      time.Duration
}

// SweepStats summarizes one sweep for logging and tests.
type SweepStats struct {
	Due               int
	Upcoming          int
	RecordsCreated    int
	NotificationsSent int
	Failures          int
}

// Run sweeps on the configured interval until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.WithField("interval", interval).Info("escalation worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("escalation worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				log.WithError(err).Error("escalation sweep failed")
			}
		}
	}
}

// Sweep runs one classification and escalation pass. Only a failure to
// load the schedule set is returned as an error; everything downstream is
// per-item and self-heals on the next tick because unmet conditions
// persist.
func (w *Worker) Sweep(ctx context.Context) (SweepStats, error) {
	sweepsTotal.Inc()
	var stats SweepStats

	joined, skipped, err := w.Due.Snapshot(ctx)
	if err != nil {
		return stats, err
	}
	stats.Failures += skipped

	result := w.Due.Classifier.Classify(joined)
	stats.Due = len(result.DueByMileage) + len(result.DueByTime)
	stats.Upcoming = len(result.Upcoming)

	for _, item := range result.DueByMileage {
		w.escalate(ctx, item, &stats)
	}
	for _, item := range result.DueByTime {
		w.escalate(ctx, item, &stats)
	}
	for _, item := range result.Upcoming {
		w.remind(ctx, item, &stats)
	}

	if w.Dispatcher != nil {
		if _, err := w.Dispatcher.Dispatch(ctx); err != nil {
			log.WithError(err).Error("expense dispatch pass failed")
		}
	}

	log.WithFields(log.Fields{
		"due":      stats.Due,
		"upcoming": stats.Upcoming,
		"created":  stats.RecordsCreated,
		"notified": stats.NotificationsSent,
		"failures": stats.Failures,
	}).Info("escalation sweep finished")
	return stats, nil
}

// escalate turns one due schedule into a work order and notifies the
// operational users. The open-record check makes repeated sweeps
// idempotent: a schedule with an OPEN or IN_PROGRESS work order is left
// alone until an operator completes it.
func (w *Worker) escalate(ctx context.Context, item DueItem, stats *SweepStats) {
	scheduleID := item.Schedule.ID.Hex()
	open, err := w.Records.FindOpenRecordBySchedule(ctx, scheduleID)
	if err != nil {
		w.fail(stats, err, item.Schedule, "failed to check for open record")
		return
	}
	if open != nil {
		// Already escalated on an earlier sweep.
		return
	}

	if _, err := w.Controller.CreateFromSchedule(ctx, scheduleID, w.SystemActorID, CreateFromScheduleInput{}); err != nil {
		if err == ErrOpenRecordExists {
			return
		}
		w.fail(stats, err, item.Schedule, "failed to create work order")
		return
	}
	stats.RecordsCreated++
	recordsCreatedTotal.Inc()

	title := "Maintenance required"
	message := fmt.Sprintf("%s %s (%s) is due for %s: %s",
		item.Vehicle.Make, item.Vehicle.Model, item.Vehicle.PlateNumber,
		item.Schedule.ServiceType, describeReason(item.Reason))
	w.notify(ctx, item, models.NotificationMaintenanceRequired, title, message, stats)
}

// remind emits a deduplicated reminder for an upcoming schedule. No work
// order is created.
func (w *Worker) remind(ctx context.Context, item DueItem, stats *SweepStats) {
	title := "Maintenance coming up"
	message := fmt.Sprintf("%s %s (%s): %s for %s",
		item.Vehicle.Make, item.Vehicle.Model, item.Vehicle.PlateNumber,
		describeReason(item.Reason), item.Schedule.ServiceType)
	w.notify(ctx, item, models.NotificationMaintenanceReminder, title, message, stats)
}

// notify fans one message out to every operational user unless the dedup
// key already fired within the lookback window.
func (w *Worker) notify(ctx context.Context, item DueItem, ntype models.NotificationType, title, message string, stats *SweepStats) {
	scheduleID := item.Schedule.ID.Hex()
	vehicleID := item.Vehicle.ID.Hex()
	recent, err := w.Sink.HasRecent(ctx, ntype, scheduleID, vehicleID, notify.DedupWindow)
	if err != nil {
		w.fail(stats, err, item.Schedule, "failed to check notification dedup")
		return
	}
	if recent {
		return
	}
	users, err := w.Users.FindOperationalUsers(ctx)
	if err != nil {
		w.fail(stats, err, item.Schedule, "failed to load operational users")
		return
	}
	for _, user := range users {
		notification := models.Notification{
			Type:       ntype,
			ScheduleID: scheduleID,
			VehicleID:  vehicleID,
			UserID:     user.ID.Hex(),
			Title:      title,
			Message:    message,
		}
		if err := w.Sink.Send(ctx, notification); err != nil {
			w.fail(stats, err, item.Schedule, "failed to send notification")
			continue
		}
		stats.NotificationsSent++
		notificationsSentTotal.Inc()
	}
}

func (w *Worker) fail(stats *SweepStats, err error, schedule models.MaintenanceSchedule, msg string) {
	stats.Failures++
	sweepItemFailuresTotal.Inc()
	log.WithError(err).WithFields(log.Fields{
		"schedule_id": schedule.ID.Hex(),
		"vehicle_id":  schedule.VehicleID,
	}).Error(msg)
}

// describeReason renders a trigger reason for notification text.
func describeReason(reason TriggerReason) string {
	switch r := reason.(type) {
	case MileageDue:
		return "service mileage reached"
	case TimeDue:
		return "service date reached"
	case MileageUpcoming:
		return fmt.Sprintf("%.0f km remaining", r.RemainingKm)
	case TimeUpcoming:
		if r.DaysUntil == 1 {
			return "due in 1 day"
		}
		return fmt.Sprintf("due in %d days", r.DaysUntil)
	default:
		return "maintenance trigger"
	}
}
