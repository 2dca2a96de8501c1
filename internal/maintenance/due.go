package maintenance

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/motorent/backoffice/internal/db"
	"github.com/motorent/backoffice/internal/models"
)

// TriggerReason is a tagged variant describing why a schedule was
// classified. Exactly one concrete type applies per classified item.
type TriggerReason interface {
	isTriggerReason()
}

// MileageDue marks a schedule whose vehicle reached the service mileage.
type MileageDue struct{}

// TimeDue marks a schedule whose service date has arrived.
type TimeDue struct{}

// MileageUpcoming marks a schedule inside its mileage reminder window.
type MileageUpcoming struct {
	RemainingKm float64
}

// TimeUpcoming marks a schedule inside its day-based reminder window.
type TimeUpcoming struct {
	DaysUntil int
}

func (MileageDue) isTriggerReason()      {}
func (TimeDue) isTriggerReason()         {}
func (MileageUpcoming) isTriggerReason() {}
func (TimeUpcoming) isTriggerReason()    {}

// ScheduleVehicle joins a schedule with its vehicle's current state.
type ScheduleVehicle struct {
	Schedule models.MaintenanceSchedule
	Vehicle  models.Vehicle
}

// DueItem is one classified schedule with the trigger that fired.
type DueItem struct {
	Schedule models.MaintenanceSchedule
	Vehicle  models.Vehicle
	Reason   TriggerReason
}

// Classification is the disjoint output of a classification pass. Each
// schedule appears in at most one list; a due trigger wins over an upcoming
// one, and the mileage rule is evaluated before the time rule.
type Classification struct {
	DueByMileage []DueItem
	DueByTime    []DueItem
	Upcoming     []DueItem
}

// Classifier is the pure due-computation engine. Now is injectable for
// tests and defaults to time.Now.
type Classifier struct {
	Now func() time.Time
}

func (c *Classifier) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Classify runs both trigger rules over every active schedule. Inactive
// schedules are skipped.
func (c *Classifier) Classify(items []ScheduleVehicle) Classification {
	var out Classification
	today := startOfDay(c.now())
	for _, item := range items {
		if !item.Schedule.IsActive {
			continue
		}
		due, upcoming := c.classifyOne(item.Schedule, item.Vehicle, today)
		switch due.(type) {
		case MileageDue:
			out.DueByMileage = append(out.DueByMileage, DueItem{item.Schedule, item.Vehicle, due})
		case TimeDue:
			out.DueByTime = append(out.DueByTime, DueItem{item.Schedule, item.Vehicle, due})
		default:
			if upcoming != nil {
				out.Upcoming = append(out.Upcoming, DueItem{item.Schedule, item.Vehicle, upcoming})
			}
		}
	}
	return out
}

// classifyOne evaluates the mileage rule then the time rule and returns at
// most one due reason and at most one upcoming reason.
func (c *Classifier) classifyOne(s models.MaintenanceSchedule, v models.Vehicle, today time.Time) (due, upcoming TriggerReason) {
	if s.UsesMileage() && s.MileageInterval > 0 {
		next := s.NextServiceMileage
		if next == 0 {
			next = s.LastServiceMileage + s.MileageInterval
		}
		switch {
		case v.CurrentMileage >= next:
			return MileageDue{}, nil
		case v.CurrentMileage >= next-s.ReminderMileageBefore:
			upcoming = MileageUpcoming{RemainingKm: next - v.CurrentMileage}
		}
	}
	if s.UsesTime() {
		next := c.nextServiceDate(s)
		if !next.IsZero() {
			next = startOfDay(next)
			if !today.Before(next) {
				return TimeDue{}, nil
			}
			reminderStart := next.AddDate(0, 0, -s.ReminderDaysBefore)
			if upcoming == nil && !today.Before(reminderStart) {
				upcoming = TimeUpcoming{DaysUntil: daysUntil(today, next)}
			}
		}
	}
	return nil, upcoming
}

// nextServiceDate resolves the stored checkpoint, falling back to one
// interval past the last service (or the schedule's creation).
func (c *Classifier) nextServiceDate(s models.MaintenanceSchedule) time.Time {
	if s.NextServiceDate != nil {
		return *s.NextServiceDate
	}
	base := s.CreatedAt
	if s.LastServiceDate != nil {
		base = *s.LastServiceDate
	}
	if base.IsZero() {
		return time.Time{}
	}
	return NextDate(base, s.TimeInterval, s.TimeIntervalDays)
}

// NextDate advances from by exactly one unit of the configured interval.
// An overrideDays value takes precedence over the named interval. Month
// based intervals clamp to the last day of the target month, so one month
// after 2024-01-31 is 2024-02-29.
func NextDate(from time.Time, interval models.TimeInterval, overrideDays int) time.Time {
	if overrideDays > 0 {
		return from.AddDate(0, 0, overrideDays)
	}
	switch interval {
	case models.IntervalDaily:
		return from.AddDate(0, 0, 1)
	case models.IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case models.IntervalMonthly:
		return addMonthsClamped(from, 1)
	case models.IntervalQuarterly:
		return addMonthsClamped(from, 3)
	case models.IntervalYearly:
		return addMonthsClamped(from, 12)
	default:
		return addMonthsClamped(from, 1)
	}
}

// DueService joins active schedules with their vehicles and runs the
// classifier over the result. It backs both the escalation worker and the
// classify API operation.
type DueService struct {
	Classifier *Classifier
	Schedules  db.ScheduleCollection
	Vehicles   db.VehicleCollection
}

// Snapshot loads every active schedule with its vehicle's current state.
// Schedules whose vehicle cannot be loaded are skipped and counted, so one
// broken reference never hides the rest of the fleet.
func (s *DueService) Snapshot(ctx context.Context) ([]ScheduleVehicle, int, error) {
	schedules, err := s.Schedules.FindActiveSchedules(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load active schedules: %w", err)
	}
	cache := make(map[string]*models.Vehicle)
	joined := make([]ScheduleVehicle, 0, len(schedules))
	skipped := 0
	for _, schedule := range schedules {
		vehicle, ok := cache[schedule.VehicleID]
		if !ok {
			vehicle, err = s.Vehicles.FindVehicleByID(ctx, schedule.VehicleID)
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"schedule_id": schedule.ID.Hex(),
					"vehicle_id":  schedule.VehicleID,
				}).Error("failed to load vehicle for schedule")
				skipped++
				continue
			}
			cache[schedule.VehicleID] = vehicle
		}
		if vehicle == nil {
			log.WithFields(log.Fields{
				"schedule_id": schedule.ID.Hex(),
				"vehicle_id":  schedule.VehicleID,
			}).Error("schedule references missing vehicle")
			skipped++
			continue
		}
		joined = append(joined, ScheduleVehicle{Schedule: schedule, Vehicle: *vehicle})
	}
	return joined, skipped, nil
}

// ClassifyDue is the exposed classification operation.
func (s *DueService) ClassifyDue(ctx context.Context) (Classification, error) {
	joined, _, err := s.Snapshot(ctx)
	if err != nil {
		return Classification{}, err
	}
	return s.Classifier.Classify(joined), nil
}

// addMonthsClamped adds months without the day-overflow normalization of
// time.AddDate: Jan 31 plus one month lands on the last day of February.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	hour, min, sec := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// daysUntil is the whole number of days from today (start of day) to the
// target date, rounded up.
func daysUntil(today, target time.Time) int {
	return int(math.Ceil(target.Sub(today).Hours() / 24))
}
