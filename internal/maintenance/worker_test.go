package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/motorent/backoffice/internal/models"
	"github.com/motorent/backoffice/internal/notify"
)

type workerFixture struct {
	schedules *MockScheduleCollection
	records   *MockRecordCollection
	vehicles  *MockVehicleCollection
	users     *MockUserCollection
	sink      *MockSink
	worker    *Worker
}

func newWorkerFixture(now time.Time) *workerFixture {
	f := &workerFixture{
		schedules: new(MockScheduleCollection),
		records:   new(MockRecordCollection),
		vehicles:  new(MockVehicleCollection),
		users:     new(MockUserCollection),
		sink:      new(MockSink),
	}
	controller := &Controller{
		Records:   f.records,
		Schedules: f.schedules,
		Vehicles:  f.vehicles,
		Now:       func() time.Time { return now },
	}
	f.worker = &Worker{
		Due: &DueService{
			Classifier: &Classifier{Now: func() time.Time { return now }},
			Schedules:  f.schedules,
			Vehicles:   f.vehicles,
		},
		Records:       f.records,
		Users:         f.users,
		Controller:    controller,
		Sink:          f.sink,
		SystemActorID: "system",
	}
	return f
}

func operationalUsers(n int) []models.User {
	users := make([]models.User, n)
	for i := range users {
		users[i] = models.User{ID: primitive.NewObjectID(), Role: models.RoleMechanic, IsActive: true}
	}
	return users
}

func TestSweep_EscalatesDueSchedule(t *testing.T) {
	now := date(2024, time.June, 1)
	f := newWorkerFixture(now)

	schedule := mileageSchedule(10000, 5000)
	vehicle := vehicleWithMileage(15200)
	schedule.VehicleID = vehicle.ID.Hex()

	f.schedules.On("FindActiveSchedules", mock.Anything).Return([]models.MaintenanceSchedule{schedule}, nil)
	f.schedules.On("FindScheduleByID", mock.Anything, schedule.ID.Hex()).Return(&schedule, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, vehicle.ID.Hex()).Return(&vehicle, nil)
	f.records.On("FindOpenRecordBySchedule", mock.Anything, schedule.ID.Hex()).Return(nil, nil)
	f.records.On("InsertRecord", mock.Anything, mock.AnythingOfType("models.MaintenanceRecord")).
		Return(&models.MaintenanceRecord{ID: primitive.NewObjectID()}, nil)
	f.vehicles.On("UpdateVehicleStatus", mock.Anything, vehicle.ID.Hex(), models.VehicleInMaintenance).Return(nil)
	f.sink.On("HasRecent", mock.Anything, models.NotificationMaintenanceRequired, schedule.ID.Hex(), vehicle.ID.Hex(), notify.DedupWindow).
		Return(false, nil)
	f.users.On("FindOperationalUsers", mock.Anything).Return(operationalUsers(2), nil)
	f.sink.On("Send", mock.Anything, mock.AnythingOfType("models.Notification")).Return(nil)

	stats, err := f.worker.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Due)
	assert.Equal(t, 1, stats.RecordsCreated)
	assert.Equal(t, 2, stats.NotificationsSent)
	assert.Equal(t, 0, stats.Failures)

	inserted := findInsertedRecord(f.records)
	assert.Equal(t, "system", inserted.CreatedBy)
	assert.Equal(t, models.StatusInProgress, inserted.Status)
}

func TestSweep_SkipsScheduleWithOpenRecord(t *testing.T) {
	now := date(2024, time.June, 1)
	f := newWorkerFixture(now)

	schedule := mileageSchedule(10000, 5000)
	vehicle := vehicleWithMileage(15200)
	schedule.VehicleID = vehicle.ID.Hex()

	f.schedules.On("FindActiveSchedules", mock.Anything).Return([]models.MaintenanceSchedule{schedule}, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, vehicle.ID.Hex()).Return(&vehicle, nil)
	// Escalated on an earlier sweep and still open.
	f.records.On("FindOpenRecordBySchedule", mock.Anything, schedule.ID.Hex()).
		Return(&models.MaintenanceRecord{Status: models.StatusInProgress}, nil)

	stats, err := f.worker.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Due)
	assert.Equal(t, 0, stats.RecordsCreated)
	assert.Equal(t, 0, stats.NotificationsSent)
	f.records.AssertNotCalled(t, "InsertRecord", mock.Anything, mock.Anything)
	f.sink.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSweep_ReminderWithoutRecord(t *testing.T) {
	now := date(2024, time.June, 1)
	f := newWorkerFixture(now)

	schedule := mileageSchedule(10000, 5000)
	vehicle := vehicleWithMileage(14700) // 300 km short, inside the reminder window
	schedule.VehicleID = vehicle.ID.Hex()

	f.schedules.On("FindActiveSchedules", mock.Anything).Return([]models.MaintenanceSchedule{schedule}, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, vehicle.ID.Hex()).Return(&vehicle, nil)
	f.sink.On("HasRecent", mock.Anything, models.NotificationMaintenanceReminder, schedule.ID.Hex(), vehicle.ID.Hex(), notify.DedupWindow).
		Return(false, nil)
	f.users.On("FindOperationalUsers", mock.Anything).Return(operationalUsers(1), nil)
	f.sink.On("Send", mock.Anything, mock.AnythingOfType("models.Notification")).Return(nil)

	stats, err := f.worker.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Upcoming)
	assert.Equal(t, 0, stats.RecordsCreated)
	assert.Equal(t, 1, stats.NotificationsSent)
	f.records.AssertNotCalled(t, "InsertRecord", mock.Anything, mock.Anything)
}

func TestSweep_ReminderDeduplicated(t *testing.T) {
	now := date(2024, time.June, 1)
	f := newWorkerFixture(now)

	schedule := mileageSchedule(10000, 5000)
	vehicle := vehicleWithMileage(14700)
	schedule.VehicleID = vehicle.ID.Hex()

	f.schedules.On("FindActiveSchedules", mock.Anything).Return([]models.MaintenanceSchedule{schedule}, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, vehicle.ID.Hex()).Return(&vehicle, nil)
	f.sink.On("HasRecent", mock.Anything, models.NotificationMaintenanceReminder, schedule.ID.Hex(), vehicle.ID.Hex(), notify.DedupWindow).
		Return(true, nil)

	stats, err := f.worker.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.NotificationsSent)
	f.users.AssertNotCalled(t, "FindOperationalUsers", mock.Anything)
	f.sink.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSweep_PerScheduleFailureIsolation(t *testing.T) {
	now := date(2024, time.June, 1)
	f := newWorkerFixture(now)

	broken := mileageSchedule(10000, 5000)
	healthy := mileageSchedule(10000, 5000)
	brokenVehicle := vehicleWithMileage(16000)
	healthyVehicle := vehicleWithMileage(16000)
	broken.VehicleID = brokenVehicle.ID.Hex()
	healthy.VehicleID = healthyVehicle.ID.Hex()

	f.schedules.On("FindActiveSchedules", mock.Anything).Return([]models.MaintenanceSchedule{broken, healthy}, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, brokenVehicle.ID.Hex()).Return(&brokenVehicle, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, healthyVehicle.ID.Hex()).Return(&healthyVehicle, nil)

	f.records.On("FindOpenRecordBySchedule", mock.Anything, broken.ID.Hex()).Return(nil, errors.New("db down"))

	f.records.On("FindOpenRecordBySchedule", mock.Anything, healthy.ID.Hex()).Return(nil, nil)
	f.schedules.On("FindScheduleByID", mock.Anything, healthy.ID.Hex()).Return(&healthy, nil)
	f.records.On("InsertRecord", mock.Anything, mock.AnythingOfType("models.MaintenanceRecord")).
		Return(&models.MaintenanceRecord{ID: primitive.NewObjectID()}, nil)
	f.vehicles.On("UpdateVehicleStatus", mock.Anything, healthyVehicle.ID.Hex(), models.VehicleInMaintenance).Return(nil)
	f.sink.On("HasRecent", mock.Anything, models.NotificationMaintenanceRequired, healthy.ID.Hex(), healthyVehicle.ID.Hex(), notify.DedupWindow).
		Return(false, nil)
	f.users.On("FindOperationalUsers", mock.Anything).Return(operationalUsers(1), nil)
	f.sink.On("Send", mock.Anything, mock.AnythingOfType("models.Notification")).Return(nil)

	stats, err := f.worker.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Due)
	assert.Equal(t, 1, stats.RecordsCreated)
	assert.Equal(t, 1, stats.Failures)
}

func TestSweep_SkipsScheduleWithMissingVehicle(t *testing.T) {
	now := date(2024, time.June, 1)
	f := newWorkerFixture(now)

	schedule := mileageSchedule(10000, 5000)
	schedule.VehicleID = primitive.NewObjectID().Hex()

	f.schedules.On("FindActiveSchedules", mock.Anything).Return([]models.MaintenanceSchedule{schedule}, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, schedule.VehicleID).Return(nil, nil)

	stats, err := f.worker.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.Due)
	assert.Equal(t, 1, stats.Failures)
}

func TestSweep_SendFailureCountsAndContinues(t *testing.T) {
	now := date(2024, time.June, 1)
	f := newWorkerFixture(now)

	schedule := mileageSchedule(10000, 5000)
	vehicle := vehicleWithMileage(14700)
	schedule.VehicleID = vehicle.ID.Hex()

	f.schedules.On("FindActiveSchedules", mock.Anything).Return([]models.MaintenanceSchedule{schedule}, nil)
	f.vehicles.On("FindVehicleByID", mock.Anything, vehicle.ID.Hex()).Return(&vehicle, nil)
	f.sink.On("HasRecent", mock.Anything, models.NotificationMaintenanceReminder, schedule.ID.Hex(), vehicle.ID.Hex(), notify.DedupWindow).
		Return(false, nil)
	users := operationalUsers(2)
	f.users.On("FindOperationalUsers", mock.Anything).Return(users, nil)
	f.sink.On("Send", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == users[0].ID.Hex()
	})).Return(errors.New("broker unreachable"))
	f.sink.On("Send", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == users[1].ID.Hex()
	})).Return(nil)

	stats, err := f.worker.Sweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.NotificationsSent)
	assert.Equal(t, 1, stats.Failures)
}

func TestDescribeReason(t *testing.T) {
	cases := []struct {
		reason TriggerReason
		want   string
	}{
		{MileageDue{}, "service mileage reached"},
		{TimeDue{}, "service date reached"},
		{MileageUpcoming{RemainingKm: 300}, "300 km remaining"},
		{TimeUpcoming{DaysUntil: 1}, "due in 1 day"},
		{TimeUpcoming{DaysUntil: 4}, "due in 4 days"},
	}
	for _, tc := range cases {
		if got := describeReason(tc.reason); got != tc.want {
			t.Errorf("describeReason(%T) = %q, want %q", tc.reason, got, tc.want)
		}
	}
}

func findInsertedRecord(m *MockRecordCollection) models.MaintenanceRecord {
	for _, call := range m.Calls {
		if call.Method == "InsertRecord" {
			return call.Arguments.Get(1).(models.MaintenanceRecord)
		}
	}
	return models.MaintenanceRecord{}
}
