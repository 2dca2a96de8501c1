package maintenance

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/motorent/backoffice/internal/db"
	"github.com/motorent/backoffice/internal/expense"
	"github.com/motorent/backoffice/internal/models"
)

// MockScheduleCollection is a mock implementation of db.ScheduleCollection.
type MockScheduleCollection struct {
	mock.Mock
}

func (m *MockScheduleCollection) InsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (*models.MaintenanceSchedule, error) {
	args := m.Called(ctx, schedule)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceSchedule), args.Error(1)
}

func (m *MockScheduleCollection) FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceSchedule), args.Error(1)
}

func (m *MockScheduleCollection) FindActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceSchedule), args.Error(1)
}

func (m *MockScheduleCollection) UpdateSchedule(ctx context.Context, id string, schedule models.MaintenanceSchedule) error {
	args := m.Called(ctx, id, schedule)
	return args.Error(0)
}

func (m *MockScheduleCollection) DeactivateSchedule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRecordCollection is a mock implementation of db.RecordCollection.
type MockRecordCollection struct {
	mock.Mock
}

func (m *MockRecordCollection) InsertRecord(ctx context.Context, record models.MaintenanceRecord) (*models.MaintenanceRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceRecord), args.Error(1)
}

func (m *MockRecordCollection) FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceRecord), args.Error(1)
}

func (m *MockRecordCollection) FindOpenRecordBySchedule(ctx context.Context, scheduleID string) (*models.MaintenanceRecord, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceRecord), args.Error(1)
}

func (m *MockRecordCollection) FindCompletedRecords(ctx context.Context, filter db.RecordFilter) ([]models.MaintenanceRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceRecord), args.Error(1)
}

func (m *MockRecordCollection) UpdateRecord(ctx context.Context, id string, record models.MaintenanceRecord) error {
	args := m.Called(ctx, id, record)
	return args.Error(0)
}

func (m *MockRecordCollection) CompleteRecord(ctx context.Context, id string, set bson.M) (*models.MaintenanceRecord, error) {
	args := m.Called(ctx, id, set)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceRecord), args.Error(1)
}

// MockVehicleCollection is a mock implementation of db.VehicleCollection.
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (*models.Vehicle, error) {
	args := m.Called(ctx, vehicle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicleStatus(ctx context.Context, id string, status models.VehicleStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockVehicleCollection) UpdateVehicleMileage(ctx context.Context, id string, mileage float64) error {
	args := m.Called(ctx, id, mileage)
	return args.Error(0)
}

// MockUserCollection is a mock implementation of db.UserCollection.
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindOperationalUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSink is a mock implementation of notify.Sink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) HasRecent(ctx context.Context, ntype models.NotificationType, scheduleID, vehicleID string, within time.Duration) (bool, error) {
	args := m.Called(ctx, ntype, scheduleID, vehicleID, within)
	return args.Bool(0), args.Error(1)
}

func (m *MockSink) Send(ctx context.Context, notification models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

// MockOutbox is a mock implementation of expense.Outbox.
type MockOutbox struct {
	mock.Mock
}

func (m *MockOutbox) Enqueue(ctx context.Context, cmd expense.Command) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

func (m *MockOutbox) Pending(ctx context.Context, limit int) ([]expense.PendingCommand, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expense.PendingCommand), args.Error(1)
}

func (m *MockOutbox) MarkDone(ctx context.Context, recordID string) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

func (m *MockOutbox) MarkFailed(ctx context.Context, recordID string) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}
