// Package notify delivers maintenance notifications to back-office users.
// Every notification is appended to the Mongo log, which also serves the
// 24-hour dedup lookback; when an MQTT broker is configured the message is
// additionally published for live consumers (dashboards, mobile clients).
package notify

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/motorent/backoffice/internal/db"
	"github.com/motorent/backoffice/internal/models"
)

// DedupWindow is how far back the engine looks before emitting another
// notification with the same (type, schedule, vehicle) key.
const DedupWindow = 24 * time.Hour

// Sink is the delivery channel the maintenance engine emits into.
type Sink interface {
	HasRecent(ctx context.Context, ntype models.NotificationType, scheduleID, vehicleID string, within time.Duration) (bool, error)
	Send(ctx context.Context, notification models.Notification) error
}

// Publisher pushes a notification to a live channel. Publish failures are
// best-effort: the logged notification is the source of truth.
type Publisher interface {
	Publish(notification models.Notification) error
}

// Service implements Sink on the notification log plus an optional
// publisher.
type Service struct {
	Notifications db.NotificationCollection
	Publisher     Publisher // may be nil
}

// HasRecent reports whether the dedup key fired within the window.
func (s *Service) HasRecent(ctx context.Context, ntype models.NotificationType, scheduleID, vehicleID string, within time.Duration) (bool, error) {
	return s.Notifications.HasRecentNotification(ctx, ntype, scheduleID, vehicleID, within)
}

// Send logs the notification and, when a publisher is configured, pushes it
// out. The log write is the primary operation; a publish failure is logged
// and swallowed.
func (s *Service) Send(ctx context.Context, notification models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	if err := s.Notifications.InsertNotification(ctx, notification); err != nil {
		return err
	}
	if s.Publisher != nil {
		if err := s.Publisher.Publish(notification); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"type":        notification.Type,
				"schedule_id": notification.ScheduleID,
			}).Warn("notification publish failed")
		}
	}
	return nil
}
