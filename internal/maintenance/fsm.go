package maintenance

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/motorent/backoffice/internal/models"
)

// Work order lifecycle events.
const (
	eventStart    = "start"
	eventComplete = "complete"
)

// newRecordFSM declares the forward-only work order lifecycle:
// OPEN -> IN_PROGRESS -> COMPLETED, with completion also allowed straight
// from OPEN. There is no backward or cancellation transition.
func newRecordFSM(current models.RecordStatus) *fsm.FSM {
	return fsm.NewFSM(
		string(current),
		fsm.Events{
			{Name: eventStart, Src: []string{string(models.StatusOpen)}, Dst: string(models.StatusInProgress)},
			{Name: eventComplete, Src: []string{string(models.StatusOpen), string(models.StatusInProgress)}, Dst: string(models.StatusCompleted)},
		},
		fsm.Callbacks{},
	)
}

// transition fires event against the record's current status and returns
// the destination status, mapping state machine rejections onto the error
// taxonomy.
func transition(ctx context.Context, current models.RecordStatus, event string) (models.RecordStatus, error) {
	machine := newRecordFSM(current)
	if err := machine.Event(ctx, event); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			if current == models.StatusCompleted {
				return "", ErrAlreadyCompleted
			}
			return "", ErrInvalidTransition
		}
		return "", err
	}
	return models.RecordStatus(machine.Current()), nil
}
