package expense

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// DefaultDispatchBatch bounds how many pending commands one pass drains.
const DefaultDispatchBatch = 50

// Dispatcher drains the outbox into the ledger. Failures keep the command
// pending; the next pass picks it up again.
type Dispatcher struct {
	Outbox Outbox
	Ledger Ledger
	Batch  int
}

// Dispatch pushes pending commands to the ledger. A per-command failure is
// logged and does not stop the pass. Returns the number of commands the
// ledger accepted.
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	batch := d.Batch
	if batch <= 0 {
		batch = DefaultDispatchBatch
	}
	pending, err := d.Outbox.Pending(ctx, batch)
	if err != nil {
		return 0, err
	}
	dispatched := 0
	for _, cmd := range pending {
		if err := d.Ledger.UpsertForMaintenanceRecord(ctx, cmd.Command); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"record_id": cmd.RecordID,
				"attempts":  cmd.Attempts + 1,
			}).Warn("expense dispatch failed, will retry")
			if markErr := d.Outbox.MarkFailed(ctx, cmd.RecordID); markErr != nil {
				log.WithError(markErr).WithField("record_id", cmd.RecordID).Error("failed to mark expense command failed")
			}
			continue
		}
		if err := d.Outbox.MarkDone(ctx, cmd.RecordID); err != nil {
			log.WithError(err).WithField("record_id", cmd.RecordID).Error("failed to mark expense command done")
			continue
		}
		dispatched++
	}
	return dispatched, nil
}
