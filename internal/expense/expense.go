// Package expense bridges completed maintenance work orders to the
// accounting ledger. The ledger itself is an external system; completion
// only enqueues an upsert command, and a dispatcher retries pending
// commands until the ledger accepts them.
package expense

import (
	"context"
	"time"
)

// Command is one idempotent expense upsert, keyed by the maintenance record
// that produced it. Re-enqueueing for the same record replaces the amount
// and date rather than adding a second expense.
type Command struct {
	RecordID    string    `json:"record_id" bson:"record_id"`
	VehicleID   string    `json:"vehicle_id" bson:"vehicle_id"`
	Amount      float64   `json:"amount" bson:"amount"`
	Date        time.Time `json:"date" bson:"date"`
	Description string    `json:"description" bson:"description"`
	BranchID    string    `json:"branch_id,omitempty" bson:"branch_id,omitempty"`
	ActorID     string    `json:"actor_id" bson:"actor_id"`
}

// Ledger is the external accounting system.
type Ledger interface {
	UpsertForMaintenanceRecord(ctx context.Context, cmd Command) error
}

// Outbox stores commands until the ledger has accepted them.
type Outbox interface {
	Enqueue(ctx context.Context, cmd Command) error
	Pending(ctx context.Context, limit int) ([]PendingCommand, error)
	MarkDone(ctx context.Context, recordID string) error
	MarkFailed(ctx context.Context, recordID string) error
}

// PendingCommand is an outbox entry awaiting dispatch.
type PendingCommand struct {
	Command    `bson:",inline"`
	Attempts   int       `json:"attempts" bson:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at" bson:"enqueued_at"`
}
