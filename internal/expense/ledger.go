package expense

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLedger is the in-house expense ledger. Deployments integrating an
// external accounting system replace it behind the Ledger interface.
type MongoLedger struct {
	Collection *mongo.Collection
}

// UpsertForMaintenanceRecord creates or updates the expense entry for a
// maintenance record. Keyed by record id so repeated dispatches of the same
// command converge on a single expense.
func (l *MongoLedger) UpsertForMaintenanceRecord(ctx context.Context, cmd Command) error {
	if l.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	update := bson.M{
		"$set": bson.M{
			"vehicle_id":  cmd.VehicleID,
			"category":    "maintenance",
			"amount":      cmd.Amount,
			"date":        cmd.Date,
			"description": cmd.Description,
			"branch_id":   cmd.BranchID,
			"created_by":  cmd.ActorID,
			"updated_at":  time.Now(),
		},
		"$setOnInsert": bson.M{
			"maintenance_record_id": cmd.RecordID,
			"created_at":            time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := l.Collection.UpdateOne(ctx, bson.M{"maintenance_record_id": cmd.RecordID}, update, opts)
	return err
}
