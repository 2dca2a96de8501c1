package expense

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	statePending = "pending"
	stateDone    = "done"
)

// MongoOutbox implements Outbox on a MongoDB collection. One document per
// record id; a second enqueue for the same record overwrites the pending
// command instead of duplicating it.
type MongoOutbox struct {
	Collection *mongo.Collection
}

// Enqueue upserts a pending command for the command's record id.
func (o *MongoOutbox) Enqueue(ctx context.Context, cmd Command) error {
	if o.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	update := bson.M{
		"$set": bson.M{
			"vehicle_id":  cmd.VehicleID,
			"amount":      cmd.Amount,
			"date":        cmd.Date,
			"description": cmd.Description,
			"branch_id":   cmd.BranchID,
			"actor_id":    cmd.ActorID,
			"state":       statePending,
		},
		"$setOnInsert": bson.M{
			"record_id":   cmd.RecordID,
			"attempts":    0,
			"enqueued_at": time.Now(),
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := o.Collection.UpdateOne(ctx, bson.M{"record_id": cmd.RecordID}, update, opts)
	return err
}

// Pending returns up to limit commands awaiting dispatch, oldest first.
func (o *MongoOutbox) Pending(ctx context.Context, limit int) ([]PendingCommand, error) {
	if o.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "enqueued_at", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := o.Collection.Find(ctx, bson.M{"state": statePending}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var cmds []PendingCommand
	if err := cursor.All(ctx, &cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

// MarkDone flags a command as accepted by the ledger.
func (o *MongoOutbox) MarkDone(ctx context.Context, recordID string) error {
	_, err := o.Collection.UpdateOne(
		ctx,
		bson.M{"record_id": recordID},
		bson.M{"$set": bson.M{"state": stateDone, "dispatched_at": time.Now()}},
	)
	return err
}

// MarkFailed bumps the attempt counter; the command stays pending and is
// retried on a later dispatch pass.
func (o *MongoOutbox) MarkFailed(ctx context.Context, recordID string) error {
	_, err := o.Collection.UpdateOne(
		ctx,
		bson.M{"record_id": recordID},
		bson.M{"$inc": bson.M{"attempts": 1}, "$set": bson.M{"last_failed_at": time.Now()}},
	)
	return err
}
