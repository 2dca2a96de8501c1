package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleStatus is the operational state of a rental vehicle.
type VehicleStatus string

const (
	VehicleAvailable     VehicleStatus = "AVAILABLE"
	VehicleRented        VehicleStatus = "RENTED"
	VehicleInMaintenance VehicleStatus = "IN_MAINTENANCE"
	VehicleRetired       VehicleStatus = "RETIRED"
)

// Vehicle represents a rental fleet vehicle.
type Vehicle struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlateNumber    string             `bson:"plate_number" json:"plate_number"`
	Make           string             `bson:"make" json:"make"`
	Model          string             `bson:"model" json:"model"`
	Year           int                `bson:"year" json:"year"`
	BranchID       string             `bson:"branch_id,omitempty" json:"branch_id,omitempty"`
	CurrentMileage float64            `bson:"current_mileage" json:"current_mileage"` // km, fed by the odometer endpoint
	DailyRate      float64            `bson:"daily_rate" json:"daily_rate"`           // used for lost-revenue estimates
	Status         VehicleStatus      `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
