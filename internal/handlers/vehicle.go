package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/motorent/backoffice/internal/db"
	"github.com/motorent/backoffice/internal/maintenance"
	"github.com/motorent/backoffice/internal/models"
)

// VehicleHandler covers the registry surface the maintenance engine needs:
// fleet listing, enrollment and the odometer feed.
type VehicleHandler struct {
	Vehicles db.VehicleCollection
}

// ListVehicles returns the fleet.
func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Vehicles.FindVehicles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// CreateVehicle enrolls a vehicle into the registry.
func (h *VehicleHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var vehicle models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&vehicle); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if vehicle.PlateNumber == "" {
		http.Error(w, "plate_number is required", http.StatusBadRequest)
		return
	}
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleAvailable
	}
	created, err := h.Vehicles.InsertVehicle(r.Context(), vehicle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type odometerRequest struct {
	Mileage float64 `json:"mileage"`
}

// UpdateOdometer records a new odometer reading. Readings only move
// forward; a lower value than the stored one is rejected.
func (h *VehicleHandler) UpdateOdometer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req odometerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	vehicle, err := h.Vehicles.FindVehicleByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if vehicle == nil {
		writeError(w, maintenance.ErrVehicleNotFound)
		return
	}
	if req.Mileage < vehicle.CurrentMileage {
		http.Error(w, "mileage cannot decrease", http.StatusBadRequest)
		return
	}
	if err := h.Vehicles.UpdateVehicleMileage(r.Context(), id, req.Mileage); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vehicle_id": id, "mileage": req.Mileage})
}
