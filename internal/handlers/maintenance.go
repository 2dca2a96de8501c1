package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/motorent/backoffice/internal/maintenance"
	"github.com/motorent/backoffice/internal/middleware"
	"github.com/motorent/backoffice/internal/models"
)

// MaintenanceHandler exposes the maintenance engine to the API layer.
type MaintenanceHandler struct {
	Schedules  *maintenance.ScheduleService
	Due        *maintenance.DueService
	Controller *maintenance.Controller
	Reporter   *maintenance.Reporter
}

// ListSchedules returns every active schedule.
func (h *MaintenanceHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Schedules.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if schedules == nil {
		schedules = []models.MaintenanceSchedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

// CreateSchedule creates a recurring maintenance obligation.
func (h *MaintenanceHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var input maintenance.ScheduleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	schedule, err := h.Schedules.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, schedule)
}

// DeactivateSchedule excludes a schedule from due-computation. Schedules
// are never hard-deleted.
func (h *MaintenanceHandler) DeactivateSchedule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Schedules.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// dueItemResponse flattens a tagged trigger reason for JSON consumers.
type dueItemResponse struct {
	Schedule    models.MaintenanceSchedule `json:"schedule"`
	Vehicle     models.Vehicle             `json:"vehicle"`
	Trigger     string                     `json:"trigger"`
	RemainingKm *float64                   `json:"remaining_km,omitempty"`
	DaysUntil   *int                       `json:"days_until,omitempty"`
}

type classificationResponse struct {
	DueByMileage      []dueItemResponse `json:"due_by_mileage"`
	DueByTime         []dueItemResponse `json:"due_by_time"`
	UpcomingReminders []dueItemResponse `json:"upcoming_reminders"`
}

// ClassifyDue runs the due-computation engine over the current fleet state.
func (h *MaintenanceHandler) ClassifyDue(w http.ResponseWriter, r *http.Request) {
	result, err := h.Due.ClassifyDue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := classificationResponse{
		DueByMileage:      toDueResponses(result.DueByMileage),
		DueByTime:         toDueResponses(result.DueByTime),
		UpcomingReminders: toDueResponses(result.Upcoming),
	}
	writeJSON(w, http.StatusOK, resp)
}

func toDueResponses(items []maintenance.DueItem) []dueItemResponse {
	out := make([]dueItemResponse, 0, len(items))
	for _, item := range items {
		resp := dueItemResponse{Schedule: item.Schedule, Vehicle: item.Vehicle}
		switch reason := item.Reason.(type) {
		case maintenance.MileageDue:
			resp.Trigger = "MILEAGE_DUE"
		case maintenance.TimeDue:
			resp.Trigger = "TIME_DUE"
		case maintenance.MileageUpcoming:
			resp.Trigger = "MILEAGE_UPCOMING"
			resp.RemainingKm = &reason.RemainingKm
		case maintenance.TimeUpcoming:
			resp.Trigger = "TIME_UPCOMING"
			resp.DaysUntil = &reason.DaysUntil
		}
		out = append(out, resp)
	}
	return out
}

type createFromScheduleRequest struct {
	EstimatedCost float64 `json:"estimated_cost,omitempty"`
	VendorName    string  `json:"vendor_name,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// CreateRecordFromSchedule escalates one schedule into a work order on
// behalf of the authenticated operator.
func (h *MaintenanceHandler) CreateRecordFromSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleID := mux.Vars(r)["id"]
	var req createFromScheduleRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}
	actorID := ""
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		actorID = claims.UserID
	}
	record, err := h.Controller.CreateFromSchedule(r.Context(), scheduleID, actorID, maintenance.CreateFromScheduleInput{
		EstimatedCost: req.EstimatedCost,
		VendorName:    req.VendorName,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

type manualRecordRequest struct {
	VehicleID     string            `json:"vehicle_id"`
	Type          models.RecordType `json:"type"`
	ServiceType   string            `json:"service_type"`
	Description   string            `json:"description"`
	ScheduledDate *time.Time        `json:"scheduled_date,omitempty"`
	Cost          float64           `json:"cost,omitempty"`
	VendorName    string            `json:"vendor_name,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

// CreateManualRecord creates an operator-entered work order.
func (h *MaintenanceHandler) CreateManualRecord(w http.ResponseWriter, r *http.Request) {
	var req manualRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	createdBy := ""
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		createdBy = claims.UserID
	}
	record, err := h.Controller.CreateManual(r.Context(), maintenance.ManualRecordInput{
		VehicleID:     req.VehicleID,
		Type:          req.Type,
		ServiceType:   req.ServiceType,
		Description:   req.Description,
		ScheduledDate: req.ScheduledDate,
		Cost:          req.Cost,
		VendorName:    req.VendorName,
		Notes:         req.Notes,
		CreatedBy:     createdBy,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// StartRecord moves an OPEN work order to IN_PROGRESS.
func (h *MaintenanceHandler) StartRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.Controller.Start(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type completeRecordRequest struct {
	ActualCost *float64 `json:"actual_cost,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// CompleteRecord finishes a work order.
func (h *MaintenanceHandler) CompleteRecord(w http.ResponseWriter, r *http.Request) {
	var req completeRecordRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}
	record, err := h.Controller.Complete(r.Context(), mux.Vars(r)["id"], req.ActualCost, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// CostReport returns the maintenance cost aggregation.
func (h *MaintenanceHandler) CostReport(w http.ResponseWriter, r *http.Request) {
	filter, err := reportFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.Reporter.CostReport(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// DowntimeReport returns the downtime and lost-revenue aggregation.
func (h *MaintenanceHandler) DowntimeReport(w http.ResponseWriter, r *http.Request) {
	filter, err := reportFilterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.Reporter.DowntimeReport(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// reportFilterFromQuery parses date_from, date_to (RFC 3339 or YYYY-MM-DD)
// and vehicle_id query parameters.
func reportFilterFromQuery(r *http.Request) (maintenance.ReportFilter, error) {
	var filter maintenance.ReportFilter
	query := r.URL.Query()
	if raw := query.Get("date_from"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &parsed
	}
	if raw := query.Get("date_to"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.DateTo = &parsed
	}
	filter.VehicleID = query.Get("vehicle_id")
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}
