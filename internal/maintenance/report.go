package maintenance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/motorent/backoffice/internal/db"
	"github.com/motorent/backoffice/internal/models"
)

// ReportFilter narrows a report to a date range and/or one vehicle.
type ReportFilter struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	VehicleID string
}

// VehicleCost is the per-vehicle grouping of the cost report.
type VehicleCost struct {
	VehicleID   string  `json:"vehicle_id"`
	PlateNumber string  `json:"plate_number,omitempty"`
	Count       int     `json:"count"`
	TotalCost   float64 `json:"total_cost"`
	AverageCost float64 `json:"average_cost"`
}

// TypeCost is the per-service-type grouping of the cost report.
type TypeCost struct {
	ServiceType string  `json:"service_type"`
	Count       int     `json:"count"`
	TotalCost   float64 `json:"total_cost"`
}

// CostReport aggregates completed work order costs.
type CostReport struct {
	TotalCost   float64       `json:"total_cost"`
	RecordCount int           `json:"record_count"`
	ByVehicle   []VehicleCost `json:"by_vehicle"`
	ByType      []TypeCost    `json:"by_type"`
}

// VehicleDowntime is the per-vehicle grouping of the downtime report.
type VehicleDowntime struct {
	VehicleID     string  `json:"vehicle_id"`
	PlateNumber   string  `json:"plate_number,omitempty"`
	Count         int     `json:"count"`
	DowntimeHours float64 `json:"downtime_hours"`
	LostRevenue   float64 `json:"lost_revenue"`
}

// DowntimeReport aggregates downtime and the revenue lost to it.
type DowntimeReport struct {
	TotalDowntimeHours float64           `json:"total_downtime_hours"`
	TotalLostRevenue   float64           `json:"total_lost_revenue"`
	ByVehicle          []VehicleDowntime `json:"by_vehicle"`
}

// Reporter reduces completed maintenance records into cost and downtime
// summaries. Read-only; missing cost or daily rate values count as zero.
type Reporter struct {
	Records  db.RecordCollection
	Vehicles db.VehicleCollection
}

// CostReport computes totals and the by-vehicle / by-type groupings, both
// sorted descending by total cost.
func (r *Reporter) CostReport(ctx context.Context, filter ReportFilter) (*CostReport, error) {
	records, err := r.completedRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &CostReport{RecordCount: len(records)}
	byVehicle := make(map[string]*VehicleCost)
	byType := make(map[string]*TypeCost)
	for _, record := range records {
		report.TotalCost += record.Cost

		vc, ok := byVehicle[record.VehicleID]
		if !ok {
			vc = &VehicleCost{VehicleID: record.VehicleID}
			byVehicle[record.VehicleID] = vc
		}
		vc.Count++
		vc.TotalCost += record.Cost

		key := record.ServiceType
		if key == "" {
			key = string(record.Type)
		}
		tc, ok := byType[key]
		if !ok {
			tc = &TypeCost{ServiceType: key}
			byType[key] = tc
		}
		tc.Count++
		tc.TotalCost += record.Cost
	}

	for _, vc := range byVehicle {
		vc.AverageCost = vc.TotalCost / float64(vc.Count)
		vc.PlateNumber = r.plateNumber(ctx, vc.VehicleID)
		report.ByVehicle = append(report.ByVehicle, *vc)
	}
	for _, tc := range byType {
		report.ByType = append(report.ByType, *tc)
	}
	sort.Slice(report.ByVehicle, func(i, j int) bool {
		return report.ByVehicle[i].TotalCost > report.ByVehicle[j].TotalCost
	})
	sort.Slice(report.ByType, func(i, j int) bool {
		return report.ByType[i].TotalCost > report.ByType[j].TotalCost
	})
	return report, nil
}

// DowntimeReport computes downtime hours per vehicle and estimates lost
// rental revenue as downtime in days times the vehicle's daily rate.
func (r *Reporter) DowntimeReport(ctx context.Context, filter ReportFilter) (*DowntimeReport, error) {
	records, err := r.completedRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &DowntimeReport{}
	byVehicle := make(map[string]*VehicleDowntime)
	for _, record := range records {
		report.TotalDowntimeHours += record.DowntimeHours
		vd, ok := byVehicle[record.VehicleID]
		if !ok {
			vd = &VehicleDowntime{VehicleID: record.VehicleID}
			byVehicle[record.VehicleID] = vd
		}
		vd.Count++
		vd.DowntimeHours += record.DowntimeHours
	}

	for _, vd := range byVehicle {
		rate := 0.0
		if vehicle, err := r.Vehicles.FindVehicleByID(ctx, vd.VehicleID); err == nil && vehicle != nil {
			rate = vehicle.DailyRate
			vd.PlateNumber = vehicle.PlateNumber
		}
		vd.LostRevenue = vd.DowntimeHours / 24 * rate
		report.TotalLostRevenue += vd.LostRevenue
		report.ByVehicle = append(report.ByVehicle, *vd)
	}
	sort.Slice(report.ByVehicle, func(i, j int) bool {
		return report.ByVehicle[i].DowntimeHours > report.ByVehicle[j].DowntimeHours
	})
	return report, nil
}

func (r *Reporter) completedRecords(ctx context.Context, filter ReportFilter) ([]models.MaintenanceRecord, error) {
	records, err := r.Records.FindCompletedRecords(ctx, db.RecordFilter{
		DateFrom:  filter.DateFrom,
		DateTo:    filter.DateTo,
		VehicleID: filter.VehicleID,
	})
	if err != nil {
		return nil, fmt.Errorf("load completed records: %w", err)
	}
	return records, nil
}

func (r *Reporter) plateNumber(ctx context.Context, vehicleID string) string {
	vehicle, err := r.Vehicles.FindVehicleByID(ctx, vehicleID)
	if err != nil || vehicle == nil {
		return ""
	}
	return vehicle.PlateNumber
}
