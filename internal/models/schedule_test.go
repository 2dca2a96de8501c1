package models

import "testing"

func TestIsValidScheduleType(t *testing.T) {
	tests := []struct {
		name     string
		stype    ScheduleType
		expected bool
	}{
		{"mileage", ScheduleMileage, true},
		{"time", ScheduleTime, true},
		{"both", ScheduleBoth, true},
		{"invalid", "WEEKLY", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidScheduleType(tt.stype); got != tt.expected {
				t.Errorf("IsValidScheduleType(%s) = %v, want %v", tt.stype, got, tt.expected)
			}
		})
	}
}

func TestIsValidTimeInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval TimeInterval
		expected bool
	}{
		{"daily", IntervalDaily, true},
		{"weekly", IntervalWeekly, true},
		{"monthly", IntervalMonthly, true},
		{"quarterly", IntervalQuarterly, true},
		{"yearly", IntervalYearly, true},
		{"invalid", "FORTNIGHTLY", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTimeInterval(tt.interval); got != tt.expected {
				t.Errorf("IsValidTimeInterval(%s) = %v, want %v", tt.interval, got, tt.expected)
			}
		})
	}
}

func TestSchedule_UsesMileageAndTime(t *testing.T) {
	mileage := &MaintenanceSchedule{ScheduleType: ScheduleMileage}
	timed := &MaintenanceSchedule{ScheduleType: ScheduleTime}
	both := &MaintenanceSchedule{ScheduleType: ScheduleBoth}

	if !mileage.UsesMileage() || mileage.UsesTime() {
		t.Error("MILEAGE schedule should use mileage only")
	}
	if timed.UsesMileage() || !timed.UsesTime() {
		t.Error("TIME schedule should use time only")
	}
	if !both.UsesMileage() || !both.UsesTime() {
		t.Error("BOTH schedule should use both triggers")
	}
}

func TestIsValidRecordType(t *testing.T) {
	tests := []struct {
		name     string
		rtype    RecordType
		expected bool
	}{
		{"service", RecordService, true},
		{"repair", RecordRepair, true},
		{"accident", RecordAccident, true},
		{"inspection", RecordInspection, true},
		{"invalid", "CLEANING", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidRecordType(tt.rtype); got != tt.expected {
				t.Errorf("IsValidRecordType(%s) = %v, want %v", tt.rtype, got, tt.expected)
			}
		})
	}
}
