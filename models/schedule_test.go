package models

import (
	"strings"
	"testing"
)

func weeklyEntry(day, start, end string) ScheduleConfigEntry {
	return ScheduleConfigEntry{
		Type:   EntryWeeklyPattern,
		Weekly: &WeeklyPattern{Day: day, Active: true, Start: start, End: end},
	}
}

func TestValidateScheduleEntriesAcceptsAlignedWindows(t *testing.T) {
	entries := []ScheduleConfigEntry{
		weeklyEntry("Segunda-feira", "09:00", "12:30"),
		{
			Type:     EntrySpecificDate,
			Specific: &SpecificDate{Date: "2026-09-07", Active: true, Start: "14:30", End: "16:00"},
		},
		{
			Type:    EntryMonthlyAvailability,
			Monthly: &MonthlyAvailability{MonthIndex: 11, Available: false},
		},
	}
	if err := ValidateScheduleEntries(entries); err != nil {
		t.Fatalf("ValidateScheduleEntries() = %v, want nil", err)
	}
}

func TestValidateScheduleEntriesRejectsOffBoundaryWindows(t *testing.T) {
	cases := []struct {
		name  string
		entry ScheduleConfigEntry
	}{
		{"weekly off-boundary start", weeklyEntry("Segunda-feira", "09:15", "10:00")},
		{"weekly off-boundary end", weeklyEntry("Segunda-feira", "09:00", "10:15")},
		{
			"specific-date off-boundary window",
			ScheduleConfigEntry{
				Type:     EntrySpecificDate,
				Specific: &SpecificDate{Date: "2026-09-07", Active: true, Start: "09:15", End: "10:15"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateScheduleEntries([]ScheduleConfigEntry{tc.entry})
			if err == nil {
				t.Fatalf("ValidateScheduleEntries() accepted an off-boundary window")
			}
			if !strings.Contains(err.Error(), "boundaries") {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateScheduleEntriesIgnoresInactiveWindows(t *testing.T) {
	entries := []ScheduleConfigEntry{
		{
			Type:   EntryWeeklyPattern,
			Weekly: &WeeklyPattern{Day: "Domingo", Active: false, Start: "09:15", End: "08:00"},
		},
	}
	if err := ValidateScheduleEntries(entries); err != nil {
		t.Fatalf("inactive window should not be validated, got %v", err)
	}
}

func TestValidateScheduleEntriesRejectsInvertedWindow(t *testing.T) {
	if err := ValidateScheduleEntries([]ScheduleConfigEntry{weeklyEntry("Sábado", "12:00", "10:00")}); err == nil {
		t.Fatalf("ValidateScheduleEntries() accepted start after end")
	}
}
