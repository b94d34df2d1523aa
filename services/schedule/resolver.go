package schedule

import (
	"time"

	"agendify/models"
)

// Resolve computes the bookable half-hour slots of one calendar date from a
// professor's layered schedule config. It is a pure function of its inputs:
// no I/O, no clock reads, identical inputs give identical output.
//
// Layer precedence for the date:
//  1. A SPECIFIC_DATE entry, when present, decides alone: its active flag and
//     window replace both other layers.
//  2. Otherwise the WEEKLY_PATTERN for the date's weekday applies, but a
//     MONTHLY_AVAILABILITY entry with available=false for the date's month
//     suppresses it entirely.
//
// Missing config, inactive days and malformed or empty windows all resolve to
// no slots rather than an error. Slots strictly in the past relative to now
// are dropped.
func Resolve(date time.Time, cfg models.ScheduleConfig, now time.Time) []models.TimeSlot {
	dateStr := date.Format("2006-01-02")

	var window struct {
		start string
		end   string
	}

	if sd, ok := cfg.Specific[dateStr]; ok {
		if !sd.Active {
			return nil
		}
		window.start, window.end = sd.Start, sd.End
	} else {
		wp, ok := cfg.Weekly[models.WeekdayName(date)]
		if !ok || !wp.Active {
			return nil
		}
		if available, ok := cfg.Monthly[int(date.Month())-1]; ok && !available {
			return nil
		}
		window.start, window.end = wp.Start, wp.End
	}

	start, err := models.ParseClock(window.start)
	if err != nil {
		return nil
	}
	end, err := models.ParseClock(window.end)
	if err != nil {
		return nil
	}
	if start >= end {
		return nil
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var slots []models.TimeSlot
	for m := start; m < end; m += models.SlotStepMinutes {
		at := midnight.Add(time.Duration(m) * time.Minute)
		if !at.After(now) {
			continue
		}
		slots = append(slots, models.TimeSlot{Date: dateStr, Start: m})
	}
	return slots
}
