package models

import (
	"fmt"
	"time"
)

// SlotStepMinutes is the fixed booking granularity: every lesson slot is half
// an hour, starting on a half-hour boundary of its window.
const SlotStepMinutes = 30

// TimeSlot is a bookable half-hour unit on a calendar date. Start is minutes
// from midnight, matching how windows are stepped.
type TimeSlot struct {
	Date  string `json:"date"`  // YYYY-MM-DD
	Start int    `json:"start"` // minutes from midnight
}

// Hour renders the slot's time of day as HH:MM, the wire format used by
// addAgenda and the slot listing.
func (s TimeSlot) Hour() string {
	return FormatClock(s.Start)
}

// At anchors the slot to a concrete instant in the given location.
func (s TimeSlot) At(loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(s.Start) * time.Minute), nil
}

// ParseClock converts an HH:MM string to minutes from midnight.
func ParseClock(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", clock)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes from midnight to HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
