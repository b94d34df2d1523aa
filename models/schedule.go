package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScheduleEntryType discriminates the three configuration layers of a
// professor's agenda.
type ScheduleEntryType string

const (
	EntryWeeklyPattern       ScheduleEntryType = "WEEKLY_PATTERN"
	EntryMonthlyAvailability ScheduleEntryType = "MONTHLY_AVAILABILITY"
	EntrySpecificDate        ScheduleEntryType = "SPECIFIC_DATE"
)

// Weekday names as persisted and exchanged on the wire. The admin panel and
// the booking flow both speak Portuguese day names.
var WeekdayNames = map[time.Weekday]string{
	time.Sunday:    "Domingo",
	time.Monday:    "Segunda-feira",
	time.Tuesday:   "Terça-feira",
	time.Wednesday: "Quarta-feira",
	time.Thursday:  "Quinta-feira",
	time.Friday:    "Sexta-feira",
	time.Saturday:  "Sábado",
}

// WeekdayName returns the wire name for a calendar date's weekday.
func WeekdayName(date time.Time) string {
	return WeekdayNames[date.Weekday()]
}

// WeeklyPattern is the recurring default window for one weekday.
type WeeklyPattern struct {
	Day    string `json:"day" bson:"day"`
	Active bool   `json:"active" bson:"active"`
	Start  string `json:"start" bson:"start"` // HH:MM
	End    string `json:"end" bson:"end"`     // HH:MM
}

// MonthlyAvailability switches a whole month on or off. An absent month index
// means available.
type MonthlyAvailability struct {
	MonthIndex int  `json:"monthIndex" bson:"monthIndex"` // 0-11
	Available  bool `json:"available" bson:"available"`
}

// SpecificDate fully overrides the weekly and monthly layers for one date.
type SpecificDate struct {
	Date   string `json:"date" bson:"date"` // YYYY-MM-DD
	Active bool   `json:"active" bson:"active"`
	Start  string `json:"start" bson:"start"`
	End    string `json:"end" bson:"end"`
}

// ScheduleConfigEntry is the tagged union over the three layers. Exactly one
// of the payload pointers is non-nil, matching Type.
type ScheduleConfigEntry struct {
	Type     ScheduleEntryType
	Weekly   *WeeklyPattern
	Monthly  *MonthlyAvailability
	Specific *SpecificDate
}

// scheduleEntryWire is the flat shape used on the wire: the discriminator plus
// the superset of layer fields.
type scheduleEntryWire struct {
	Type       *ScheduleEntryType `json:"type,omitempty"`
	Day        string             `json:"day,omitempty"`
	Active     *bool              `json:"active,omitempty"`
	Start      string             `json:"start,omitempty"`
	End        string             `json:"end,omitempty"`
	MonthIndex *int               `json:"monthIndex,omitempty"`
	Available  *bool              `json:"available,omitempty"`
	Date       string             `json:"date,omitempty"`
}

// MarshalJSON emits the tagged flat object the admin panel produces.
func (e ScheduleConfigEntry) MarshalJSON() ([]byte, error) {
	w := scheduleEntryWire{Type: &e.Type}
	switch e.Type {
	case EntryWeeklyPattern:
		if e.Weekly == nil {
			return nil, fmt.Errorf("weekly entry without payload")
		}
		w.Day = e.Weekly.Day
		w.Active = &e.Weekly.Active
		w.Start = e.Weekly.Start
		w.End = e.Weekly.End
	case EntryMonthlyAvailability:
		if e.Monthly == nil {
			return nil, fmt.Errorf("monthly entry without payload")
		}
		w.MonthIndex = &e.Monthly.MonthIndex
		w.Available = &e.Monthly.Available
	case EntrySpecificDate:
		if e.Specific == nil {
			return nil, fmt.Errorf("specific-date entry without payload")
		}
		w.Date = e.Specific.Date
		w.Active = &e.Specific.Active
		w.Start = e.Specific.Start
		w.End = e.Specific.End
	default:
		return nil, fmt.Errorf("unknown schedule entry type %q", e.Type)
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts both the tagged format and the legacy untagged one.
// Legacy entries carry no "type" field and are plain weekly-pattern objects.
func (e *ScheduleConfigEntry) UnmarshalJSON(data []byte) error {
	var w scheduleEntryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	typ := EntryWeeklyPattern
	if w.Type != nil {
		typ = *w.Type
	}

	active := false
	if w.Active != nil {
		active = *w.Active
	}

	switch typ {
	case EntryWeeklyPattern:
		if w.Day == "" {
			return fmt.Errorf("weekly pattern entry missing day")
		}
		*e = ScheduleConfigEntry{
			Type:   EntryWeeklyPattern,
			Weekly: &WeeklyPattern{Day: w.Day, Active: active, Start: w.Start, End: w.End},
		}
	case EntryMonthlyAvailability:
		if w.MonthIndex == nil {
			return fmt.Errorf("monthly availability entry missing monthIndex")
		}
		available := true
		if w.Available != nil {
			available = *w.Available
		}
		*e = ScheduleConfigEntry{
			Type:    EntryMonthlyAvailability,
			Monthly: &MonthlyAvailability{MonthIndex: *w.MonthIndex, Available: available},
		}
	case EntrySpecificDate:
		if w.Date == "" {
			return fmt.Errorf("specific-date entry missing date")
		}
		*e = ScheduleConfigEntry{
			Type:     EntrySpecificDate,
			Specific: &SpecificDate{Date: w.Date, Active: active, Start: w.Start, End: w.End},
		}
	default:
		return fmt.Errorf("unknown schedule entry type %q", typ)
	}
	return nil
}

// ScheduleConfig is the resolved, layered view of a professor's entry list,
// indexed for lookup by the availability resolver.
type ScheduleConfig struct {
	Weekly   map[string]WeeklyPattern // by weekday name
	Monthly  map[int]bool             // by month index 0-11; absent means available
	Specific map[string]SpecificDate  // by YYYY-MM-DD
}

// BuildScheduleConfig indexes an entry list into the layered view. Later
// entries win over earlier duplicates, matching how the admin panel rewrites
// the whole config on save.
func BuildScheduleConfig(entries []ScheduleConfigEntry) ScheduleConfig {
	cfg := ScheduleConfig{
		Weekly:   make(map[string]WeeklyPattern),
		Monthly:  make(map[int]bool),
		Specific: make(map[string]SpecificDate),
	}
	for _, e := range entries {
		switch e.Type {
		case EntryWeeklyPattern:
			if e.Weekly != nil {
				cfg.Weekly[e.Weekly.Day] = *e.Weekly
			}
		case EntryMonthlyAvailability:
			if e.Monthly != nil {
				cfg.Monthly[e.Monthly.MonthIndex] = e.Monthly.Available
			}
		case EntrySpecificDate:
			if e.Specific != nil {
				cfg.Specific[e.Specific.Date] = *e.Specific
			}
		}
	}
	return cfg
}

// ValidateScheduleEntries checks the invariants the admin panel enforces
// client-side: active windows must have start strictly before end and sit on
// half-hour boundaries, month indexes must be in range, dates and times must
// parse.
func ValidateScheduleEntries(entries []ScheduleConfigEntry) error {
	for _, e := range entries {
		switch e.Type {
		case EntryWeeklyPattern:
			if !e.Weekly.Active {
				continue
			}
			if err := validateWindow(e.Weekly.Start, e.Weekly.End); err != nil {
				return fmt.Errorf("weekly pattern for %s: %w", e.Weekly.Day, err)
			}
		case EntryMonthlyAvailability:
			if e.Monthly.MonthIndex < 0 || e.Monthly.MonthIndex > 11 {
				return fmt.Errorf("month index %d out of range", e.Monthly.MonthIndex)
			}
		case EntrySpecificDate:
			if _, err := time.Parse("2006-01-02", e.Specific.Date); err != nil {
				return fmt.Errorf("specific date %q: %w", e.Specific.Date, err)
			}
			if !e.Specific.Active {
				continue
			}
			if err := validateWindow(e.Specific.Start, e.Specific.End); err != nil {
				return fmt.Errorf("specific date %s: %w", e.Specific.Date, err)
			}
		}
	}
	return nil
}

func validateWindow(start, end string) error {
	s, err := ParseClock(start)
	if err != nil {
		return err
	}
	t, err := ParseClock(end)
	if err != nil {
		return err
	}
	if s >= t {
		return fmt.Errorf("start %s must be before end %s", start, end)
	}
	if s%SlotStepMinutes != 0 || t%SlotStepMinutes != 0 {
		return fmt.Errorf("window %s-%s must align to %d-minute boundaries", start, end, SlotStepMinutes)
	}
	return nil
}
