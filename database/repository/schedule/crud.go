package scheduleRepo

import (
	"agendify/models"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// entryDoc is the flat persisted shape of one config entry. Documents
// without a type are legacy weekly patterns written before the layered
// configuration existed.
type entryDoc struct {
	Type       string `bson:"type,omitempty"`
	Day        string `bson:"day,omitempty"`
	Active     *bool  `bson:"active,omitempty"`
	Start      string `bson:"start,omitempty"`
	End        string `bson:"end,omitempty"`
	MonthIndex *int   `bson:"monthIndex,omitempty"`
	Available  *bool  `bson:"available,omitempty"`
	Date       string `bson:"date,omitempty"`
}

type configDoc struct {
	Professor string     `bson:"professor"`
	Config    []entryDoc `bson:"config"`
	UpdatedAt time.Time  `bson:"updatedAt"`
}

// GetByProfessor returns the professor's entry list, or nil when no
// configuration has been saved yet.
func (r *mongoScheduleRepo) GetByProfessor(ctx context.Context, professor string) ([]models.ScheduleConfigEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc configDoc
	err := r.coll.FindOne(ctx, bson.M{"professor": professor}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule config for %q: %w", professor, err)
	}

	entries := make([]models.ScheduleConfigEntry, 0, len(doc.Config))
	for i, d := range doc.Config {
		entry, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("schedule config for %q, entry %d: %w", professor, i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Save upserts the professor's whole configuration in one write.
func (r *mongoScheduleRepo) Save(ctx context.Context, professor string, entries []models.ScheduleConfigEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	docs := make([]entryDoc, 0, len(entries))
	for _, e := range entries {
		d, err := fromModel(e)
		if err != nil {
			return err
		}
		docs = append(docs, d)
	}

	update := bson.M{"$set": configDoc{Professor: professor, Config: docs, UpdatedAt: time.Now()}}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, bson.M{"professor": professor}, update, opts); err != nil {
		return fmt.Errorf("failed to save schedule config for %q: %w", professor, err)
	}
	return nil
}

func (d entryDoc) toModel() (models.ScheduleConfigEntry, error) {
	active := d.Active != nil && *d.Active

	typ := models.ScheduleEntryType(d.Type)
	if d.Type == "" {
		typ = models.EntryWeeklyPattern
	}

	switch typ {
	case models.EntryWeeklyPattern:
		if d.Day == "" {
			return models.ScheduleConfigEntry{}, errors.New("weekly pattern entry missing day")
		}
		return models.ScheduleConfigEntry{
			Type:   models.EntryWeeklyPattern,
			Weekly: &models.WeeklyPattern{Day: d.Day, Active: active, Start: d.Start, End: d.End},
		}, nil
	case models.EntryMonthlyAvailability:
		if d.MonthIndex == nil {
			return models.ScheduleConfigEntry{}, errors.New("monthly availability entry missing monthIndex")
		}
		available := d.Available == nil || *d.Available
		return models.ScheduleConfigEntry{
			Type:    models.EntryMonthlyAvailability,
			Monthly: &models.MonthlyAvailability{MonthIndex: *d.MonthIndex, Available: available},
		}, nil
	case models.EntrySpecificDate:
		if d.Date == "" {
			return models.ScheduleConfigEntry{}, errors.New("specific-date entry missing date")
		}
		return models.ScheduleConfigEntry{
			Type:     models.EntrySpecificDate,
			Specific: &models.SpecificDate{Date: d.Date, Active: active, Start: d.Start, End: d.End},
		}, nil
	default:
		return models.ScheduleConfigEntry{}, fmt.Errorf("unknown schedule entry type %q", d.Type)
	}
}

func fromModel(e models.ScheduleConfigEntry) (entryDoc, error) {
	switch e.Type {
	case models.EntryWeeklyPattern:
		if e.Weekly == nil {
			return entryDoc{}, errors.New("weekly entry without payload")
		}
		active := e.Weekly.Active
		return entryDoc{
			Type:   string(e.Type),
			Day:    e.Weekly.Day,
			Active: &active,
			Start:  e.Weekly.Start,
			End:    e.Weekly.End,
		}, nil
	case models.EntryMonthlyAvailability:
		if e.Monthly == nil {
			return entryDoc{}, errors.New("monthly entry without payload")
		}
		available := e.Monthly.Available
		idx := e.Monthly.MonthIndex
		return entryDoc{
			Type:       string(e.Type),
			MonthIndex: &idx,
			Available:  &available,
		}, nil
	case models.EntrySpecificDate:
		if e.Specific == nil {
			return entryDoc{}, errors.New("specific-date entry without payload")
		}
		active := e.Specific.Active
		return entryDoc{
			Type:   string(e.Type),
			Date:   e.Specific.Date,
			Active: &active,
			Start:  e.Specific.Start,
			End:    e.Specific.End,
		}, nil
	default:
		return entryDoc{}, fmt.Errorf("unknown schedule entry type %q", e.Type)
	}
}
