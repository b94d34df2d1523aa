package models

import "time"

// AgendaEntry is a confirmed lesson booking: one client name against one slot
// of one professor's agenda. No conflict detection happens here; the agenda
// simply records what was paid for.
type AgendaEntry struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Professor string    `json:"professor" bson:"professor"`
	Date      string    `json:"date" bson:"date"` // YYYY-MM-DD
	Hour      string    `json:"hour" bson:"hour"` // HH:MM
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
