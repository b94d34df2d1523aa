package scheduleRepo

import (
	"agendify/database"
	"agendify/models"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// ScheduleRepository stores one configuration document per professor. Saves
// replace the whole entry list, mirroring how the admin panel submits it.
type ScheduleRepository interface {
	GetByProfessor(ctx context.Context, professor string) ([]models.ScheduleConfigEntry, error)
	Save(ctx context.Context, professor string, entries []models.ScheduleConfigEntry) error
}

type mongoScheduleRepo struct {
	coll *mongo.Collection
}

// NewMongoScheduleRepo returns a ScheduleRepository backed by MongoDB.
func NewMongoScheduleRepo() ScheduleRepository {
	db := database.MongoClient.Database("agendify")
	return &mongoScheduleRepo{
		coll: db.Collection("schedule_configs"),
	}
}
