package agendaRepo

import (
	"agendify/database"
	"agendify/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AgendaRepository persists confirmed lesson bookings.
type AgendaRepository interface {
	Create(ctx context.Context, entry models.AgendaEntry) (string, error)
	GetByProfessor(ctx context.Context, professor string) ([]models.AgendaEntry, error)
	GetByProfessorAndDate(ctx context.Context, professor, date string) ([]models.AgendaEntry, error)
}

type mongoAgendaRepo struct {
	coll *mongo.Collection
}

// NewMongoAgendaRepo returns an AgendaRepository backed by MongoDB.
func NewMongoAgendaRepo() AgendaRepository {
	db := database.MongoClient.Database("agendify")
	return &mongoAgendaRepo{
		coll: db.Collection("agenda"),
	}
}

// Create inserts a booking and returns its ID.
func (r *mongoAgendaRepo) Create(ctx context.Context, entry models.AgendaEntry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to insert agenda entry: %w", err)
	}
	return entry.ID, nil
}

// GetByProfessor lists a professor's bookings, newest date first.
func (r *mongoAgendaRepo) GetByProfessor(ctx context.Context, professor string) ([]models.AgendaEntry, error) {
	return r.find(ctx, bson.M{"professor": professor})
}

// GetByProfessorAndDate lists a professor's bookings for one date.
func (r *mongoAgendaRepo) GetByProfessorAndDate(ctx context.Context, professor, date string) ([]models.AgendaEntry, error) {
	return r.find(ctx, bson.M{"professor": professor, "date": date})
}

func (r *mongoAgendaRepo) find(ctx context.Context, filter bson.M) ([]models.AgendaEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "hour", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query agenda: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.AgendaEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode agenda entries: %w", err)
	}
	return entries, nil
}
