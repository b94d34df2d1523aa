package paymentRepo

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

// PaymentRepository persists settled charges. ExistsByBuyerName backs the
// per-buyer settlement lookup the booking flow polls against.
type PaymentRepository interface {
	Create(ctx context.Context, record models.PaymentRecord) (string, error)
	ExistsByBuyerName(ctx context.Context, name string) (bool, error)
	ExistsByChargeID(ctx context.Context, chargeID string) (bool, error)
	List(ctx context.Context) ([]models.PaymentRecord, error)
}

type mongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo returns a PaymentRepository backed by MongoDB.
func NewMongoPaymentRepo() PaymentRepository {
	db := database.MongoClient.Database("agendify")
	return &mongoPaymentRepo{
		coll: db.Collection("payments"),
	}
}

// Create inserts a settled charge and returns its ID.
func (r *mongoPaymentRepo) Create(ctx context.Context, record models.PaymentRecord) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	record.CreatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return "", fmt.Errorf("failed to insert payment record: %w", err)
	}
	return record.ID, nil
}

// ExistsByBuyerName reports whether any settled charge carries this buyer name.
func (r *mongoPaymentRepo) ExistsByBuyerName(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, bson.M{"name": name})
}

// ExistsByChargeID reports whether a gateway charge was already recorded.
// Keeps the reconcile worker from double-recording a settlement.
func (r *mongoPaymentRepo) ExistsByChargeID(ctx context.Context, chargeID string) (bool, error) {
	return r.exists(ctx, bson.M{"chargeId": chargeID})
}

func (r *mongoPaymentRepo) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to query payments: %w", err)
	}
	return count > 0, nil
}

// List returns all settled charges, newest first.
func (r *mongoPaymentRepo) List(ctx context.Context) ([]models.PaymentRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode payment records: %w", err)
	}
	return records, nil
}
