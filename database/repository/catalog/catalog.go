package catalogRepo

import (
	"agendify/database"
	"agendify/models"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CatalogRepository reads the studio catalog: professors with their
// specialties and prices, plus products and class packages.
type CatalogRepository interface {
	GetProfessorByName(ctx context.Context, name string) (*models.Professor, error)
	ListProfessors(ctx context.Context) ([]models.Professor, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListPackages(ctx context.Context) ([]models.Package, error)
}

type mongoCatalogRepo struct {
	professors *mongo.Collection
	products   *mongo.Collection
	packages   *mongo.Collection
}

// NewMongoCatalogRepo returns a CatalogRepository backed by MongoDB.
func NewMongoCatalogRepo() CatalogRepository {
	db := database.MongoClient.Database("agendify")
	return &mongoCatalogRepo{
		professors: db.Collection("professors"),
		products:   db.Collection("products"),
		packages:   db.Collection("packages"),
	}
}

// GetProfessorByName returns nil without error when the professor is unknown.
func (r *mongoCatalogRepo) GetProfessorByName(ctx context.Context, name string) (*models.Professor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var prof models.Professor
	err := r.professors.FindOne(ctx, bson.M{"name": name}).Decode(&prof)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch professor %q: %w", name, err)
	}
	return &prof, nil
}

func (r *mongoCatalogRepo) ListProfessors(ctx context.Context) ([]models.Professor, error) {
	var out []models.Professor
	return out, listAll(ctx, r.professors, &out)
}

func (r *mongoCatalogRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	return out, listAll(ctx, r.products, &out)
}

func (r *mongoCatalogRepo) ListPackages(ctx context.Context) ([]models.Package, error) {
	var out []models.Package
	return out, listAll(ctx, r.packages, &out)
}

func listAll(ctx context.Context, coll *mongo.Collection, out any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return nil
}
