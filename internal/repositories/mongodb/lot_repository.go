package mongodb

import (
	"context"
	"fmt"
	"time"

	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/services"
	"terangaride/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type lotRepository struct {
	collection *mongo.Collection
}

func NewLotRepository(db *mongo.Database) interfaces.LotRepository {
	return &lotRepository{
		collection: db.Collection("lots_reconciliation"),
	}
}

func (r *lotRepository) Create(ctx context.Context, lot *models.LotReconciliation) error {
	lot.ID = primitive.NewObjectID()
	lot.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lot)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("lot %s deja enregistre: %w", lot.NumeroLot, services.ErrDuplicateTransaction)
		}
		return fmt.Errorf("failed to create reconciliation lot: %w", err)
	}
	return nil
}

func (r *lotRepository) GetByNumero(ctx context.Context, numeroLot string) (*models.LotReconciliation, error) {
	var lot models.LotReconciliation
	err := r.collection.FindOne(ctx, bson.M{"numeroLot": numeroLot}).Decode(&lot)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("lot %s: %w", numeroLot, services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reconciliation lot: %w", err)
	}
	return &lot, nil
}

func (r *lotRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.LotReconciliation, int64, error) {
	filter := bson.M{}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reconciliation lots: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reconciliation lots: %w", err)
	}
	defer cursor.Close(ctx)

	var lots []*models.LotReconciliation
	if err := cursor.All(ctx, &lots); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reconciliation lots: %w", err)
	}

	return lots, total, nil
}
