package mongodb

import (
	"context"
	"fmt"

	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type reservationRepository struct {
	collection *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) interfaces.ReservationRepository {
	return &reservationRepository{
		collection: db.Collection("reservations"),
	}
}

func (r *reservationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("reservation %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &reservation, nil
}
