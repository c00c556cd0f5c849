package interfaces

import (
	"context"

	"terangaride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReservationRepository is a read-only view over the trip collection owned by
// the booking side of the platform. Settlement never writes reservations.
type ReservationRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error)
}
