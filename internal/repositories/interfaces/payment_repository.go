package interfaces

import (
	"context"
	"time"

	"terangaride/internal/models"
	"terangaride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	ReplaceDocument(ctx context.Context, payment *models.Payment) error

	// Lookup operations
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	GetByTransactionMobileID(ctx context.Context, transactionID string) (*models.Payment, error)
	GetByReservationID(ctx context.Context, reservationID primitive.ObjectID) ([]*models.Payment, error)

	// Guarded status change. The filter carries the expected current status
	// so concurrent writers cannot race the state machine.
	UpdateStatusGuarded(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus, updates map[string]interface{}) (bool, error)

	// Listing
	GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error)
	GetByPayeurID(ctx context.Context, payeurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error)
	GetByStatus(ctx context.Context, status models.PaymentStatus, params *utils.PaginationParams) ([]*models.Payment, int64, error)

	// Reporting
	GetStats(ctx context.Context, startDate, endDate time.Time) (*models.PaymentStats, error)
}
