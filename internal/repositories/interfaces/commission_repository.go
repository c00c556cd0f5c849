package interfaces

import (
	"context"
	"time"

	"terangaride/internal/models"
	"terangaride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionRepository interface {
	// Create inserts a new entry. The (reservationId, paymentId) pair is
	// unique; a duplicate insert returns services.ErrDuplicateTransaction.
	Create(ctx context.Context, entry *models.CommissionEntry) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionEntry, error)
	GetByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*models.CommissionEntry, error)
	ReplaceDocument(ctx context.Context, entry *models.CommissionEntry) error

	// Listing
	GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error)
	GetByStatus(ctx context.Context, status models.CommissionStatus, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.CommissionEntry, error)

	// Remediation queue: failed entries not yet reconciled.
	GetEchecs(ctx context.Context, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error)

	// Reconciliation. AssignerLot stamps numeroLot on every collected,
	// unreconciled entry in the window and reports how many it claimed.
	AssignerLot(ctx context.Context, numeroLot string, dateDebut, dateFin time.Time) (int64, float64, error)
	GetByLot(ctx context.Context, numeroLot string) ([]*models.CommissionEntry, error)

	// Reporting
	GetStats(ctx context.Context, startDate, endDate time.Time) (*models.CommissionStats, error)
}
