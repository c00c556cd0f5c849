package interfaces

import (
	"context"

	"terangaride/internal/models"
	"terangaride/internal/utils"
)

type LotRepository interface {
	Create(ctx context.Context, lot *models.LotReconciliation) error
	GetByNumero(ctx context.Context, numeroLot string) (*models.LotReconciliation, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.LotReconciliation, int64, error)
}
