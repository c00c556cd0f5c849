package interfaces

import (
	"context"
	"time"

	"terangaride/internal/models"
	"terangaride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditLogRepository interface {
	// Basic operations
	Create(ctx context.Context, auditLog *models.AuditLog) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.AuditLog, error)

	// Resource tracking
	GetResourceHistory(ctx context.Context, resource, resourceID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
	GetByActeurID(ctx context.Context, acteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
	GetByAction(ctx context.Context, action models.AuditAction, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)

	// Time-based queries
	GetByDateRange(ctx context.Context, startDate, endDate time.Time, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
}
