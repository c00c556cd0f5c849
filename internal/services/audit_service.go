package services

import (
	"context"
	"time"

	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditService exposes the read side of the audit trail to the admin API.
type AuditService interface {
	GetResourceHistory(ctx context.Context, resource, resourceID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
	GetByActeurID(ctx context.Context, acteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
	GetByDateRange(ctx context.Context, startDate, endDate time.Time, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
}

type auditService struct {
	auditRepo interfaces.AuditLogRepository
}

func NewAuditService(auditRepo interfaces.AuditLogRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) GetResourceHistory(ctx context.Context, resource, resourceID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	return s.auditRepo.GetResourceHistory(ctx, resource, resourceID, params)
}

func (s *auditService) GetByActeurID(ctx context.Context, acteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	return s.auditRepo.GetByActeurID(ctx, acteurID, params)
}

func (s *auditService) GetByDateRange(ctx context.Context, startDate, endDate time.Time, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	return s.auditRepo.GetByDateRange(ctx, startDate, endDate, params)
}
