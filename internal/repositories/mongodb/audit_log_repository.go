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

type auditLogRepository struct {
	collection *mongo.Collection
}

func NewAuditLogRepository(db *mongo.Database) interfaces.AuditLogRepository {
	return &auditLogRepository{
		collection: db.Collection("audit_logs"),
	}
}

func (r *auditLogRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	auditLog.ID = primitive.NewObjectID()
	auditLog.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, auditLog)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditLogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AuditLog, error) {
	var auditLog models.AuditLog
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&auditLog)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("audit log %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}
	return &auditLog, nil
}

func (r *auditLogRepository) GetResourceHistory(ctx context.Context, resource, resourceID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	return r.list(ctx, bson.M{"resource": resource, "resourceId": resourceID}, params)
}

func (r *auditLogRepository) GetByActeurID(ctx context.Context, acteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	return r.list(ctx, bson.M{"acteurId": acteurID}, params)
}

func (r *auditLogRepository) GetByAction(ctx context.Context, action models.AuditAction, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	return r.list(ctx, bson.M{"action": action}, params)
}

func (r *auditLogRepository) GetByDateRange(ctx context.Context, startDate, endDate time.Time, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	return r.list(ctx, bson.M{"createdAt": bson.M{"$gte": startDate, "$lt": endDate}}, params)
}

func (r *auditLogRepository) list(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []*models.AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode audit logs: %w", err)
	}

	return logs, total, nil
}
