package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditAction string

const (
	AuditActionRetry          AuditAction = "retry"
	AuditActionWaive          AuditAction = "waive"
	AuditActionManual         AuditAction = "manual"
	AuditActionRemboursement  AuditAction = "remboursement"
	AuditActionReconciliation AuditAction = "reconciliation"
)

// AuditLog records every admin-driven remediation action with its actor.
type AuditLog struct {
	ID         primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	ActeurID   primitive.ObjectID     `json:"acteur_id" bson:"acteurId" validate:"required"`
	Action     AuditAction            `json:"action" bson:"action" validate:"required"`
	Resource   string                 `json:"resource" bson:"resource" validate:"required"`
	ResourceID string                 `json:"resource_id" bson:"resourceId"`
	Raison     string                 `json:"raison" bson:"raison"`
	Metadata   map[string]interface{} `json:"metadata" bson:"metadata"`
	CreatedAt  time.Time              `json:"created_at" bson:"createdAt"`
}
