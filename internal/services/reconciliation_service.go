package services

import (
	"context"
	"fmt"
	"time"

	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/utils"
	"terangaride/pkg/export"
	"terangaride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GenererLotRequest struct {
	DateDebut time.Time          `json:"date_debut" validate:"required"`
	DateFin   time.Time          `json:"date_fin" validate:"required,gtfield=DateDebut"`
	ActeurID  primitive.ObjectID `json:"-"`
}

type ReconciliationService interface {
	// GenererLot claims every collected, unreconciled commission in the
	// window into a new lot. An empty window produces no lot.
	GenererLot(ctx context.Context, request *GenererLotRequest) (*models.LotReconciliation, error)

	GetLot(ctx context.Context, numeroLot string) (*models.LotReconciliation, []*models.CommissionEntry, error)
	ListLots(ctx context.Context, params *utils.PaginationParams) ([]*models.LotReconciliation, int64, error)

	// Accounting exports
	ExporterLotCSV(ctx context.Context, numeroLot string) ([]byte, error)
	ExporterLotPDF(ctx context.Context, numeroLot string) ([]byte, error)
}

type reconciliationService struct {
	commissionRepo interfaces.CommissionRepository
	lotRepo        interfaces.LotRepository
	auditLogRepo   interfaces.AuditLogRepository
	logger         *logger.Logger
}

func NewReconciliationService(
	commissionRepo interfaces.CommissionRepository,
	lotRepo interfaces.LotRepository,
	auditLogRepo interfaces.AuditLogRepository,
	logger *logger.Logger,
) ReconciliationService {
	return &reconciliationService{
		commissionRepo: commissionRepo,
		lotRepo:        lotRepo,
		auditLogRepo:   auditLogRepo,
		logger:         logger,
	}
}

func (s *reconciliationService) GenererLot(ctx context.Context, request *GenererLotRequest) (*models.LotReconciliation, error) {
	if !request.DateFin.After(request.DateDebut) {
		return nil, fmt.Errorf("periode invalide [%s, %s]: %w",
			request.DateDebut.Format(time.RFC3339), request.DateFin.Format(time.RFC3339), ErrValidation)
	}

	numeroLot := utils.GenerateLotNumber()

	// The claim is filter-idempotent: entries already carrying a lot are
	// invisible to it, so overlapping windows never double-count.
	nombre, montant, err := s.commissionRepo.AssignerLot(ctx, numeroLot, request.DateDebut, request.DateFin)
	if err != nil {
		return nil, err
	}
	if nombre == 0 {
		return nil, fmt.Errorf("aucune commission a reconcilier sur la periode: %w", ErrNotFound)
	}

	lot := &models.LotReconciliation{
		NumeroLot:     numeroLot,
		DateDebut:     request.DateDebut,
		DateFin:       request.DateFin,
		NombreEntrees: nombre,
		MontantTotal:  montant,
		GenereParID:   request.ActeurID,
	}

	if err := s.lotRepo.Create(ctx, lot); err != nil {
		return nil, err
	}

	auditLog := &models.AuditLog{
		ActeurID:   request.ActeurID,
		Action:     models.AuditActionReconciliation,
		Resource:   "lot_reconciliation",
		ResourceID: numeroLot,
		Metadata: map[string]interface{}{
			"nombre_entrees": nombre,
			"montant_total":  montant,
		},
	}
	if err := s.auditLogRepo.Create(ctx, auditLog); err != nil {
		s.logger.WithError(err).Error("failed to write reconciliation audit log")
	}

	s.logger.WithFields(map[string]interface{}{
		"numero_lot":     numeroLot,
		"nombre_entrees": nombre,
		"montant_total":  montant,
	}).Info("reconciliation lot generated")

	return lot, nil
}

func (s *reconciliationService) GetLot(ctx context.Context, numeroLot string) (*models.LotReconciliation, []*models.CommissionEntry, error) {
	lot, err := s.lotRepo.GetByNumero(ctx, numeroLot)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.commissionRepo.GetByLot(ctx, numeroLot)
	if err != nil {
		return nil, nil, err
	}

	return lot, entries, nil
}

func (s *reconciliationService) ListLots(ctx context.Context, params *utils.PaginationParams) ([]*models.LotReconciliation, int64, error) {
	return s.lotRepo.List(ctx, params)
}

func (s *reconciliationService) ExporterLotCSV(ctx context.Context, numeroLot string) ([]byte, error) {
	lot, entries, err := s.GetLot(ctx, numeroLot)
	if err != nil {
		return nil, err
	}
	return export.BuildLotCSV(lot, toValues(entries))
}

func (s *reconciliationService) ExporterLotPDF(ctx context.Context, numeroLot string) ([]byte, error) {
	lot, entries, err := s.GetLot(ctx, numeroLot)
	if err != nil {
		return nil, err
	}
	return export.BuildLotPDF(lot, toValues(entries))
}

func toValues(entries []*models.CommissionEntry) []models.CommissionEntry {
	values := make([]models.CommissionEntry, 0, len(entries))
	for _, entry := range entries {
		values = append(values, *entry)
	}
	return values
}
