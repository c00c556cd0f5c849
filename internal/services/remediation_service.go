package services

import (
	"context"
	"fmt"

	"terangaride/internal/config"
	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/utils"
	"terangaride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RemediationAction string

const (
	RemediationRetry  RemediationAction = "retry"
	RemediationWaive  RemediationAction = "waive"
	RemediationManual RemediationAction = "manual"
)

type RemediationRequest struct {
	PaymentIDs []primitive.ObjectID `json:"paiement_ids" validate:"required,min=1,dive,required"`
	Action     RemediationAction    `json:"action" validate:"required,oneof=retry waive manual"`
	Raison     string               `json:"raison"`
	ActeurID   primitive.ObjectID   `json:"-"`
}

// RemediationOutcome reports one payment's remediation result.
type RemediationOutcome struct {
	PaymentID primitive.ObjectID `json:"paiement_id"`
	Statut    string             `json:"statut"`
	Erreur    string             `json:"erreur,omitempty"`
}

type RemediationService interface {
	// Traiter applies one remediation action to the failed commission
	// entries of the given payments. Failures are reported per payment,
	// never aborting the batch.
	Traiter(ctx context.Context, request *RemediationRequest) ([]RemediationOutcome, error)

	// GetFileEchecs lists the failed entries awaiting an admin decision.
	GetFileEchecs(ctx context.Context, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error)
}

type remediationService struct {
	commissionRepo    interfaces.CommissionRepository
	paymentRepo       interfaces.PaymentRepository
	auditLogRepo      interfaces.AuditLogRepository
	commissionService CommissionService
	config            *config.CommissionConfig
	logger            *logger.Logger
}

func NewRemediationService(
	commissionRepo interfaces.CommissionRepository,
	paymentRepo interfaces.PaymentRepository,
	auditLogRepo interfaces.AuditLogRepository,
	commissionService CommissionService,
	cfg *config.CommissionConfig,
	logger *logger.Logger,
) RemediationService {
	return &remediationService{
		commissionRepo:    commissionRepo,
		paymentRepo:       paymentRepo,
		auditLogRepo:      auditLogRepo,
		commissionService: commissionService,
		config:            cfg,
		logger:            logger,
	}
}

func (s *remediationService) Traiter(ctx context.Context, request *RemediationRequest) ([]RemediationOutcome, error) {
	outcomes := make([]RemediationOutcome, 0, len(request.PaymentIDs))

	for _, paymentID := range request.PaymentIDs {
		outcome := RemediationOutcome{PaymentID: paymentID, Statut: utils.StatusSuccess}

		if err := s.traiterUn(ctx, paymentID, request); err != nil {
			outcome.Statut = utils.StatusFailed
			outcome.Erreur = err.Error()
			s.logger.WithError(err).WithPaymentID(paymentID).Warnf("remediation %s failed", request.Action)
		}

		outcomes = append(outcomes, outcome)
	}

	s.logger.LogAdminAction(request.ActeurID, fmt.Sprintf("remediation_%s", request.Action), map[string]interface{}{
		"paiements": len(request.PaymentIDs),
		"raison":    request.Raison,
	})

	return outcomes, nil
}

func (s *remediationService) traiterUn(ctx context.Context, paymentID primitive.ObjectID, request *RemediationRequest) error {
	entry, err := s.commissionRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return err
	}

	if entry.EstTerminal() {
		return fmt.Errorf("entree %s terminale: %w", entry.ID.Hex(), ErrReconciliationConflict)
	}

	switch request.Action {
	case RemediationRetry:
		err = s.retenter(ctx, entry, paymentID)
	case RemediationWaive:
		err = s.exonerer(ctx, entry, request.Raison)
	case RemediationManual:
		err = s.marquerManuel(ctx, entry, request)
	default:
		return fmt.Errorf("action %s inconnue: %w", request.Action, ErrValidation)
	}
	if err != nil {
		return err
	}

	return s.audit(ctx, entry, request)
}

func (s *remediationService) retenter(ctx context.Context, entry *models.CommissionEntry, paymentID primitive.ObjectID) error {
	if entry.Statut != models.CommissionStatusEchec {
		return fmt.Errorf("entree %s non en echec (statut=%s): %w", entry.ID.Hex(), entry.Statut, ErrTransitionInvalide)
	}
	if entry.TentativesEpuisees(s.config.MaxTentativesPrelevement) {
		return fmt.Errorf("entree %s a %d tentatives: %w", entry.ID.Hex(), entry.DetailsPrelevement.TentativesPrelevement, ErrTentativesEpuisees)
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}

	return s.commissionService.Prelever(ctx, entry, payment)
}

func (s *remediationService) exonerer(ctx context.Context, entry *models.CommissionEntry, raison string) error {
	if err := entry.Exonerer(raison); err != nil {
		return fmt.Errorf("%w: %s", ErrTransitionInvalide, err.Error())
	}
	return s.commissionRepo.ReplaceDocument(ctx, entry)
}

// marquerManuel records an out-of-band collection confirmed by an admin.
func (s *remediationService) marquerManuel(ctx context.Context, entry *models.CommissionEntry, request *RemediationRequest) error {
	reference := fmt.Sprintf("MANUEL-%s", request.ActeurID.Hex())
	if err := entry.MarquerCommePrelevee(entry.DetailsPrelevement, reference); err != nil {
		return fmt.Errorf("%w: %s", ErrTransitionInvalide, err.Error())
	}
	return s.commissionRepo.ReplaceDocument(ctx, entry)
}

func (s *remediationService) audit(ctx context.Context, entry *models.CommissionEntry, request *RemediationRequest) error {
	auditLog := &models.AuditLog{
		ActeurID:   request.ActeurID,
		Action:     models.AuditAction(request.Action),
		Resource:   "commission_entry",
		ResourceID: entry.ID.Hex(),
		Raison:     request.Raison,
		Metadata: map[string]interface{}{
			"payment_id": entry.PaymentID.Hex(),
			"montant":    entry.MontantCommission,
			"statut":     string(entry.Statut),
		},
	}

	if err := s.auditLogRepo.Create(ctx, auditLog); err != nil {
		s.logger.WithError(err).Error("failed to write remediation audit log")
	}
	return nil
}

func (s *remediationService) GetFileEchecs(ctx context.Context, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	return s.commissionRepo.GetEchecs(ctx, params)
}
