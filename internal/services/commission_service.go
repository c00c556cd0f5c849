package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"terangaride/internal/config"
	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/utils"
	"terangaride/pkg/logger"
	"terangaride/pkg/mobilemoney"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionService interface {
	// CalculerMontants derives the commission and the driver's net share
	// from a fare, rounded to whole FCFA.
	CalculerMontants(montantCourse, taux float64) (commission, net float64)

	// CreerEntree materializes the ledger entry for a completed payment.
	// Calling it twice for the same payment returns the existing entry.
	CreerEntree(ctx context.Context, payment *models.Payment) (*models.CommissionEntry, error)

	// Prelever collects the commission for an entry according to its mode.
	Prelever(ctx context.Context, entry *models.CommissionEntry, payment *models.Payment) error

	// ConfirmerPrelevementMobile settles a mobile-rail entry left pending
	// because the rail gives no atomic split guarantee.
	ConfirmerPrelevementMobile(ctx context.Context, entry *models.CommissionEntry, payment *models.Payment) error

	// Rembourser reverses a collected commission after a payment refund.
	Rembourser(ctx context.Context, paymentID primitive.ObjectID, raison string) (*models.CommissionEntry, error)

	GetByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*models.CommissionEntry, error)
	GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error)
	GetEchecs(ctx context.Context, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error)
	GetStats(ctx context.Context, startDate, endDate time.Time) (*models.CommissionStats, error)
}

type commissionService struct {
	commissionRepo interfaces.CommissionRepository
	driverRepo     interfaces.DriverRepository
	mmRegistry     *mobilemoney.Registry
	config         *config.CommissionConfig
	logger         *logger.Logger
}

func NewCommissionService(
	commissionRepo interfaces.CommissionRepository,
	driverRepo interfaces.DriverRepository,
	mmRegistry *mobilemoney.Registry,
	config *config.CommissionConfig,
	logger *logger.Logger,
) CommissionService {
	return &commissionService{
		commissionRepo: commissionRepo,
		driverRepo:     driverRepo,
		mmRegistry:     mmRegistry,
		config:         config,
		logger:         logger,
	}
}

func (s *commissionService) CalculerMontants(montantCourse, taux float64) (float64, float64) {
	commission := math.Round(montantCourse * taux)
	return commission, montantCourse - commission
}

func (s *commissionService) CreerEntree(ctx context.Context, payment *models.Payment) (*models.CommissionEntry, error) {
	taux := payment.Commission.Taux
	if taux == 0 {
		taux = s.config.TauxCommission
	}

	commission, net := s.CalculerMontants(payment.MontantTotal, taux)

	entry := &models.CommissionEntry{
		ReservationID:        payment.ReservationID,
		PaymentID:            payment.ID,
		ConducteurID:         payment.ConducteurID,
		MontantCourse:        payment.MontantTotal,
		TauxCommission:       taux,
		MontantCommission:    commission,
		MontantNetConducteur: net,
		Statut:               models.CommissionStatusCalculee,
		ModePrelevement:      payment.MethodePaiement.CollectionMode(),
	}

	if err := entry.ValidateInvariants(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	if err := s.commissionRepo.Create(ctx, entry); err != nil {
		// The unique (reservationId, paymentId) pair makes creation
		// idempotent: a replayed completion gets the existing entry.
		if errors.Is(err, ErrDuplicateTransaction) {
			return s.commissionRepo.GetByPaymentID(ctx, payment.ID)
		}
		return nil, err
	}

	s.logger.LogCommissionEvent(entry.ID, "entree creee", entry.MontantCommission, string(entry.Statut))
	return entry, nil
}

func (s *commissionService) Prelever(ctx context.Context, entry *models.CommissionEntry, payment *models.Payment) error {
	if entry.EstTerminal() {
		return fmt.Errorf("entree %s: %w", entry.ID.Hex(), ErrReconciliationConflict)
	}
	if entry.Statut == models.CommissionStatusPrelevee {
		return nil
	}

	switch entry.ModePrelevement {
	case models.CollectionModeCompteRecharge:
		return s.preleverSurCompte(ctx, entry, payment)
	case models.CollectionModePaiementMobile:
		return s.preleverSurPaiementMobile(ctx, entry, payment)
	default:
		return fmt.Errorf("mode de prelevement inconnu %s: %w", entry.ModePrelevement, ErrValidation)
	}
}

// preleverSurCompte debits the commission from the driver's prepaid balance.
// The debit is a single guarded write in the repository, so concurrent
// collections for the same driver serialize on the balance itself.
func (s *commissionService) preleverSurCompte(ctx context.Context, entry *models.CommissionEntry, payment *models.Payment) error {
	entry.IncrementerTentative()

	change, err := s.driverRepo.Debiter(ctx, entry.ConducteurID, entry.MontantCommission)
	if err != nil {
		code := ErrorCode(err)
		if markErr := entry.MarquerCommeEchec(err.Error(), code); markErr != nil {
			return markErr
		}
		if saveErr := s.commissionRepo.ReplaceDocument(ctx, entry); saveErr != nil {
			return saveErr
		}

		s.logger.LogCommissionEvent(entry.ID, "echec prelevement", entry.MontantCommission, string(entry.Statut))
		return fmt.Errorf("prelevement de la commission %s: %w", entry.ID.Hex(), err)
	}

	details := models.CollectionDetails{
		SoldeAvant: change.SoldeAvant,
		SoldeApres: change.SoldeApres,
	}
	if err := entry.MarquerCommePrelevee(details, payment.Reference); err != nil {
		return err
	}
	if err := s.commissionRepo.ReplaceDocument(ctx, entry); err != nil {
		return err
	}

	record := &models.CommissionRecord{
		PaymentID: payment.ID,
		Montant:   entry.MontantCommission,
		Date:      time.Now(),
	}
	if err := s.driverRepo.EnregistrerCommission(ctx, entry.ConducteurID, record); err != nil {
		s.logger.WithError(err).WithDriverID(entry.ConducteurID).Error("failed to record commission history")
	}

	s.logger.LogBalanceChange(entry.ConducteurID, "prelevement_commission", entry.MontantCommission, change.SoldeAvant, change.SoldeApres)
	s.logger.LogCommissionEvent(entry.ID, "commission prelevee", entry.MontantCommission, string(entry.Statut))
	return nil
}

// preleverSurPaiementMobile settles a mobile money ride. Rails with an
// atomic split guarantee already deducted the commission at charge time;
// the others stay pending until ConfirmerPrelevementMobile verifies the
// transaction.
func (s *commissionService) preleverSurPaiementMobile(ctx context.Context, entry *models.CommissionEntry, payment *models.Payment) error {
	provider, err := s.mmRegistry.Get(string(payment.MethodePaiement))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProviderError, err.Error())
	}

	entry.IncrementerTentative()

	if !provider.SupporteSplitAtomique() {
		entry.Statut = models.CommissionStatusEnAttente
		if err := s.commissionRepo.ReplaceDocument(ctx, entry); err != nil {
			return err
		}
		s.logger.LogCommissionEvent(entry.ID, "prelevement en attente de verification", entry.MontantCommission, string(entry.Statut))
		return nil
	}

	if err := entry.MarquerCommePrelevee(models.CollectionDetails{}, payment.TransactionMobileID); err != nil {
		return err
	}
	if err := s.commissionRepo.ReplaceDocument(ctx, entry); err != nil {
		return err
	}

	s.logger.LogCommissionEvent(entry.ID, "commission prelevee a la source", entry.MontantCommission, string(entry.Statut))
	return nil
}

func (s *commissionService) ConfirmerPrelevementMobile(ctx context.Context, entry *models.CommissionEntry, payment *models.Payment) error {
	if entry.Statut != models.CommissionStatusEnAttente {
		return fmt.Errorf("entree %s non en attente (statut=%s): %w", entry.ID.Hex(), entry.Statut, ErrTransitionInvalide)
	}

	provider, err := s.mmRegistry.Get(string(payment.MethodePaiement))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProviderError, err.Error())
	}

	status, err := provider.VerifierStatut(ctx, payment.TransactionMobileID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProviderError, err.Error())
	}

	switch status.Statut {
	case mobilemoney.StatutSuccess:
		if err := entry.MarquerCommePrelevee(models.CollectionDetails{}, payment.TransactionMobileID); err != nil {
			return err
		}
	case mobilemoney.StatutFailed:
		if err := entry.MarquerCommeEchec(status.Message, utils.CodeProviderError); err != nil {
			return err
		}
	default:
		// Still pending provider-side, nothing to persist.
		return nil
	}

	if err := s.commissionRepo.ReplaceDocument(ctx, entry); err != nil {
		return err
	}

	s.logger.LogCommissionEvent(entry.ID, "verification operateur", entry.MontantCommission, string(entry.Statut))
	return nil
}

func (s *commissionService) Rembourser(ctx context.Context, paymentID primitive.ObjectID, raison string) (*models.CommissionEntry, error) {
	entry, err := s.commissionRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if entry.Reconcilie {
		return nil, fmt.Errorf("entree %s dans le lot %s: %w", entry.ID.Hex(), entry.NumeroLot, ErrReconciliationConflict)
	}

	if err := entry.Rembourser(raison); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransitionInvalide, err.Error())
	}

	// A commission debited from the prepaid balance goes back to it.
	if entry.ModePrelevement == models.CollectionModeCompteRecharge {
		change, err := s.driverRepo.Crediter(ctx, entry.ConducteurID, entry.MontantCommission)
		if err != nil {
			return nil, fmt.Errorf("recredit du compte conducteur: %w", err)
		}
		s.logger.LogBalanceChange(entry.ConducteurID, "remboursement_commission", entry.MontantCommission, change.SoldeAvant, change.SoldeApres)
	}

	if err := s.commissionRepo.ReplaceDocument(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.LogCommissionEvent(entry.ID, "commission remboursee", entry.MontantCommission, string(entry.Statut))
	return entry, nil
}

func (s *commissionService) GetByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*models.CommissionEntry, error) {
	return s.commissionRepo.GetByPaymentID(ctx, paymentID)
}

func (s *commissionService) GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	return s.commissionRepo.GetByConducteurID(ctx, conducteurID, params)
}

func (s *commissionService) GetEchecs(ctx context.Context, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	return s.commissionRepo.GetEchecs(ctx, params)
}

func (s *commissionService) GetStats(ctx context.Context, startDate, endDate time.Time) (*models.CommissionStats, error) {
	return s.commissionRepo.GetStats(ctx, startDate, endDate)
}
