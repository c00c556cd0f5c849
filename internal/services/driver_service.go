package services

import (
	"context"
	"fmt"
	"time"

	"terangaride/internal/config"
	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/utils"
	"terangaride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverService interface {
	Create(ctx context.Context, driver *models.Driver) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Driver, int64, error)

	// ConfigurerAutoRecharge updates the driver's automatic top-up settings.
	ConfigurerAutoRecharge(ctx context.Context, driverID primitive.ObjectID, settings *models.AutoRecharge) error

	// DemanderRetrait pays out part of the prepaid balance, gated by the
	// daily and monthly withdrawal limits. Counters roll over lazily on
	// the first withdrawal of a new day or month.
	DemanderRetrait(ctx context.Context, driverID primitive.ObjectID, montant float64) (*interfaces.BalanceChange, error)
}

type driverService struct {
	driverRepo interfaces.DriverRepository
	config     *config.CommissionConfig
	logger     *logger.Logger
}

func NewDriverService(driverRepo interfaces.DriverRepository, cfg *config.CommissionConfig, logger *logger.Logger) DriverService {
	return &driverService{
		driverRepo: driverRepo,
		config:     cfg,
		logger:     logger,
	}
}

func (s *driverService) Create(ctx context.Context, driver *models.Driver) error {
	driver.Telephone = utils.NormalizePhone(driver.Telephone)
	if !utils.IsValidPhone(driver.Telephone) {
		return fmt.Errorf("numero %s invalide: %w", driver.Telephone, ErrValidation)
	}

	if driver.Statut == "" {
		driver.Statut = models.DriverStatusActif
	}
	if driver.CompteRecharge.SeuilMinimum == 0 {
		driver.CompteRecharge.SeuilMinimum = s.config.SeuilMinimumDefaut
	}

	return s.driverRepo.Create(ctx, driver)
}

func (s *driverService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	return s.driverRepo.GetByID(ctx, id)
}

func (s *driverService) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error) {
	return s.driverRepo.GetByUserID(ctx, userID)
}

func (s *driverService) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Driver, int64, error) {
	return s.driverRepo.List(ctx, params)
}

func (s *driverService) ConfigurerAutoRecharge(ctx context.Context, driverID primitive.ObjectID, settings *models.AutoRecharge) error {
	if settings.Active {
		if !settings.MethodePaiementAuto.IsMobileMoney() {
			return fmt.Errorf("methode %s non autorisee pour l'auto-recharge: %w", settings.MethodePaiementAuto, ErrValidation)
		}
		if settings.MontantAutoRecharge < s.config.MontantRechargeMinimum || settings.MontantAutoRecharge > s.config.MontantRechargeMaximum {
			return fmt.Errorf("montant auto-recharge %.0f hors bornes: %w", settings.MontantAutoRecharge, ErrValidation)
		}
		if settings.SeuilAutoRecharge <= 0 {
			return fmt.Errorf("seuil auto-recharge %.0f invalide: %w", settings.SeuilAutoRecharge, ErrValidation)
		}
	}

	updates := map[string]interface{}{
		"compteRecharge.modeAutoRecharge": settings,
	}
	return s.driverRepo.Update(ctx, driverID, updates)
}

func (s *driverService) DemanderRetrait(ctx context.Context, driverID primitive.ObjectID, montant float64) (*interfaces.BalanceChange, error) {
	if montant <= 0 || montant != utils.RoundFCFA(montant) {
		return nil, fmt.Errorf("montant de retrait %.2f invalide: %w", montant, ErrValidation)
	}

	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	limites := driver.CompteRecharge.Limites
	limites.ResetSiNecessaire(now)
	if !limites.PeutRetirer(montant) {
		return nil, fmt.Errorf("retrait %.0f FCFA au-dela des limites (jour %.0f/%.0f, mois %.0f/%.0f): %w",
			montant, limites.MontantRetireAujourdhui, limites.RetraitJournalier,
			limites.MontantRetireCeMois, limites.RetraitMensuel, ErrPlafondDepasse)
	}

	change, err := s.driverRepo.Debiter(ctx, driverID, montant)
	if err != nil {
		return nil, err
	}

	limites.MontantRetireAujourdhui += montant
	limites.MontantRetireCeMois += montant
	limites.DernierRetraitLe = &now
	if err := s.driverRepo.MettreAJourLimites(ctx, driverID, &limites); err != nil {
		// The debit already landed, only the counters are stale.
		s.logger.WithError(err).WithDriverID(driverID).Error("failed to persist withdrawal counters")
	}

	s.logger.WithDriverID(driverID).Infof("retrait de %.0f FCFA, solde %.0f -> %.0f", montant, change.SoldeAvant, change.SoldeApres)
	return change, nil
}
