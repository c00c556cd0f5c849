package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"terangaride/internal/config"
	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/utils"
	"terangaride/pkg/cache"
	"terangaride/pkg/logger"
	"terangaride/pkg/mobilemoney"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RechargeService interface {
	// InitierRecharge opens a mobile money top-up of the driver's prepaid
	// account.
	InitierRecharge(ctx context.Context, request *InitierRechargeRequest) (*models.Recharge, error)

	// ConfirmerRecharge finalizes a pending recharge. Confirming an already
	// final recharge is a no-op.
	ConfirmerRecharge(ctx context.Context, reference string, statut models.RechargeStatus, transactionID, erreur string) error

	// TraiterCallback applies an operator webhook to the matching recharge.
	TraiterCallback(ctx context.Context, callback *MobileMoneyCallback) error

	// AnnulerRecharge cancels a pending recharge inside the cancellation
	// window.
	AnnulerRecharge(ctx context.Context, driverID primitive.ObjectID, reference string) error

	// TraiterRechargesEnAttente sweeps stale pending recharges: it asks the
	// operator for the real outcome and expires the ones past the deadline.
	TraiterRechargesEnAttente(ctx context.Context) error

	// VerifierAutoRecharge tops up drivers whose balance fell under their
	// auto-recharge trigger.
	VerifierAutoRecharge(ctx context.Context) error

	GetCompteRecharge(ctx context.Context, driverID primitive.ObjectID) (*models.CompteRecharge, error)
}

type InitierRechargeRequest struct {
	DriverID        primitive.ObjectID   `json:"driver_id" validate:"required"`
	Montant         float64              `json:"montant" validate:"required,montant_fcfa"`
	MethodePaiement models.PaymentMethod `json:"methode_paiement" validate:"required,methode_paiement"`
	Telephone       string               `json:"telephone" validate:"required,phone_operateur"`
}

type rechargeService struct {
	driverRepo      interfaces.DriverRepository
	notificationSvc NotificationService
	cache           CacheService
	mmRegistry      *mobilemoney.Registry
	config          *config.CommissionConfig
	callbackBaseURL string
	logger          *logger.Logger
}

func NewRechargeService(
	driverRepo interfaces.DriverRepository,
	notificationSvc NotificationService,
	cache CacheService,
	mmRegistry *mobilemoney.Registry,
	cfg *config.CommissionConfig,
	callbackBaseURL string,
	logger *logger.Logger,
) RechargeService {
	return &rechargeService{
		driverRepo:      driverRepo,
		notificationSvc: notificationSvc,
		cache:           cache,
		mmRegistry:      mmRegistry,
		config:          cfg,
		callbackBaseURL: callbackBaseURL,
		logger:          logger,
	}
}

func (s *rechargeService) InitierRecharge(ctx context.Context, request *InitierRechargeRequest) (*models.Recharge, error) {
	if !request.MethodePaiement.IsMobileMoney() {
		return nil, fmt.Errorf("methode %s non autorisee pour une recharge: %w", request.MethodePaiement, ErrValidation)
	}
	if request.Montant < s.config.MontantRechargeMinimum || request.Montant > s.config.MontantRechargeMaximum {
		return nil, fmt.Errorf("montant %.0f hors bornes [%.0f, %.0f]: %w",
			request.Montant, s.config.MontantRechargeMinimum, s.config.MontantRechargeMaximum, ErrValidation)
	}
	if request.Montant != utils.RoundFCFA(request.Montant) {
		return nil, fmt.Errorf("montant %.2f non entier en FCFA: %w", request.Montant, ErrValidation)
	}

	telephone := utils.NormalizePhone(request.Telephone)
	if !utils.IsValidPhone(telephone) {
		return nil, fmt.Errorf("numero %s invalide: %w", request.Telephone, ErrValidation)
	}
	if err := verifierOperateur(telephone, request.MethodePaiement); err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, request.DriverID)
	if err != nil {
		return nil, err
	}

	if err := s.verifierPlafonds(ctx, driver.ID, request.Montant); err != nil {
		return nil, err
	}

	provider, err := s.mmRegistry.Get(string(request.MethodePaiement))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderError, err.Error())
	}

	recharge := &models.Recharge{
		Montant:              request.Montant,
		MethodePaiement:      request.MethodePaiement,
		Telephone:            telephone,
		ReferenceTransaction: utils.GenerateRechargeReference(),
		Statut:               models.RechargeStatusEnAttente,
		FraisTransaction:     utils.CalculerFraisRecharge(request.Montant),
		DateCreation:         time.Now(),
	}

	response, err := provider.InitierPaiement(ctx, &mobilemoney.PaymentRequest{
		Reference:      recharge.ReferenceTransaction,
		Telephone:      telephone,
		Montant:        recharge.Montant,
		Description:    "Recharge compte conducteur",
		IdempotencyKey: utils.GenerateIdempotencyKey(),
		CallbackURL:    fmt.Sprintf("%s/api/v1/webhooks/mobilemoney/%s", s.callbackBaseURL, provider.Name()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderError, err.Error())
	}
	recharge.TransactionMobileID = response.TransactionID

	if err := s.driverRepo.AjouterRecharge(ctx, driver.ID, recharge); err != nil {
		return nil, err
	}

	s.incrementerCompteurs(ctx, driver.ID, request.Montant)

	s.logger.WithDriverID(driver.ID).WithReference(recharge.ReferenceTransaction).
		Infof("recharge de %.0f FCFA initiee via %s", recharge.Montant, recharge.MethodePaiement)

	// Some rails settle synchronously.
	if response.Statut == mobilemoney.StatutSuccess {
		if err := s.ConfirmerRecharge(ctx, recharge.ReferenceTransaction, models.RechargeStatusReussi, response.TransactionID, ""); err != nil {
			return nil, err
		}
		recharge.Statut = models.RechargeStatusReussi
	}

	return recharge, nil
}

// verifierPlafonds enforces the daily count and amount caps with redis
// counters keyed per driver and calendar day.
func (s *rechargeService) verifierPlafonds(ctx context.Context, driverID primitive.ObjectID, montant float64) error {
	jour := time.Now().Format("2006-01-02")

	var nombre int64
	countKey := fmt.Sprintf(utils.CacheKeyRechargesJour, driverID.Hex(), jour)
	if err := s.cache.Get(ctx, countKey, &nombre); err != nil {
		// A missing counter just means no recharge today. Anything else
		// degrades the cap check and has to be visible.
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).WithDriverID(driverID).Warn("daily recharge counter unavailable, cap check degraded")
		}
	} else if nombre >= int64(s.config.MaxRechargesParJour) {
		return fmt.Errorf("%d recharges aujourd'hui (max %d): %w", nombre, s.config.MaxRechargesParJour, ErrPlafondDepasse)
	}

	var cumul float64
	amountKey := fmt.Sprintf(utils.CacheKeyRechargesMontant, driverID.Hex(), jour)
	if err := s.cache.Get(ctx, amountKey, &cumul); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).WithDriverID(driverID).Warn("daily recharge amount unavailable, cap check degraded")
		}
	} else if cumul+montant > s.config.PlafondRechargeJournalier {
		return fmt.Errorf("cumul %.0f + %.0f depasse le plafond journalier %.0f: %w",
			cumul, montant, s.config.PlafondRechargeJournalier, ErrPlafondDepasse)
	}

	return nil
}

func (s *rechargeService) incrementerCompteurs(ctx context.Context, driverID primitive.ObjectID, montant float64) {
	jour := time.Now().Format("2006-01-02")

	countKey := fmt.Sprintf(utils.CacheKeyRechargesJour, driverID.Hex(), jour)
	if _, err := s.cache.Increment(ctx, countKey, 48*time.Hour); err != nil {
		s.logger.WithError(err).WithDriverID(driverID).Warn("failed to bump daily recharge counter")
	}

	amountKey := fmt.Sprintf(utils.CacheKeyRechargesMontant, driverID.Hex(), jour)
	if _, err := s.cache.IncrementByFloat(ctx, amountKey, montant, 48*time.Hour); err != nil {
		s.logger.WithError(err).WithDriverID(driverID).Warn("failed to bump daily recharge amount")
	}
}

func (s *rechargeService) ConfirmerRecharge(ctx context.Context, reference string, statut models.RechargeStatus, transactionID, erreur string) error {
	driver, err := s.driverRepo.GetByRechargeReference(ctx, reference)
	if err != nil {
		return err
	}

	applied, err := s.driverRepo.ConfirmerRecharge(ctx, driver.ID, reference, statut, transactionID, erreur)
	if err != nil {
		return err
	}
	if !applied {
		// Already final, replayed confirmation.
		return nil
	}

	recharge := driver.CompteRecharge.RechargeParReference(reference)
	if recharge == nil {
		return fmt.Errorf("recharge %s introuvable apres confirmation: %w", reference, ErrNotFound)
	}
	recharge.Statut = statut
	recharge.Erreur = erreur

	if statut == models.RechargeStatusReussi {
		credit := recharge.Montant - recharge.FraisTransaction
		change, err := s.driverRepo.Crediter(ctx, driver.ID, credit)
		if err != nil {
			return fmt.Errorf("credit du compte apres recharge %s: %w", reference, err)
		}

		driver.CompteRecharge.Solde = change.SoldeApres
		s.logger.LogBalanceChange(driver.ID, "recharge", credit, change.SoldeAvant, change.SoldeApres)

		if s.notificationSvc != nil {
			if err := s.notificationSvc.NotifierRechargeConfirmee(ctx, driver, recharge); err != nil {
				s.logger.WithError(err).WithDriverID(driver.ID).Warn("recharge notification failed")
			}
		}
		return nil
	}

	s.logger.WithDriverID(driver.ID).WithReference(reference).Warnf("recharge echouee: %s", erreur)
	if s.notificationSvc != nil {
		if err := s.notificationSvc.NotifierRechargeEchec(ctx, driver, recharge); err != nil {
			s.logger.WithError(err).WithDriverID(driver.ID).Warn("recharge notification failed")
		}
	}
	return nil
}

func (s *rechargeService) TraiterCallback(ctx context.Context, callback *MobileMoneyCallback) error {
	acquired, err := s.cache.AcquireCallbackLock(ctx, callback.TransactionID, 24*time.Hour)
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", callback.TransactionID).Warn("callback lock unavailable, relying on status guard")
	} else if !acquired {
		return fmt.Errorf("callback %s: %w", callback.TransactionID, ErrDuplicateTransaction)
	}

	err = s.appliquerCallback(ctx, callback)
	if err != nil && acquired && !errors.Is(err, ErrDuplicateTransaction) {
		// Leave the key free for the operator's retry; the recharge status
		// check keeps the confirm idempotent.
		if relErr := s.cache.ReleaseCallbackLock(ctx, callback.TransactionID); relErr != nil {
			s.logger.WithError(relErr).WithField("transaction_id", callback.TransactionID).Warn("callback lock release failed")
		}
	}
	return err
}

func (s *rechargeService) appliquerCallback(ctx context.Context, callback *MobileMoneyCallback) error {
	switch callback.Statut {
	case mobilemoney.StatutSuccess:
		return s.ConfirmerRecharge(ctx, callback.Reference, models.RechargeStatusReussi, callback.TransactionID, "")
	case mobilemoney.StatutFailed:
		return s.ConfirmerRecharge(ctx, callback.Reference, models.RechargeStatusEchec, callback.TransactionID, callback.Message)
	case mobilemoney.StatutPending:
		return nil
	default:
		return fmt.Errorf("statut callback inconnu %s: %w", callback.Statut, ErrValidation)
	}
}

func (s *rechargeService) AnnulerRecharge(ctx context.Context, driverID primitive.ObjectID, reference string) error {
	driver, err := s.driverRepo.GetByRechargeReference(ctx, reference)
	if err != nil {
		return err
	}
	if driver.ID != driverID {
		return fmt.Errorf("recharge %s n'appartient pas au conducteur %s: %w", reference, driverID.Hex(), ErrValidation)
	}

	recharge := driver.CompteRecharge.RechargeParReference(reference)
	if recharge == nil {
		return fmt.Errorf("recharge %s: %w", reference, ErrNotFound)
	}
	if recharge.Statut != models.RechargeStatusEnAttente {
		return fmt.Errorf("recharge %s deja %s: %w", reference, recharge.Statut, ErrTransitionInvalide)
	}
	if time.Since(recharge.DateCreation) > s.config.FenetreAnnulationRecharge {
		return fmt.Errorf("recharge %s creee le %s: %w", reference, recharge.DateCreation.Format(time.RFC3339), ErrFenetreExpiree)
	}

	return s.ConfirmerRecharge(ctx, reference, models.RechargeStatusEchec, "", "annulee par le conducteur")
}

func (s *rechargeService) TraiterRechargesEnAttente(ctx context.Context) error {
	drivers, err := s.driverRepo.GetRechargesEnAttente(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, driver := range drivers {
		for i := range driver.CompteRecharge.HistoriqueRecharges {
			recharge := &driver.CompteRecharge.HistoriqueRecharges[i]
			if recharge.Statut != models.RechargeStatusEnAttente {
				continue
			}
			if now.Sub(recharge.DateCreation) < s.config.DelaiExpirationRecharge {
				continue
			}

			// Ask the operator before declaring the recharge lost: the
			// callback may simply never have arrived.
			statut := s.verifierAupresOperateur(ctx, recharge)
			switch statut {
			case mobilemoney.StatutSuccess:
				err = s.ConfirmerRecharge(ctx, recharge.ReferenceTransaction, models.RechargeStatusReussi, recharge.TransactionMobileID, "")
			case mobilemoney.StatutPending:
				err = s.ConfirmerRecharge(ctx, recharge.ReferenceTransaction, models.RechargeStatusEchec, recharge.TransactionMobileID, "expiree sans confirmation operateur")
			default:
				err = s.ConfirmerRecharge(ctx, recharge.ReferenceTransaction, models.RechargeStatusEchec, recharge.TransactionMobileID, "echec operateur")
			}
			if err != nil {
				s.logger.WithError(err).WithReference(recharge.ReferenceTransaction).Error("failed to settle stale recharge")
			}
		}
	}

	return nil
}

func (s *rechargeService) verifierAupresOperateur(ctx context.Context, recharge *models.Recharge) string {
	if recharge.TransactionMobileID == "" {
		return mobilemoney.StatutPending
	}

	provider, err := s.mmRegistry.Get(string(recharge.MethodePaiement))
	if err != nil {
		return mobilemoney.StatutPending
	}

	status, err := provider.VerifierStatut(ctx, recharge.TransactionMobileID)
	if err != nil {
		s.logger.WithError(err).WithReference(recharge.ReferenceTransaction).Warn("operator status check failed")
		return mobilemoney.StatutPending
	}
	return status.Statut
}

func (s *rechargeService) VerifierAutoRecharge(ctx context.Context) error {
	drivers, err := s.driverRepo.GetCandidatsAutoRecharge(ctx)
	if err != nil {
		return err
	}

	for _, driver := range drivers {
		auto := driver.CompteRecharge.ModeAutoRecharge
		request := &InitierRechargeRequest{
			DriverID:        driver.ID,
			Montant:         auto.MontantAutoRecharge,
			MethodePaiement: auto.MethodePaiementAuto,
			Telephone:       driver.Telephone,
		}

		if _, err := s.InitierRecharge(ctx, request); err != nil {
			s.logger.WithError(err).WithDriverID(driver.ID).Warn("auto recharge failed")
			if s.notificationSvc != nil {
				if notifErr := s.notificationSvc.NotifierSoldeFaible(ctx, driver); notifErr != nil {
					s.logger.WithError(notifErr).WithDriverID(driver.ID).Warn("low balance notification failed")
				}
			}
		}
	}

	return nil
}

func (s *rechargeService) GetCompteRecharge(ctx context.Context, driverID primitive.ObjectID) (*models.CompteRecharge, error) {
	driver, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	// Withdrawal counters roll over lazily: the first read of a new day or
	// month clears them.
	if driver.CompteRecharge.Limites.ResetSiNecessaire(time.Now()) {
		if err := s.driverRepo.MettreAJourLimites(ctx, driverID, &driver.CompteRecharge.Limites); err != nil {
			s.logger.WithError(err).WithDriverID(driverID).Warn("failed to persist withdrawal counter rollover")
		}
	}

	return &driver.CompteRecharge, nil
}

// verifierOperateur checks that the phone number belongs to the operator of
// the chosen rail. Wave is app-based and accepts any mobile number.
func verifierOperateur(telephone string, methode models.PaymentMethod) error {
	prefixes := map[models.PaymentMethod]string{
		models.PaymentMethodOrangeMoney: utils.PrefixeOrange,
		models.PaymentMethodMTNMoney:    utils.PrefixeMTN,
		models.PaymentMethodMoovMoney:   utils.PrefixeMoov,
	}

	attendu, ok := prefixes[methode]
	if !ok {
		return nil
	}
	if utils.OperatorPrefix(telephone) != attendu {
		return fmt.Errorf("numero %s incompatible avec %s: %w", telephone, methode, ErrValidation)
	}
	return nil
}
