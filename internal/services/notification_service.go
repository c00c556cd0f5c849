package services

import (
	"context"
	"fmt"

	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/utils"
	"terangaride/pkg/logger"
	"terangaride/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService sends settlement SMS to drivers. Every method is
// best-effort: callers log failures and move on.
type NotificationService interface {
	NotifierPaiementComplete(ctx context.Context, payment *models.Payment) error
	NotifierEchecPrelevement(ctx context.Context, payment *models.Payment, entry *models.CommissionEntry) error
	NotifierRemboursement(ctx context.Context, payment *models.Payment) error
	NotifierRechargeConfirmee(ctx context.Context, driver *models.Driver, recharge *models.Recharge) error
	NotifierRechargeEchec(ctx context.Context, driver *models.Driver, recharge *models.Recharge) error
	NotifierSoldeFaible(ctx context.Context, driver *models.Driver) error
}

type notificationService struct {
	smsProvider sms.Provider
	driverRepo  interfaces.DriverRepository
	from        string
	logger      *logger.Logger
}

func NewNotificationService(smsProvider sms.Provider, driverRepo interfaces.DriverRepository, from string, logger *logger.Logger) NotificationService {
	return &notificationService{
		smsProvider: smsProvider,
		driverRepo:  driverRepo,
		from:        from,
		logger:      logger,
	}
}

func (s *notificationService) NotifierPaiementComplete(ctx context.Context, payment *models.Payment) error {
	message := fmt.Sprintf("Course reglee: %s recus, commission %s.",
		utils.FormatFCFA(payment.MontantConducteur), utils.FormatFCFA(payment.Commission.Montant))
	return s.envoyerAuConducteur(ctx, payment.ConducteurID, message)
}

func (s *notificationService) NotifierEchecPrelevement(ctx context.Context, payment *models.Payment, entry *models.CommissionEntry) error {
	message := fmt.Sprintf("Prelevement de commission de %s echoue. Rechargez votre compte pour continuer a accepter des courses en especes.",
		utils.FormatFCFA(entry.MontantCommission))
	return s.envoyerAuConducteur(ctx, payment.ConducteurID, message)
}

func (s *notificationService) NotifierRemboursement(ctx context.Context, payment *models.Payment) error {
	message := fmt.Sprintf("Paiement %s rembourse (%s).", payment.Reference, utils.FormatFCFA(payment.MontantTotal))
	return s.envoyerAuConducteur(ctx, payment.ConducteurID, message)
}

func (s *notificationService) NotifierRechargeConfirmee(ctx context.Context, driver *models.Driver, recharge *models.Recharge) error {
	credite := recharge.Montant - recharge.FraisTransaction
	message := fmt.Sprintf("Recharge confirmee: %s credites (frais %s). Nouveau solde: %s.",
		utils.FormatFCFA(credite), utils.FormatFCFA(recharge.FraisTransaction), utils.FormatFCFA(driver.CompteRecharge.Solde))
	return s.envoyer(ctx, driver.Telephone, message)
}

func (s *notificationService) NotifierRechargeEchec(ctx context.Context, driver *models.Driver, recharge *models.Recharge) error {
	message := fmt.Sprintf("Recharge de %s echouee: %s", utils.FormatFCFA(recharge.Montant), recharge.Erreur)
	return s.envoyer(ctx, driver.Telephone, message)
}

func (s *notificationService) NotifierSoldeFaible(ctx context.Context, driver *models.Driver) error {
	message := fmt.Sprintf("Solde de recharge faible: %s. Rechargez pour continuer a accepter des courses en especes.",
		utils.FormatFCFA(driver.CompteRecharge.Solde))
	return s.envoyer(ctx, driver.Telephone, message)
}

func (s *notificationService) envoyerAuConducteur(ctx context.Context, conducteurID primitive.ObjectID, message string) error {
	driver, err := s.driverRepo.GetByID(ctx, conducteurID)
	if err != nil {
		return err
	}
	return s.envoyer(ctx, driver.Telephone, message)
}

func (s *notificationService) envoyer(ctx context.Context, telephone, message string) error {
	ctx, cancel := context.WithTimeout(ctx, utils.NotificationTimeout)
	defer cancel()

	response, err := s.smsProvider.SendSMS(ctx, &sms.Request{
		To:      telephone,
		From:    s.from,
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"telephone":  telephone,
		"message_id": response.MessageID,
	}).Debug("settlement SMS sent")
	return nil
}
