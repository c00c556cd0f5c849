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
	"terangaride/pkg/logger"
	"terangaride/pkg/mobilemoney"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentService interface {
	// InitierPaiement opens the settlement of a finished ride. For mobile
	// money methods it also starts the wallet charge with the operator.
	InitierPaiement(ctx context.Context, request *InitierPaiementRequest) (*models.Payment, error)

	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error)
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)

	// ChangerStatut drives the payment state machine. Completion triggers
	// commission collection and driver earnings credit.
	ChangerStatut(ctx context.Context, id primitive.ObjectID, target models.PaymentStatus, acteur, raison string) (*models.Payment, error)

	// TraiterCallback applies an operator webhook to the matching payment.
	// Replayed callbacks are absorbed without effect.
	TraiterCallback(ctx context.Context, callback *MobileMoneyCallback) error

	// AnnulerPaiement cancels a not-yet-completed payment inside the
	// cancellation window.
	AnnulerPaiement(ctx context.Context, id primitive.ObjectID, acteur, raison string) (*models.Payment, error)

	// RembourserPaiement reverses a completed payment end to end: operator
	// refund, state machine, commission ledger.
	RembourserPaiement(ctx context.Context, id primitive.ObjectID, acteur, raison string) (*models.Payment, error)

	GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error)
	GetByPayeurID(ctx context.Context, payeurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error)
	GetStats(ctx context.Context, startDate, endDate time.Time) (*models.PaymentStats, error)
}

type InitierPaiementRequest struct {
	ReservationID   primitive.ObjectID   `json:"reservation_id" validate:"required"`
	MethodePaiement models.PaymentMethod `json:"methode_paiement" validate:"required,methode_paiement"`
	TelephonePayeur string               `json:"telephone_payeur" validate:"omitempty,phone_operateur"`
}

type MobileMoneyCallback struct {
	Provider       string  `json:"provider"`
	TransactionID  string  `json:"transaction_id" validate:"required"`
	Reference      string  `json:"reference" validate:"required"`
	Statut         string  `json:"statut" validate:"required"`
	Montant        float64 `json:"montant"`
	FraisOperateur float64 `json:"frais_operateur"`
	Message        string  `json:"message"`
}

type paymentService struct {
	paymentRepo       interfaces.PaymentRepository
	reservationRepo   interfaces.ReservationRepository
	driverRepo        interfaces.DriverRepository
	commissionService CommissionService
	notificationSvc   NotificationService
	cache             CacheService
	mmRegistry        *mobilemoney.Registry
	config            *config.CommissionConfig
	callbackBaseURL   string
	logger            *logger.Logger
}

func NewPaymentService(
	paymentRepo interfaces.PaymentRepository,
	reservationRepo interfaces.ReservationRepository,
	driverRepo interfaces.DriverRepository,
	commissionService CommissionService,
	notificationSvc NotificationService,
	cache CacheService,
	mmRegistry *mobilemoney.Registry,
	cfg *config.CommissionConfig,
	callbackBaseURL string,
	logger *logger.Logger,
) PaymentService {
	return &paymentService{
		paymentRepo:       paymentRepo,
		reservationRepo:   reservationRepo,
		driverRepo:        driverRepo,
		commissionService: commissionService,
		notificationSvc:   notificationSvc,
		cache:             cache,
		mmRegistry:        mmRegistry,
		config:            cfg,
		callbackBaseURL:   callbackBaseURL,
		logger:            logger,
	}
}

func (s *paymentService) InitierPaiement(ctx context.Context, request *InitierPaiementRequest) (*models.Payment, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, request.ReservationID)
	if err != nil {
		return nil, err
	}

	if reservation.MontantTotal <= 0 {
		return nil, fmt.Errorf("montant de course invalide %.2f: %w", reservation.MontantTotal, ErrValidation)
	}

	driver, err := s.driverRepo.GetByID(ctx, reservation.ConducteurID)
	if err != nil {
		return nil, err
	}
	// A cash ride settles its commission from the prepaid account, so the
	// driver must have one provisioned before the ride is payable.
	if !driver.PeutAccepterCourse(request.MethodePaiement) {
		return nil, fmt.Errorf("conducteur %s sans compte recharge provisionne pour la methode %s: %w",
			driver.ID.Hex(), request.MethodePaiement, ErrValidation)
	}

	taux := s.config.TauxCommission
	commission, _ := s.commissionService.CalculerMontants(reservation.MontantTotal, taux)

	payment := &models.Payment{
		Reference:       utils.GeneratePaymentReference(),
		ReservationID:   reservation.ID,
		PayeurID:        reservation.PassagerID,
		ConducteurID:    reservation.ConducteurID,
		MethodePaiement: request.MethodePaiement,
		Statut:          models.PaymentStatusEnAttente,
		MontantTotal:    reservation.MontantTotal,
		Commission: models.CommissionDetails{
			Taux:              taux,
			Montant:           commission,
			ModePrelevement:   request.MethodePaiement.CollectionMode(),
			StatutPrelevement: models.CommissionStatusCalculee,
		},
	}
	payment.HistoriqueStatuts = []models.StatusChange{{
		Statut: models.PaymentStatusEnAttente,
		Date:   time.Now(),
		Acteur: "system",
		Raison: "initiation",
	}}

	if request.MethodePaiement.IsMobileMoney() {
		provider, err := s.mmRegistry.Get(string(request.MethodePaiement))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProviderError, err.Error())
		}

		response, err := provider.InitierPaiement(ctx, &mobilemoney.PaymentRequest{
			Reference:      payment.Reference,
			Telephone:      request.TelephonePayeur,
			Montant:        payment.MontantTotal,
			Description:    fmt.Sprintf("Course %s", reservation.ID.Hex()),
			IdempotencyKey: utils.GenerateIdempotencyKey(),
			CallbackURL:    fmt.Sprintf("%s/api/v1/webhooks/mobilemoney/%s", s.callbackBaseURL, provider.Name()),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProviderError, err.Error())
		}

		payment.TransactionMobileID = response.TransactionID
		payment.FraisTransaction = response.FraisOperateur
		payment.AppendLog("charge operateur initiee", response.TransactionID, utils.MaxLogsPrelevement)
	}

	payment.MontantConducteur = payment.MontantTotal - payment.Commission.Montant - payment.FraisTransaction

	if err := payment.ValidateInvariants(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.LogPaymentEvent(payment.ID, "paiement initie", payment.MontantTotal)
	return payment, nil
}

func (s *paymentService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	return s.paymentRepo.GetByID(ctx, id)
}

func (s *paymentService) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return s.paymentRepo.GetByReference(ctx, reference)
}

func (s *paymentService) ChangerStatut(ctx context.Context, id primitive.ObjectID, target models.PaymentStatus, acteur, raison string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, payment, target, acteur, raison)
}

// transition applies one state machine edge. The guarded repository write
// carries the expected source status, so a concurrent transition loses
// cleanly instead of double-applying side effects.
func (s *paymentService) transition(ctx context.Context, payment *models.Payment, target models.PaymentStatus, acteur, raison string) (*models.Payment, error) {
	if !payment.CanTransition(target) {
		payment.AppendError(utils.CodeTransitionInvalide, fmt.Sprintf("%s -> %s refuse", payment.Statut, target), utils.MaxErreursPrelevement)
		if err := s.paymentRepo.ReplaceDocument(ctx, payment); err != nil {
			s.logger.WithError(err).WithPaymentID(payment.ID).Error("failed to persist rejected transition")
		}
		return nil, fmt.Errorf("%s -> %s: %w", payment.Statut, target, ErrTransitionInvalide)
	}

	from := payment.Statut
	payment.AppendStatusChange(target, acteur, raison)

	updates := map[string]interface{}{
		"historiqueStatuts": payment.HistoriqueStatuts,
		"logs":              payment.Logs,
		"erreurs":           payment.Erreurs,
	}
	switch target {
	case models.PaymentStatusComplete:
		updates["dateCompletion"] = payment.DateCompletion
	case models.PaymentStatusAnnule:
		updates["dateAnnulation"] = payment.DateAnnulation
	case models.PaymentStatusRembourse:
		updates["dateRemboursement"] = payment.DateRemboursement
	}

	applied, err := s.paymentRepo.UpdateStatusGuarded(ctx, payment.ID, from, target, updates)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("paiement %s modifie concurremment: %w", payment.ID.Hex(), ErrTransitionInvalide)
	}

	s.logger.LogPaymentEvent(payment.ID, fmt.Sprintf("statut %s -> %s", from, target), payment.MontantTotal)

	if target == models.PaymentStatusComplete {
		s.onComplete(ctx, payment)
	}

	return payment, nil
}

// onComplete runs the completion side effects: ledger entry, commission
// collection, driver earnings. A failed collection never rolls the payment
// back; the entry lands in the remediation queue instead.
func (s *paymentService) onComplete(ctx context.Context, payment *models.Payment) {
	entry, err := s.commissionService.CreerEntree(ctx, payment)
	if err != nil {
		s.logger.WithError(err).WithPaymentID(payment.ID).Error("failed to create commission entry")
		return
	}

	if err := s.commissionService.Prelever(ctx, entry, payment); err != nil {
		s.logger.WithError(err).WithPaymentID(payment.ID).Warn("commission collection failed, queued for remediation")
		s.notify(ctx, func(n NotificationService) error {
			return n.NotifierEchecPrelevement(ctx, payment, entry)
		})
	}

	// Mirror the entry's collection state on the embedded payment record.
	paymentUpdates := map[string]interface{}{
		"commission.statutPrelevement": entry.Statut,
		"commission.modePrelevement":   entry.ModePrelevement,
	}
	if entry.DatePrelevement != nil {
		paymentUpdates["commission.datePrelevement"] = entry.DatePrelevement
		paymentUpdates["commission.referencePrelevement"] = payment.Reference
	}
	if err := s.paymentRepo.Update(ctx, payment.ID, paymentUpdates); err != nil {
		s.logger.WithError(err).WithPaymentID(payment.ID).Error("failed to mirror commission state")
	}

	if err := s.driverRepo.CrediterGains(ctx, payment.ConducteurID, payment.MontantConducteur); err != nil {
		s.logger.WithError(err).WithDriverID(payment.ConducteurID).Error("failed to credit driver earnings")
	}

	s.notify(ctx, func(n NotificationService) error {
		return n.NotifierPaiementComplete(ctx, payment)
	})
}

func (s *paymentService) TraiterCallback(ctx context.Context, callback *MobileMoneyCallback) error {
	acquired, err := s.cache.AcquireCallbackLock(ctx, callback.TransactionID, 24*time.Hour)
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", callback.TransactionID).Warn("callback lock unavailable, relying on status guard")
	} else if !acquired {
		return fmt.Errorf("callback %s: %w", callback.TransactionID, ErrDuplicateTransaction)
	}

	err = s.appliquerCallback(ctx, callback)
	if err != nil && acquired && !errors.Is(err, ErrDuplicateTransaction) {
		// The transition did not land, so the operator's retry must not
		// hit the dedupe key. Replay safety stays on the status guard.
		if relErr := s.cache.ReleaseCallbackLock(ctx, callback.TransactionID); relErr != nil {
			s.logger.WithError(relErr).WithField("transaction_id", callback.TransactionID).Warn("callback lock release failed")
		}
	}
	return err
}

func (s *paymentService) appliquerCallback(ctx context.Context, callback *MobileMoneyCallback) error {
	payment, err := s.paymentRepo.GetByReference(ctx, callback.Reference)
	if err != nil {
		return err
	}

	if payment.IsTerminal() {
		return fmt.Errorf("paiement %s deja %s: %w", payment.ID.Hex(), payment.Statut, ErrDuplicateTransaction)
	}

	if payment.TransactionMobileID == "" && callback.TransactionID != "" {
		updates := map[string]interface{}{"transactionMobileId": callback.TransactionID}
		if err := s.paymentRepo.Update(ctx, payment.ID, updates); err != nil {
			return err
		}
		payment.TransactionMobileID = callback.TransactionID
	}

	switch callback.Statut {
	case mobilemoney.StatutSuccess:
		_, err = s.transition(ctx, payment, models.PaymentStatusComplete, "operateur", "confirmation callback")
	case mobilemoney.StatutFailed:
		payment.AppendError(utils.CodeProviderError, callback.Message, utils.MaxErreursPrelevement)
		_, err = s.transition(ctx, payment, models.PaymentStatusEchec, "operateur", callback.Message)
	case mobilemoney.StatutPending:
		_, err = s.transition(ctx, payment, models.PaymentStatusTraite, "operateur", "en cours operateur")
	default:
		err = fmt.Errorf("statut callback inconnu %s: %w", callback.Statut, ErrValidation)
	}

	return err
}

func (s *paymentService) AnnulerPaiement(ctx context.Context, id primitive.ObjectID, acteur, raison string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if time.Since(payment.CreatedAt) > s.config.FenetreAnnulationPaiement {
		return nil, fmt.Errorf("paiement %s cree le %s: %w", id.Hex(), payment.CreatedAt.Format(time.RFC3339), ErrFenetreExpiree)
	}

	return s.transition(ctx, payment, models.PaymentStatusAnnule, acteur, raison)
}

func (s *paymentService) RembourserPaiement(ctx context.Context, id primitive.ObjectID, acteur, raison string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payment.Statut != models.PaymentStatusComplete {
		return nil, fmt.Errorf("paiement %s non complete (statut=%s): %w", id.Hex(), payment.Statut, ErrTransitionInvalide)
	}

	// A reconciled commission blocks the whole refund; the money already
	// left for accounting.
	entry, err := s.commissionService.GetByPaymentID(ctx, payment.ID)
	if err == nil && entry.Reconcilie {
		return nil, fmt.Errorf("paiement %s reconcilie dans le lot %s: %w", id.Hex(), entry.NumeroLot, ErrReconciliationConflict)
	}

	if payment.MethodePaiement.IsMobileMoney() {
		provider, err := s.mmRegistry.Get(string(payment.MethodePaiement))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProviderError, err.Error())
		}

		_, err = provider.Rembourser(ctx, &mobilemoney.RefundRequest{
			TransactionID: payment.TransactionMobileID,
			Montant:       payment.MontantTotal,
			Raison:        raison,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProviderError, err.Error())
		}
	}

	payment, err = s.transition(ctx, payment, models.PaymentStatusRembourse, acteur, raison)
	if err != nil {
		return nil, err
	}

	if _, err := s.commissionService.Rembourser(ctx, payment.ID, raison); err != nil {
		s.logger.WithError(err).WithPaymentID(payment.ID).Error("failed to reverse commission entry")
	}

	s.notify(ctx, func(n NotificationService) error {
		return n.NotifierRemboursement(ctx, payment)
	})

	return payment, nil
}

func (s *paymentService) GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	return s.paymentRepo.GetByConducteurID(ctx, conducteurID, params)
}

func (s *paymentService) GetByPayeurID(ctx context.Context, payeurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	return s.paymentRepo.GetByPayeurID(ctx, payeurID, params)
}

func (s *paymentService) GetStats(ctx context.Context, startDate, endDate time.Time) (*models.PaymentStats, error) {
	return s.paymentRepo.GetStats(ctx, startDate, endDate)
}

// notify runs a notification best-effort. Settlement never fails because an
// SMS did.
func (s *paymentService) notify(ctx context.Context, send func(NotificationService) error) {
	if s.notificationSvc == nil {
		return
	}
	if err := send(s.notificationSvc); err != nil {
		s.logger.WithError(err).Warn("notification delivery failed")
	}
}
