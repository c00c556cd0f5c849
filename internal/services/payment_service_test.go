package services

import (
	"context"
	"testing"
	"time"

	"terangaride/internal/models"
	"terangaride/pkg/mobilemoney"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type paymentFixture struct {
	svc            PaymentService
	paymentRepo    *fakePaymentRepo
	commissionRepo *fakeCommissionRepo
	driverRepo     *fakeDriverRepo
	cache          *fakeCache
	notifier       *fakeNotifier
	driver         *models.Driver
	reservation    *models.Reservation
}

func newPaymentFixture(t *testing.T, providers ...mobilemoney.Provider) *paymentFixture {
	t.Helper()

	paymentRepo := newFakePaymentRepo()
	commissionRepo := newFakeCommissionRepo()
	driverRepo := newFakeDriverRepo()
	cache := newFakeCache()
	notifier := &fakeNotifier{}
	registry := mobilemoney.NewRegistry(providers...)
	log := newTestLogger()
	cfg := testCommissionConfig()

	driver := &models.Driver{
		UserID:         primitive.NewObjectID(),
		Telephone:      "+2250701020304",
		Statut:         models.DriverStatusActif,
		CompteRecharge: models.CompteRecharge{Solde: 10000, EstRecharge: true},
	}
	require.NoError(t, driverRepo.Create(context.Background(), driver))

	reservation := &models.Reservation{
		ID:           primitive.NewObjectID(),
		PassagerID:   primitive.NewObjectID(),
		ConducteurID: driver.ID,
		MontantTotal: 5000,
		Statut:       models.ReservationStatusTerminee,
	}

	commissionSvc := NewCommissionService(commissionRepo, driverRepo, registry, cfg, log)
	svc := NewPaymentService(
		paymentRepo,
		newFakeReservationRepo(reservation),
		driverRepo,
		commissionSvc,
		notifier,
		cache,
		registry,
		cfg,
		"https://api.terangaride.ci",
		log,
	)

	return &paymentFixture{
		svc:            svc,
		paymentRepo:    paymentRepo,
		commissionRepo: commissionRepo,
		driverRepo:     driverRepo,
		cache:          cache,
		notifier:       notifier,
		driver:         driver,
		reservation:    reservation,
	}
}

func TestInitierPaiementEspeces(t *testing.T) {
	f := newPaymentFixture(t)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodEspeces,
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusEnAttente, payment.Statut)
	assert.Equal(t, 5000.0, payment.MontantTotal)
	assert.Equal(t, 500.0, payment.Commission.Montant)
	assert.Equal(t, 4500.0, payment.MontantConducteur)
	assert.Equal(t, models.CollectionModeCompteRecharge, payment.Commission.ModePrelevement)
	assert.Contains(t, payment.Reference, "PAY-")
	require.Len(t, payment.HistoriqueStatuts, 1)
	assert.Equal(t, models.PaymentStatusEnAttente, payment.HistoriqueStatuts[0].Statut)
}

func TestInitierPaiementEspecesConducteurNonRecharge(t *testing.T) {
	wave := &fakeProvider{name: "WAVE", atomique: true, transactionID: "WV-001"}
	f := newPaymentFixture(t, wave)
	f.driver.CompteRecharge.EstRecharge = false
	f.driver.CompteRecharge.Solde = 0

	// No provisioned prepaid account: the cash ride is not payable.
	_, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodEspeces,
	})
	assert.ErrorIs(t, err, ErrValidation)

	// Mobile money stays open, the commission splits at the source.
	_, err = f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodWave,
		TelephonePayeur: "+2250501020304",
	})
	require.NoError(t, err)
}

func TestInitierPaiementMobileMoney(t *testing.T) {
	wave := &fakeProvider{name: "WAVE", atomique: true, transactionID: "WV-001"}
	f := newPaymentFixture(t, wave)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodWave,
		TelephonePayeur: "+2250501020304",
	})
	require.NoError(t, err)

	assert.Equal(t, "WV-001", payment.TransactionMobileID)
	assert.Equal(t, models.CollectionModePaiementMobile, payment.Commission.ModePrelevement)
}

func TestChangerStatutTransitionInvalide(t *testing.T) {
	f := newPaymentFixture(t)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodEspeces,
	})
	require.NoError(t, err)

	_, err = f.svc.ChangerStatut(context.Background(), payment.ID, models.PaymentStatusComplete, "admin", "encaisse")
	require.NoError(t, err)

	// COMPLETE only accepts REMBOURSE.
	_, err = f.svc.ChangerStatut(context.Background(), payment.ID, models.PaymentStatusAnnule, "admin", "")
	assert.ErrorIs(t, err, ErrTransitionInvalide)
}

func TestCompletionDeclencheLePrelevement(t *testing.T) {
	f := newPaymentFixture(t)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodEspeces,
	})
	require.NoError(t, err)

	_, err = f.svc.ChangerStatut(context.Background(), payment.ID, models.PaymentStatusComplete, "admin", "encaisse")
	require.NoError(t, err)

	entry, err := f.commissionRepo.GetByPaymentID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusPrelevee, entry.Statut)

	driver, err := f.driverRepo.GetByID(context.Background(), f.driver.ID)
	require.NoError(t, err)
	assert.Equal(t, 9500.0, driver.CompteRecharge.Solde)
	assert.Equal(t, 4500.0, driver.CompteRecharge.TotalGagnes)

	assert.Equal(t, 1, f.notifier.paiementsComplete)
}

func TestCompletionAvecSoldeInsuffisantNeBloquePas(t *testing.T) {
	f := newPaymentFixture(t)
	f.driver.CompteRecharge.Solde = 100

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodEspeces,
	})
	require.NoError(t, err)

	// Completion succeeds even though the commission could not be debited.
	completed, err := f.svc.ChangerStatut(context.Background(), payment.ID, models.PaymentStatusComplete, "admin", "encaisse")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusComplete, completed.Statut)

	entry, err := f.commissionRepo.GetByPaymentID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusEchec, entry.Statut)
	assert.Equal(t, 1, f.notifier.echecsPrelevement)

	// Earnings are still credited.
	driver, err := f.driverRepo.GetByID(context.Background(), f.driver.ID)
	require.NoError(t, err)
	assert.Equal(t, 4500.0, driver.CompteRecharge.TotalGagnes)
}

func TestTraiterCallbackComplete(t *testing.T) {
	wave := &fakeProvider{name: "WAVE", atomique: true, transactionID: "WV-010"}
	f := newPaymentFixture(t, wave)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodWave,
		TelephonePayeur: "+2250501020304",
	})
	require.NoError(t, err)

	err = f.svc.TraiterCallback(context.Background(), &MobileMoneyCallback{
		Provider:      "WAVE",
		TransactionID: "WV-010",
		Reference:     payment.Reference,
		Statut:        mobilemoney.StatutSuccess,
		Montant:       5000,
	})
	require.NoError(t, err)

	saved, err := f.paymentRepo.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusComplete, saved.Statut)

	entry, err := f.commissionRepo.GetByPaymentID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusPrelevee, entry.Statut)
}

func TestTraiterCallbackRejoue(t *testing.T) {
	wave := &fakeProvider{name: "WAVE", atomique: true, transactionID: "WV-020"}
	f := newPaymentFixture(t, wave)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodWave,
		TelephonePayeur: "+2250501020304",
	})
	require.NoError(t, err)

	callback := &MobileMoneyCallback{
		Provider:      "WAVE",
		TransactionID: "WV-020",
		Reference:     payment.Reference,
		Statut:        mobilemoney.StatutSuccess,
	}

	require.NoError(t, f.svc.TraiterCallback(context.Background(), callback))

	// Same transaction id replayed: absorbed by the lock.
	err = f.svc.TraiterCallback(context.Background(), callback)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)

	// Different transaction id on an already terminal payment: absorbed by
	// the status guard.
	callback.TransactionID = "WV-020-BIS"
	err = f.svc.TraiterCallback(context.Background(), callback)
	assert.ErrorIs(t, err, ErrDuplicateTransaction)

	// No double collection happened.
	driver, err := f.driverRepo.GetByID(context.Background(), f.driver.ID)
	require.NoError(t, err)
	assert.Equal(t, 4500.0, driver.CompteRecharge.TotalGagnes)
}

func TestTraiterCallbackEchecTransitoireRejouable(t *testing.T) {
	wave := &fakeProvider{name: "WAVE", atomique: true, transactionID: "WV-025"}
	f := newPaymentFixture(t, wave)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodWave,
		TelephonePayeur: "+2250501020304",
	})
	require.NoError(t, err)

	// First delivery fails before any transition lands.
	err = f.svc.TraiterCallback(context.Background(), &MobileMoneyCallback{
		Provider:      "WAVE",
		TransactionID: "WV-025",
		Reference:     payment.Reference,
		Statut:        "garbled",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateTransaction)

	// The operator retries the same transaction id. The dedupe key must
	// have been freed, so the retry applies the transition.
	err = f.svc.TraiterCallback(context.Background(), &MobileMoneyCallback{
		Provider:      "WAVE",
		TransactionID: "WV-025",
		Reference:     payment.Reference,
		Statut:        mobilemoney.StatutSuccess,
	})
	require.NoError(t, err)

	saved, err := f.paymentRepo.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusComplete, saved.Statut)
}

func TestTraiterCallbackEchec(t *testing.T) {
	orange := &fakeProvider{name: "ORANGE_MONEY", atomique: true, transactionID: "OM-030"}
	f := newPaymentFixture(t, orange)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodOrangeMoney,
		TelephonePayeur: "+2250701020304",
	})
	require.NoError(t, err)

	err = f.svc.TraiterCallback(context.Background(), &MobileMoneyCallback{
		Provider:      "ORANGE_MONEY",
		TransactionID: "OM-030",
		Reference:     payment.Reference,
		Statut:        mobilemoney.StatutFailed,
		Message:       "solde wallet insuffisant",
	})
	require.NoError(t, err)

	saved, err := f.paymentRepo.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusEchec, saved.Statut)
	assert.NotEmpty(t, saved.Erreurs)
}

func TestAnnulerPaiementFenetre(t *testing.T) {
	f := newPaymentFixture(t)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodEspeces,
	})
	require.NoError(t, err)

	cancelled, err := f.svc.AnnulerPaiement(context.Background(), payment.ID, "passager", "changement de plan")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusAnnule, cancelled.Statut)
	require.NotNil(t, cancelled.DateAnnulation)
}

func TestAnnulerPaiementFenetreExpiree(t *testing.T) {
	f := newPaymentFixture(t)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodEspeces,
	})
	require.NoError(t, err)

	// Age the payment past the cancellation window.
	payment.CreatedAt = time.Now().Add(-20 * time.Minute)
	require.NoError(t, f.paymentRepo.ReplaceDocument(context.Background(), payment))

	_, err = f.svc.AnnulerPaiement(context.Background(), payment.ID, "passager", "trop tard")
	assert.ErrorIs(t, err, ErrFenetreExpiree)
}

func TestRembourserPaiementComplet(t *testing.T) {
	wave := &fakeProvider{name: "WAVE", atomique: true, transactionID: "WV-040"}
	f := newPaymentFixture(t, wave)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodWave,
		TelephonePayeur: "+2250501020304",
	})
	require.NoError(t, err)

	_, err = f.svc.ChangerStatut(context.Background(), payment.ID, models.PaymentStatusComplete, "operateur", "callback")
	require.NoError(t, err)

	refunded, err := f.svc.RembourserPaiement(context.Background(), payment.ID, "admin", "litige")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRembourse, refunded.Statut)
	require.NotNil(t, refunded.DateRemboursement)

	entry, err := f.commissionRepo.GetByPaymentID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommissionStatusRemboursee, entry.Statut)

	assert.Equal(t, 1, f.notifier.remboursements)
}

func TestRembourserPaiementNonComplete(t *testing.T) {
	f := newPaymentFixture(t)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodEspeces,
	})
	require.NoError(t, err)

	_, err = f.svc.RembourserPaiement(context.Background(), payment.ID, "admin", "litige")
	assert.ErrorIs(t, err, ErrTransitionInvalide)
}

func TestRembourserPaiementReconcilieRefuse(t *testing.T) {
	f := newPaymentFixture(t)

	payment, err := f.svc.InitierPaiement(context.Background(), &InitierPaiementRequest{
		ReservationID:   f.reservation.ID,
		MethodePaiement: models.PaymentMethodEspeces,
	})
	require.NoError(t, err)

	_, err = f.svc.ChangerStatut(context.Background(), payment.ID, models.PaymentStatusComplete, "admin", "encaisse")
	require.NoError(t, err)

	entry, err := f.commissionRepo.GetByPaymentID(context.Background(), payment.ID)
	require.NoError(t, err)
	entry.Reconcilie = true
	entry.NumeroLot = "LOT-20260901-TEST"
	require.NoError(t, f.commissionRepo.ReplaceDocument(context.Background(), entry))

	_, err = f.svc.RembourserPaiement(context.Background(), payment.ID, "admin", "litige")
	assert.ErrorIs(t, err, ErrReconciliationConflict)
}
