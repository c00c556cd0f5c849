package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"terangaride/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reconciliationFixture struct {
	svc            ReconciliationService
	commissionRepo *fakeCommissionRepo
	lotRepo        *fakeLotRepo
	auditRepo      *fakeAuditRepo
}

func newReconciliationFixture() *reconciliationFixture {
	commissionRepo := newFakeCommissionRepo()
	lotRepo := newFakeLotRepo()
	auditRepo := newFakeAuditRepo()
	svc := NewReconciliationService(commissionRepo, lotRepo, auditRepo, newTestLogger())
	return &reconciliationFixture{svc: svc, commissionRepo: commissionRepo, lotRepo: lotRepo, auditRepo: auditRepo}
}

// seedPrelevee stores a collected entry stamped at the given collection date.
func (f *reconciliationFixture) seedPrelevee(t *testing.T, montant float64, datePrelevement time.Time) *models.CommissionEntry {
	t.Helper()

	entry := &models.CommissionEntry{
		ReservationID:        primitive.NewObjectID(),
		PaymentID:            primitive.NewObjectID(),
		ConducteurID:         primitive.NewObjectID(),
		MontantCourse:        montant * 10,
		TauxCommission:       0.10,
		MontantCommission:    montant,
		MontantNetConducteur: montant * 9,
		Statut:               models.CommissionStatusPrelevee,
		ModePrelevement:      models.CollectionModeCompteRecharge,
		DatePrelevement:      &datePrelevement,
	}
	require.NoError(t, f.commissionRepo.Create(context.Background(), entry))
	return entry
}

func TestGenererLot(t *testing.T) {
	f := newReconciliationFixture()
	debut := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	dans := f.seedPrelevee(t, 500, debut.Add(24*time.Hour))
	aussi := f.seedPrelevee(t, 300, fin.Add(-time.Hour))
	avant := f.seedPrelevee(t, 200, debut.Add(-time.Hour))
	apres := f.seedPrelevee(t, 100, fin)

	acteurID := primitive.NewObjectID()
	lot, err := f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: debut, DateFin: fin, ActeurID: acteurID})
	require.NoError(t, err)

	assert.Equal(t, int64(2), lot.NombreEntrees)
	assert.Equal(t, 800.0, lot.MontantTotal)
	assert.Equal(t, acteurID, lot.GenereParID)
	assert.True(t, strings.HasPrefix(lot.NumeroLot, "LOT-"))

	// Claimed entries are stamped, the out-of-window ones untouched.
	assert.True(t, dans.Reconcilie)
	assert.True(t, aussi.Reconcilie)
	assert.Equal(t, lot.NumeroLot, dans.NumeroLot)
	require.NotNil(t, dans.DateReconciliation)
	assert.False(t, avant.Reconcilie)
	assert.False(t, apres.Reconcilie)

	saved, err := f.lotRepo.GetByNumero(context.Background(), lot.NumeroLot)
	require.NoError(t, err)
	assert.Equal(t, lot.NumeroLot, saved.NumeroLot)
}

func TestGenererLotRejoueNeRecompteRien(t *testing.T) {
	f := newReconciliationFixture()
	debut := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	f.seedPrelevee(t, 500, debut.Add(24*time.Hour))

	_, err := f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: debut, DateFin: fin})
	require.NoError(t, err)

	// The same window a second time finds nothing left to claim.
	_, err = f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: debut, DateFin: fin})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenererLotIgnoreLesEchecsEtRemboursements(t *testing.T) {
	f := newReconciliationFixture()
	debut := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	echec := f.seedPrelevee(t, 500, debut.Add(24*time.Hour))
	echec.Statut = models.CommissionStatusEchec
	remboursee := f.seedPrelevee(t, 300, debut.Add(24*time.Hour))
	remboursee.Statut = models.CommissionStatusRemboursee

	_, err := f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: debut, DateFin: fin})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenererLotInclutLesExonerations(t *testing.T) {
	f := newReconciliationFixture()
	debut := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// A waived entry counts as collected and reaches the lot even though
	// no money moved.
	exoneree := f.seedPrelevee(t, 500, debut.Add(24*time.Hour))
	exoneree.Statut = models.CommissionStatusEchec
	require.NoError(t, exoneree.Exonerer("geste commercial"))
	dans := debut.Add(24 * time.Hour)
	exoneree.DatePrelevement = &dans

	lot, err := f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: debut, DateFin: fin})
	require.NoError(t, err)
	assert.Equal(t, int64(1), lot.NombreEntrees)
	assert.Equal(t, 500.0, lot.MontantTotal)
	assert.True(t, exoneree.Reconcilie)
}

func TestGenererLotPeriodeInvalide(t *testing.T) {
	f := newReconciliationFixture()
	jour := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: jour, DateFin: jour})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetLot(t *testing.T) {
	f := newReconciliationFixture()
	debut := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	f.seedPrelevee(t, 500, debut.Add(24*time.Hour))
	f.seedPrelevee(t, 300, debut.Add(48*time.Hour))

	lot, err := f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: debut, DateFin: fin})
	require.NoError(t, err)

	saved, entries, err := f.svc.GetLot(context.Background(), lot.NumeroLot)
	require.NoError(t, err)
	assert.Equal(t, lot.NumeroLot, saved.NumeroLot)
	assert.Len(t, entries, 2)

	_, _, err = f.svc.GetLot(context.Background(), "LOT-INCONNU")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExporterLotCSV(t *testing.T) {
	f := newReconciliationFixture()
	debut := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	entry := f.seedPrelevee(t, 500, debut.Add(24*time.Hour))

	lot, err := f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: debut, DateFin: fin})
	require.NoError(t, err)

	contenu, err := f.svc.ExporterLotCSV(context.Background(), lot.NumeroLot)
	require.NoError(t, err)

	lignes := strings.Split(strings.TrimSpace(string(contenu)), "\n")
	require.Len(t, lignes, 2)
	assert.Contains(t, lignes[0], "montant_commission")
	assert.Contains(t, lignes[1], entry.PaymentID.Hex())
	assert.Contains(t, lignes[1], "500")
}

func TestExporterLotPDF(t *testing.T) {
	f := newReconciliationFixture()
	debut := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	f.seedPrelevee(t, 500, debut.Add(24*time.Hour))

	lot, err := f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: debut, DateFin: fin})
	require.NoError(t, err)

	contenu, err := f.svc.ExporterLotPDF(context.Background(), lot.NumeroLot)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(contenu), "%PDF"))
}

func TestGenererLotEcritLAudit(t *testing.T) {
	f := newReconciliationFixture()
	debut := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	f.seedPrelevee(t, 500, debut.Add(24*time.Hour))

	acteurID := primitive.NewObjectID()
	lot, err := f.svc.GenererLot(context.Background(), &GenererLotRequest{DateDebut: debut, DateFin: fin, ActeurID: acteurID})
	require.NoError(t, err)

	require.Len(t, f.auditRepo.logs, 1)
	auditLog := f.auditRepo.logs[0]
	assert.Equal(t, models.AuditActionReconciliation, auditLog.Action)
	assert.Equal(t, lot.NumeroLot, auditLog.ResourceID)
	assert.Equal(t, acteurID, auditLog.ActeurID)
}
