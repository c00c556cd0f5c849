package export

import (
	"strings"
	"testing"
	"time"

	"terangaride/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildLotCSV(t *testing.T) {
	now := time.Now()
	lot := &models.LotReconciliation{NumeroLot: "LOT-20260801-abc", NombreEntrees: 1, MontantTotal: 500}
	entries := []models.CommissionEntry{{
		ReservationID:        primitive.NewObjectID(),
		PaymentID:            primitive.NewObjectID(),
		ConducteurID:         primitive.NewObjectID(),
		MontantCourse:        5000,
		TauxCommission:       0.10,
		MontantCommission:    500,
		MontantNetConducteur: 4500,
		ModePrelevement:      models.CollectionModeCompteRecharge,
		DatePrelevement:      &now,
	}}

	contenu, err := BuildLotCSV(lot, entries)
	require.NoError(t, err)

	lignes := strings.Split(strings.TrimSpace(string(contenu)), "\n")
	require.Len(t, lignes, 2)
	assert.Equal(t, "reservation_id,payment_id,conducteur_id,montant_course,taux_commission,montant_commission,montant_net_conducteur,mode_prelevement,date_prelevement", lignes[0])
	assert.Contains(t, lignes[1], entries[0].ConducteurID.Hex())
	assert.Contains(t, lignes[1], "0.1000")
	assert.Contains(t, lignes[1], "compte_recharge")
}

func TestBuildLotPDF(t *testing.T) {
	lot := &models.LotReconciliation{
		NumeroLot: "LOT-20260801-abc",
		DateDebut: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DateFin:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	contenu, err := BuildLotPDF(lot, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(contenu), "%PDF"))
}

func TestBuildStatsPDF(t *testing.T) {
	stats := &models.CommissionStats{
		DateDebut:           time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DateFin:             time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		NombrePrelevees:     12,
		MontantTotalPreleve: 6000,
		ParMode: []models.StatsParMode{
			{Mode: models.CollectionModeCompteRecharge, Nombre: 8, Montant: 4000},
			{Mode: models.CollectionModePaiementMobile, Nombre: 4, Montant: 2000},
		},
	}

	contenu, err := BuildStatsPDF(stats)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(contenu), "%PDF"))
}
