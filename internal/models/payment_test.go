package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentTransitions(t *testing.T) {
	allowed := map[string]bool{
		"EN_ATTENTE->TRAITE":   true,
		"EN_ATTENTE->COMPLETE": true,
		"EN_ATTENTE->ECHEC":    true,
		"EN_ATTENTE->ANNULE":   true,
		"TRAITE->COMPLETE":     true,
		"TRAITE->ECHEC":        true,
		"TRAITE->ANNULE":       true,
		"COMPLETE->REMBOURSE":  true,
	}

	statuses := []PaymentStatus{
		PaymentStatusEnAttente, PaymentStatusTraite, PaymentStatusComplete,
		PaymentStatusEchec, PaymentStatusAnnule, PaymentStatusRembourse,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			payment := &Payment{Statut: from}
			edge := fmt.Sprintf("%s->%s", from, to)
			assert.Equal(t, allowed[edge], payment.CanTransition(to), edge)
		}
	}
}

func TestPaymentIsTerminal(t *testing.T) {
	for _, status := range []PaymentStatus{PaymentStatusEchec, PaymentStatusAnnule, PaymentStatusRembourse} {
		payment := &Payment{Statut: status}
		assert.True(t, payment.IsTerminal(), status)
	}
	for _, status := range []PaymentStatus{PaymentStatusEnAttente, PaymentStatusTraite, PaymentStatusComplete} {
		payment := &Payment{Statut: status}
		assert.False(t, payment.IsTerminal(), status)
	}
}

func TestAppendStatusChange(t *testing.T) {
	payment := &Payment{Statut: PaymentStatusEnAttente}

	payment.AppendStatusChange(PaymentStatusComplete, "system", "callback operateur")
	assert.Equal(t, PaymentStatusComplete, payment.Statut)
	require.Len(t, payment.HistoriqueStatuts, 1)
	assert.Equal(t, PaymentStatusComplete, payment.HistoriqueStatuts[0].Statut)
	assert.Equal(t, "system", payment.HistoriqueStatuts[0].Acteur)
	require.NotNil(t, payment.DateCompletion)
	assert.Nil(t, payment.DateAnnulation)

	payment.AppendStatusChange(PaymentStatusRembourse, "admin", "litige")
	require.Len(t, payment.HistoriqueStatuts, 2)
	require.NotNil(t, payment.DateRemboursement)
}

func TestAppendLogRespecteLePlafond(t *testing.T) {
	payment := &Payment{}
	for i := 0; i < 25; i++ {
		payment.AppendLog(fmt.Sprintf("evenement %d", i), "", 20)
	}
	require.Len(t, payment.Logs, 20)
	assert.Equal(t, "evenement 24", payment.Logs[19].Message)
	assert.Equal(t, "evenement 5", payment.Logs[0].Message)
}

func TestPaymentValidateInvariants(t *testing.T) {
	payment := &Payment{
		MontantTotal:      5000,
		MontantConducteur: 4500,
		Commission:        CommissionDetails{Taux: 0.10, Montant: 500},
	}
	require.NoError(t, payment.ValidateInvariants())

	// Sum identity broken.
	payment.MontantConducteur = 4400
	assert.Error(t, payment.ValidateInvariants())
	payment.MontantConducteur = 4500

	// Commission not derived from the rate.
	payment.Commission.Montant = 450
	payment.MontantConducteur = 4550
	assert.Error(t, payment.ValidateInvariants())
}

func TestCollectionModeParMethode(t *testing.T) {
	assert.Equal(t, CollectionModeCompteRecharge, PaymentMethodEspeces.CollectionMode())
	for _, method := range MobileMoneyMethods {
		assert.Equal(t, CollectionModePaiementMobile, method.CollectionMode(), method)
	}

	assert.False(t, PaymentMethodEspeces.IsMobileMoney())
	assert.True(t, PaymentMethodWave.IsMobileMoney())
}
