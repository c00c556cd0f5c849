package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeutAccepterCourse(t *testing.T) {
	driver := &Driver{}

	// Mobile money splits at the source, no prepaid account needed.
	assert.True(t, driver.PeutAccepterCourse(PaymentMethodWave))
	assert.True(t, driver.PeutAccepterCourse(PaymentMethodMTNMoney))

	// Cash settles its commission from the prepaid balance.
	assert.False(t, driver.PeutAccepterCourse(PaymentMethodEspeces))

	driver.CompteRecharge.EstRecharge = true
	assert.True(t, driver.PeutAccepterCourse(PaymentMethodEspeces))
}

func TestResetSiNecessaire(t *testing.T) {
	dernier := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	t.Run("meme jour", func(t *testing.T) {
		l := RetraitLimites{MontantRetireAujourdhui: 5000, MontantRetireCeMois: 20000, DernierRetraitLe: &dernier}
		assert.False(t, l.ResetSiNecessaire(time.Date(2026, 8, 15, 23, 0, 0, 0, time.UTC)))
		assert.Equal(t, 5000.0, l.MontantRetireAujourdhui)
		assert.Equal(t, 20000.0, l.MontantRetireCeMois)
	})

	t.Run("jour suivant", func(t *testing.T) {
		l := RetraitLimites{MontantRetireAujourdhui: 5000, MontantRetireCeMois: 20000, DernierRetraitLe: &dernier}
		assert.True(t, l.ResetSiNecessaire(time.Date(2026, 8, 16, 0, 30, 0, 0, time.UTC)))
		assert.Zero(t, l.MontantRetireAujourdhui)
		assert.Equal(t, 20000.0, l.MontantRetireCeMois)
	})

	t.Run("mois suivant", func(t *testing.T) {
		l := RetraitLimites{MontantRetireAujourdhui: 5000, MontantRetireCeMois: 20000, DernierRetraitLe: &dernier}
		assert.True(t, l.ResetSiNecessaire(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)))
		assert.Zero(t, l.MontantRetireAujourdhui)
		assert.Zero(t, l.MontantRetireCeMois)
	})

	t.Run("jamais retire", func(t *testing.T) {
		l := RetraitLimites{}
		assert.False(t, l.ResetSiNecessaire(time.Now()))
	})
}

func TestPeutRetirer(t *testing.T) {
	l := RetraitLimites{
		RetraitJournalier:       50000,
		RetraitMensuel:          200000,
		MontantRetireAujourdhui: 30000,
		MontantRetireCeMois:     150000,
	}

	assert.True(t, l.PeutRetirer(20000))
	assert.False(t, l.PeutRetirer(20001))
	assert.False(t, l.PeutRetirer(60000))

	// A zero limit means unlimited on that axis.
	libre := RetraitLimites{}
	assert.True(t, libre.PeutRetirer(1000000))
}
