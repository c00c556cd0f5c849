package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundFCFA(t *testing.T) {
	assert.Equal(t, 333.0, RoundFCFA(333.3))
	assert.Equal(t, 334.0, RoundFCFA(333.5))
	assert.Equal(t, 0.0, RoundFCFA(0.4))
	assert.Equal(t, -500.0, RoundFCFA(-500.2))
}

func TestFormatFCFA(t *testing.T) {
	assert.Equal(t, "0 FCFA", FormatFCFA(0))
	assert.Equal(t, "500 FCFA", FormatFCFA(500))
	assert.Equal(t, "12 500 FCFA", FormatFCFA(12500))
	assert.Equal(t, "1 250 000 FCFA", FormatFCFA(1250000))
	assert.Equal(t, "-12 500 FCFA", FormatFCFA(-12500))
	// Rounded before formatting.
	assert.Equal(t, "1 000 FCFA", FormatFCFA(999.6))
}

func TestParseFCFA(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"12500", 12500},
		{"12 500 FCFA", 12500},
		{"12 500 XOF", 12500},
		{" 500 ", 500},
		{"1250,50", 1250.50},
	}
	for _, tc := range cases {
		got, err := ParseFCFA(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseFCFA("douze mille")
	assert.Error(t, err)
}

func TestMontantsEgaux(t *testing.T) {
	assert.True(t, MontantsEgaux(500, 500.009))
	assert.False(t, MontantsEgaux(500, 500.02))
}

func TestCalculerFraisRecharge(t *testing.T) {
	// 2% with a 50 FCFA floor.
	assert.Equal(t, 200.0, CalculerFraisRecharge(10000))
	assert.Equal(t, 50.0, CalculerFraisRecharge(1000))
	assert.Equal(t, 50.0, CalculerFraisRecharge(2500))
	assert.Equal(t, 10000.0, CalculerFraisRecharge(500000))
}
