package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The platform settles a single currency: the West African CFA franc (XOF).
// FCFA has no minor unit, every amount is rounded to the whole franc.

const CurrencyCode = "XOF"
const CurrencySymbol = "FCFA"

// RoundFCFA rounds an amount to the nearest whole franc.
func RoundFCFA(amount float64) float64 {
	return math.Round(amount)
}

// FormatFCFA renders an amount with thousands separators, e.g. "12 500 FCFA".
func FormatFCFA(amount float64) string {
	rounded := int64(RoundFCFA(amount))

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	digits := strconv.FormatInt(rounded, 10)
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)

	formatted := strings.Join(parts, " ")
	if negative {
		formatted = "-" + formatted
	}
	return formatted + " " + CurrencySymbol
}

// ParseFCFA parses a user-supplied amount string, tolerating separators and
// the currency suffix.
func ParseFCFA(amountStr string) (float64, error) {
	cleaned := strings.TrimSpace(amountStr)
	cleaned = strings.ReplaceAll(cleaned, CurrencySymbol, "")
	cleaned = strings.ReplaceAll(cleaned, "XOF", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid FCFA amount %q: %w", amountStr, err)
	}
	return amount, nil
}

// MontantsEgaux compares two amounts within the financial tolerance used by
// the settlement invariants.
func MontantsEgaux(a, b float64) bool {
	return math.Abs(a-b) <= 0.01
}

// CalculerFraisRecharge applies the mobile money top-up fee schedule:
// 2% of the amount with a floor of 50 FCFA.
func CalculerFraisRecharge(montant float64) float64 {
	frais := RoundFCFA(montant * TauxFraisRecharge)
	if frais < FraisRechargeMinimum {
		frais = FraisRechargeMinimum
	}
	return frais
}
