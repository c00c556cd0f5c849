package utils

import (
	"regexp"
	"strings"
)

// Ivorian numbering plan: +225 followed by 10 digits, where the first two
// digits identify the mobile operator.
var phoneRegex = regexp.MustCompile(`^\+225(01|05|07)\d{8}$`)

// Operator prefixes after the country code.
const (
	PrefixeMoov   = "01"
	PrefixeMTN    = "05"
	PrefixeOrange = "07"
)

func NormalizePhone(phone string) string {
	normalized := regexp.MustCompile(`[^\d+]`).ReplaceAllString(phone, "")

	if strings.HasPrefix(normalized, "00225") {
		normalized = "+225" + normalized[5:]
	}
	if strings.HasPrefix(normalized, "225") {
		normalized = "+" + normalized
	}
	if !strings.HasPrefix(normalized, "+") {
		normalized = "+225" + normalized
	}

	return normalized
}

func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

// OperatorPrefix returns the two-digit operator prefix of a normalized
// number, or "" when the number is not a valid mobile number.
func OperatorPrefix(phone string) string {
	normalized := NormalizePhone(phone)
	if !phoneRegex.MatchString(normalized) {
		return ""
	}
	return normalized[4:6]
}
