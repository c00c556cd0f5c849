package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	letterBytes  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberBytes  = "0123456789"
	alphanumeric = letterBytes + numberBytes
)

func GenerateRandomString(length int) string {
	return generateRandom(length, alphanumeric)
}

func GenerateRandomNumericString(length int) string {
	return generateRandom(length, numberBytes)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}

func SecureRandomInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

// GeneratePaymentReference builds the unique human-facing reference of a
// ride charge, e.g. "PAY-20260901-4F2K8ZQ1".
func GeneratePaymentReference() string {
	return fmt.Sprintf("PAY-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(GenerateRandomString(8)))
}

// GenerateRechargeReference builds the unique reference of a balance top-up.
func GenerateRechargeReference() string {
	return fmt.Sprintf("RCH-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(GenerateRandomString(8)))
}

// GenerateLotNumber builds an immutable reconciliation lot identifier.
func GenerateLotNumber() string {
	return fmt.Sprintf("%s-%s-%s", PrefixeNumeroLot, time.Now().UTC().Format("20060102"), strings.Split(uuid.NewString(), "-")[0])
}

// GenerateIdempotencyKey is used for provider-facing calls that must be
// retried safely.
func GenerateIdempotencyKey() string {
	return uuid.NewString()
}
