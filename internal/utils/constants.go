package utils

import "time"

// Application Constants
const (
	AppName    = "TerangaRide"
	AppVersion = "1.0.0"

	// Default values
	DefaultLanguage    = "fr"
	DefaultCurrency    = "XOF"
	DefaultCountryCode = "+225"
	DefaultTimeZone    = "Africa/Abidjan"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour

	// Commission
	TauxCommissionDefaut     = 0.10
	MaxTentativesPrelevement = 5
	MaxLogsPrelevement       = 20
	MaxErreursPrelevement    = 10

	// Recharge
	MontantRechargeMinimum    = 1000.0    // FCFA
	MontantRechargeMaximum    = 1000000.0 // FCFA
	PlafondRechargeJournalier = 500000.0  // FCFA
	MaxRechargesParJour       = 5
	TauxFraisRecharge         = 0.02
	FraisRechargeMinimum      = 50.0 // FCFA
	FenetreAnnulationRecharge = 30 * time.Minute
	DelaiExpirationRecharge   = 2 * time.Hour

	// Paiement
	FenetreAnnulationPaiement = 15 * time.Minute

	// Reconciliation
	PrefixeNumeroLot = "LOT"

	// Notification
	NotificationTimeout = 30 * time.Second
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Error Codes (settlement taxonomy, surfaced to callers and the admin UI)
const (
	CodeValidation             = "VALIDATION"
	CodeInsufficientBalance    = "INSUFFICIENT_BALANCE"
	CodeTransitionInvalide     = "TRANSITION_INVALIDE"
	CodeDuplicateTransaction   = "DUPLICATE_TRANSACTION"
	CodeProviderError          = "PROVIDER_ERROR"
	CodeReconciliationConflict = "RECONCILIATION_CONFLICT"
)

// Error Messages
const (
	ErrInvalidToken     = "invalid token"
	ErrTokenExpired     = "token expired"
	ErrInvalidInput     = "invalid input"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrNotFound         = "not found"
	ErrConflict         = "conflict"
	ErrValidationFailed = "validation failed"
	ErrPaymentFailed    = "payment failed"
	ErrDriverNotFound   = "driver not found"
	ErrSoldeInsuffisant = "solde insuffisant"
)

// Cache Keys
const (
	CacheKeyPayment          = "payment:%s"
	CacheKeyPaymentTxn       = "payment_txn_%s"
	CacheKeyCallbackLock     = "mm_callback:%s"
	CacheKeyRechargesJour    = "recharges:%s:%s"      // driverID, yyyy-mm-dd
	CacheKeyRechargesMontant = "recharges_fcfa:%s:%s" // driverID, yyyy-mm-dd
)
