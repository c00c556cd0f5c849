package services

import (
	"errors"

	"terangaride/internal/utils"
)

// Sentinel errors returned by the service layer. Handlers map them to HTTP
// statuses; callers test them with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("resource not found")
	ErrInsufficientBalance    = errors.New("solde de recharge insuffisant")
	ErrTransitionInvalide     = errors.New("transition de statut invalide")
	ErrDuplicateTransaction   = errors.New("transaction deja traitee")
	ErrProviderError          = errors.New("erreur operateur mobile money")
	ErrReconciliationConflict = errors.New("entree deja reconciliee")
	ErrTentativesEpuisees     = errors.New("nombre maximum de tentatives atteint")
	ErrFenetreExpiree         = errors.New("fenetre d'annulation expiree")
	ErrPlafondDepasse         = errors.New("plafond de recharge depasse")
)

// ErrorCode maps a service error to the stable code carried in API responses
// and error logs.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return utils.CodeValidation
	case errors.Is(err, ErrInsufficientBalance):
		return utils.CodeInsufficientBalance
	case errors.Is(err, ErrTransitionInvalide):
		return utils.CodeTransitionInvalide
	case errors.Is(err, ErrDuplicateTransaction):
		return utils.CodeDuplicateTransaction
	case errors.Is(err, ErrProviderError):
		return utils.CodeProviderError
	case errors.Is(err, ErrReconciliationConflict):
		return utils.CodeReconciliationConflict
	default:
		return "INTERNAL_ERROR"
	}
}
