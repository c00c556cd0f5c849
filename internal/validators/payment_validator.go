package validators

import (
	"fmt"

	"terangaride/internal/models"
	"terangaride/internal/services"
)

// ValidateInitierPaiement applies the structural rules plus the cross-field
// ones: a mobile money charge needs the payer's wallet number.
func ValidateInitierPaiement(request *services.InitierPaiementRequest) error {
	if errs := ValidateStruct(request); len(errs) > 0 {
		return errs
	}

	if request.MethodePaiement.IsMobileMoney() && request.TelephonePayeur == "" {
		return fmt.Errorf("telephone_payeur requis pour %s", request.MethodePaiement)
	}

	return nil
}

func ValidateInitierRecharge(request *services.InitierRechargeRequest) error {
	if errs := ValidateStruct(request); len(errs) > 0 {
		return errs
	}

	if !request.MethodePaiement.IsMobileMoney() {
		return fmt.Errorf("methode %s non autorisee pour une recharge", request.MethodePaiement)
	}

	return nil
}

func ValidateCallback(callback *services.MobileMoneyCallback) error {
	if errs := ValidateStruct(callback); len(errs) > 0 {
		return errs
	}
	return nil
}

func ValidateRemediation(request *services.RemediationRequest) error {
	if errs := ValidateStruct(request); len(errs) > 0 {
		return errs
	}
	return nil
}

func ValidateGenererLot(request *services.GenererLotRequest) error {
	if errs := ValidateStruct(request); len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateStatutCible rejects targets outside the payment state machine
// vocabulary before the service even looks at the edge list.
func ValidateStatutCible(statut models.PaymentStatus) error {
	switch statut {
	case models.PaymentStatusEnAttente, models.PaymentStatusTraite, models.PaymentStatusComplete,
		models.PaymentStatusEchec, models.PaymentStatusAnnule, models.PaymentStatusRembourse:
		return nil
	default:
		return fmt.Errorf("statut %s inconnu", statut)
	}
}
