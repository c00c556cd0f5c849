package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DriverStatus string
type RechargeStatus string

const (
	DriverStatusActif    DriverStatus = "actif"
	DriverStatusInactif  DriverStatus = "inactif"
	DriverStatusSuspendu DriverStatus = "suspendu"

	RechargeStatusEnAttente RechargeStatus = "en_attente"
	RechargeStatusReussi    RechargeStatus = "reussi"
	RechargeStatusEchec     RechargeStatus = "echec"
)

type Driver struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"user_id" bson:"userId" validate:"required"`
	Telephone      string             `json:"telephone" bson:"telephone" validate:"required"`
	Statut         DriverStatus       `json:"statut" bson:"statut" default:"actif"`
	CompteRecharge CompteRecharge     `json:"compte_recharge" bson:"compteRecharge"`
	TotalCourses   int64              `json:"total_courses" bson:"totalCourses" default:"0"`
	Rating         float64            `json:"rating" bson:"rating" default:"0"`
	CreatedAt      time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updatedAt"`
}

// CompteRecharge is the driver's prepaid account: the balance commissions on
// cash rides are debited from, its recharge and commission history, and the
// withdrawal limits.
type CompteRecharge struct {
	Solde                  float64            `json:"solde" bson:"solde" default:"0"`
	EstRecharge            bool               `json:"est_recharge" bson:"estRecharge" default:"false"`
	SeuilMinimum           float64            `json:"seuil_minimum" bson:"seuilMinimum" default:"0"`
	TotalCommissionsPayees float64            `json:"total_commissions_payees" bson:"totalCommissionsPayees" default:"0"`
	TotalGagnes            float64            `json:"total_gagnes" bson:"totalGagnes" default:"0"`
	HistoriqueRecharges    []Recharge         `json:"historique_recharges" bson:"historiqueRecharges"`
	HistoriqueCommissions  []CommissionRecord `json:"historique_commissions" bson:"historiqueCommissions"`
	ModeAutoRecharge       AutoRecharge       `json:"mode_auto_recharge" bson:"modeAutoRecharge"`
	Limites                RetraitLimites     `json:"limites" bson:"limites"`
}

type Recharge struct {
	Montant              float64        `json:"montant" bson:"montant" validate:"required"`
	MethodePaiement      PaymentMethod  `json:"methode_paiement" bson:"methodePaiement" validate:"required"`
	Telephone            string         `json:"telephone" bson:"telephone"`
	ReferenceTransaction string         `json:"reference_transaction" bson:"referenceTransaction" validate:"required"`
	TransactionMobileID  string         `json:"transaction_mobile_id" bson:"transactionMobileId"`
	Statut               RechargeStatus `json:"statut" bson:"statut" default:"en_attente"`
	FraisTransaction     float64        `json:"frais_transaction" bson:"fraisTransaction"`
	Erreur               string         `json:"erreur" bson:"erreur"`
	DateCreation         time.Time      `json:"date_creation" bson:"dateCreation"`
	DateConfirmation     *time.Time     `json:"date_confirmation" bson:"dateConfirmation"`
}

type CommissionRecord struct {
	PaymentID primitive.ObjectID `json:"payment_id" bson:"paymentId"`
	Montant   float64            `json:"montant" bson:"montant"`
	Date      time.Time          `json:"date" bson:"date"`
}

type AutoRecharge struct {
	Active              bool          `json:"active" bson:"active" default:"false"`
	SeuilAutoRecharge   float64       `json:"seuil_auto_recharge" bson:"seuilAutoRecharge"`
	MontantAutoRecharge float64       `json:"montant_auto_recharge" bson:"montantAutoRecharge"`
	MethodePaiementAuto PaymentMethod `json:"methode_paiement_auto" bson:"methodePaiementAuto"`
}

type RetraitLimites struct {
	RetraitJournalier       float64    `json:"retrait_journalier" bson:"retraitJournalier"`
	RetraitMensuel          float64    `json:"retrait_mensuel" bson:"retraitMensuel"`
	MontantRetireAujourdhui float64    `json:"montant_retire_aujourdhui" bson:"montantRetireAujourdhui"`
	MontantRetireCeMois     float64    `json:"montant_retire_ce_mois" bson:"montantRetireCeMois"`
	DernierRetraitLe        *time.Time `json:"dernier_retrait_le" bson:"dernierRetraitLe"`
}

// PeutAccepterCourse reports whether the driver may accept a ride under the
// requested payment mode: cash rides require a provisioned prepaid account,
// mobile money rides are always permitted.
func (d *Driver) PeutAccepterCourse(methode PaymentMethod) bool {
	if methode.IsMobileMoney() {
		return true
	}
	return d.CompteRecharge.EstRecharge
}

// ResetSiNecessaire lazily zeroes the daily/monthly withdrawal counters when
// the calendar day or month has rolled over since the last withdrawal. It
// returns true when a counter changed and the document needs saving.
func (l *RetraitLimites) ResetSiNecessaire(now time.Time) bool {
	if l.DernierRetraitLe == nil {
		return false
	}

	dernier := *l.DernierRetraitLe
	changed := false

	if now.Year() != dernier.Year() || now.YearDay() != dernier.YearDay() {
		if l.MontantRetireAujourdhui != 0 {
			l.MontantRetireAujourdhui = 0
			changed = true
		}
	}

	if now.Year() != dernier.Year() || now.Month() != dernier.Month() {
		if l.MontantRetireCeMois != 0 {
			l.MontantRetireCeMois = 0
			changed = true
		}
	}

	return changed
}

// PeutRetirer checks a payout request against the (already reset) limits.
func (l *RetraitLimites) PeutRetirer(montant float64) bool {
	if l.RetraitJournalier > 0 && l.MontantRetireAujourdhui+montant > l.RetraitJournalier {
		return false
	}
	if l.RetraitMensuel > 0 && l.MontantRetireCeMois+montant > l.RetraitMensuel {
		return false
	}
	return true
}

// RechargeParReference looks up a top-up entry in the account history.
func (c *CompteRecharge) RechargeParReference(reference string) *Recharge {
	for i := range c.HistoriqueRecharges {
		if c.HistoriqueRecharges[i].ReferenceTransaction == reference {
			return &c.HistoriqueRecharges[i]
		}
	}
	return nil
}
