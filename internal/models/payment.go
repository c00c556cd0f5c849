package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string
type PaymentMethod string
type CollectionMode string
type CommissionStatus string

const (
	PaymentStatusEnAttente PaymentStatus = "EN_ATTENTE"
	PaymentStatusTraite    PaymentStatus = "TRAITE"
	PaymentStatusComplete  PaymentStatus = "COMPLETE"
	PaymentStatusEchec     PaymentStatus = "ECHEC"
	PaymentStatusAnnule    PaymentStatus = "ANNULE"
	PaymentStatusRembourse PaymentStatus = "REMBOURSE"

	PaymentMethodEspeces     PaymentMethod = "ESPECES"
	PaymentMethodWave        PaymentMethod = "WAVE"
	PaymentMethodOrangeMoney PaymentMethod = "ORANGE_MONEY"
	PaymentMethodMTNMoney    PaymentMethod = "MTN_MONEY"
	PaymentMethodMoovMoney   PaymentMethod = "MOOV_MONEY"

	CollectionModeCompteRecharge CollectionMode = "compte_recharge"
	CollectionModePaiementMobile CollectionMode = "paiement_mobile"

	CommissionStatusCalculee   CommissionStatus = "calculee"
	CommissionStatusPrelevee   CommissionStatus = "prelevee"
	CommissionStatusEnAttente  CommissionStatus = "en_attente"
	CommissionStatusEchec      CommissionStatus = "echec"
	CommissionStatusRemboursee CommissionStatus = "remboursee"
)

// MobileMoneyMethods lists the supported mobile money rails.
var MobileMoneyMethods = []PaymentMethod{
	PaymentMethodWave,
	PaymentMethodOrangeMoney,
	PaymentMethodMTNMoney,
	PaymentMethodMoovMoney,
}

func (m PaymentMethod) IsMobileMoney() bool {
	for _, method := range MobileMoneyMethods {
		if m == method {
			return true
		}
	}
	return false
}

// CollectionMode returns how the platform commission is collected for this
// payment method: cash rides are debited from the driver's prepaid balance,
// mobile money rides are net-deducted by the provider split.
func (m PaymentMethod) CollectionMode() CollectionMode {
	if m.IsMobileMoney() {
		return CollectionModePaiementMobile
	}
	return CollectionModeCompteRecharge
}

type Payment struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Reference           string             `json:"reference" bson:"reference" validate:"required"`
	ReservationID       primitive.ObjectID `json:"reservation_id" bson:"reservationId" validate:"required"`
	PayeurID            primitive.ObjectID `json:"payeur_id" bson:"payeurId" validate:"required"`
	ConducteurID        primitive.ObjectID `json:"conducteur_id" bson:"conducteurId" validate:"required"`
	MethodePaiement     PaymentMethod      `json:"methode_paiement" bson:"methodePaiement" validate:"required"`
	Statut              PaymentStatus      `json:"statut" bson:"statutPaiement" default:"EN_ATTENTE"`
	MontantTotal        float64            `json:"montant_total" bson:"montantTotal" validate:"required"`
	FraisTransaction    float64            `json:"frais_transaction" bson:"fraisTransaction" default:"0"`
	MontantConducteur   float64            `json:"montant_conducteur" bson:"montantConducteur"`
	Commission          CommissionDetails  `json:"commission" bson:"commission"`
	TransactionMobileID string             `json:"transaction_mobile_id" bson:"transactionMobileId"`
	HistoriqueStatuts   []StatusChange     `json:"historique_statuts" bson:"historiqueStatuts"`
	Logs                []EventLog         `json:"logs" bson:"logs"`
	Erreurs             []ErrorLog         `json:"erreurs" bson:"erreurs"`
	DateCompletion      *time.Time         `json:"date_completion" bson:"dateCompletion"`
	DateAnnulation      *time.Time         `json:"date_annulation" bson:"dateAnnulation"`
	DateRemboursement   *time.Time         `json:"date_remboursement" bson:"dateRemboursement"`
	CreatedAt           time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updated_at" bson:"updatedAt"`
}

// CommissionDetails is the commission sub-record embedded in a Payment.
type CommissionDetails struct {
	Taux                 float64          `json:"taux" bson:"taux"`
	Montant              float64          `json:"montant" bson:"montant"`
	ModePrelevement      CollectionMode   `json:"mode_prelevement" bson:"modePrelevement"`
	StatutPrelevement    CommissionStatus `json:"statut_prelevement" bson:"statutPrelevement" default:"calculee"`
	DatePrelevement      *time.Time       `json:"date_prelevement" bson:"datePrelevement"`
	ReferencePrelevement string           `json:"reference_prelevement" bson:"referencePrelevement"`
}

type StatusChange struct {
	Statut PaymentStatus `json:"statut" bson:"statut"`
	Date   time.Time     `json:"date" bson:"date"`
	Acteur string        `json:"acteur" bson:"acteur"`
	Raison string        `json:"raison" bson:"raison"`
}

type EventLog struct {
	Date    time.Time `json:"date" bson:"date"`
	Message string    `json:"message" bson:"message"`
	Details string    `json:"details" bson:"details"`
}

type ErrorLog struct {
	Date    time.Time `json:"date" bson:"date"`
	Code    string    `json:"code" bson:"code"`
	Message string    `json:"message" bson:"message"`
}

// paymentTransitions is the state machine edge list. Any edge absent here is
// rejected with TRANSITION_INVALIDE.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusEnAttente: {PaymentStatusTraite, PaymentStatusComplete, PaymentStatusEchec, PaymentStatusAnnule},
	PaymentStatusTraite:    {PaymentStatusComplete, PaymentStatusEchec, PaymentStatusAnnule},
	PaymentStatusComplete:  {PaymentStatusRembourse},
	PaymentStatusEchec:     {},
	PaymentStatusAnnule:    {},
	PaymentStatusRembourse: {},
}

func (p *Payment) CanTransition(target PaymentStatus) bool {
	for _, allowed := range paymentTransitions[p.Statut] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (p *Payment) IsTerminal() bool {
	return len(paymentTransitions[p.Statut]) == 0
}

// AppendStatusChange records an accepted transition in the append-only
// history. Callers must have validated the transition first.
func (p *Payment) AppendStatusChange(target PaymentStatus, acteur, raison string) {
	now := time.Now()
	p.Statut = target
	p.HistoriqueStatuts = append(p.HistoriqueStatuts, StatusChange{
		Statut: target,
		Date:   now,
		Acteur: acteur,
		Raison: raison,
	})
	p.UpdatedAt = now

	switch target {
	case PaymentStatusComplete:
		p.DateCompletion = &now
	case PaymentStatusAnnule:
		p.DateAnnulation = &now
	case PaymentStatusRembourse:
		p.DateRemboursement = &now
	}
}

// AppendLog appends to the payment audit trail, keeping only the most
// recent entries.
func (p *Payment) AppendLog(message, details string, limite int) {
	p.Logs = append(p.Logs, EventLog{Date: time.Now(), Message: message, Details: details})
	if len(p.Logs) > limite {
		p.Logs = p.Logs[len(p.Logs)-limite:]
	}
}

func (p *Payment) AppendError(code, message string, limite int) {
	p.Erreurs = append(p.Erreurs, ErrorLog{Date: time.Now(), Code: code, Message: message})
	if len(p.Erreurs) > limite {
		p.Erreurs = p.Erreurs[len(p.Erreurs)-limite:]
	}
}

// ValidateInvariants re-checks the financial identities before persistence.
// Persistence never recomputes amounts; a violation here is a programming
// error upstream.
func (p *Payment) ValidateInvariants() error {
	somme := p.MontantConducteur + p.Commission.Montant + p.FraisTransaction
	if math.Abs(p.MontantTotal-somme) > 0.01 {
		return fmt.Errorf("montantTotal %.2f != montantConducteur %.2f + commission %.2f + frais %.2f",
			p.MontantTotal, p.MontantConducteur, p.Commission.Montant, p.FraisTransaction)
	}

	attendu := math.Round(p.MontantTotal * p.Commission.Taux)
	if math.Abs(p.Commission.Montant-attendu) > 0.01 {
		return fmt.Errorf("commission %.2f != round(%.2f x %.4f)", p.Commission.Montant, p.MontantTotal, p.Commission.Taux)
	}

	return nil
}
