package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommissionEntry is the settlement record derived from a completed Payment.
// It carries its own collection sub-state and is the unit the reconciliation
// batcher closes out. Exactly one entry exists per (reservation, payment).
type CommissionEntry struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReservationID        primitive.ObjectID `json:"reservation_id" bson:"reservationId" validate:"required"`
	PaymentID            primitive.ObjectID `json:"payment_id" bson:"paymentId" validate:"required"`
	ConducteurID         primitive.ObjectID `json:"conducteur_id" bson:"conducteurId" validate:"required"`
	MontantCourse        float64            `json:"montant_course" bson:"montantCourse" validate:"required"`
	TauxCommission       float64            `json:"taux_commission" bson:"tauxCommission" default:"0.10"`
	MontantCommission    float64            `json:"montant_commission" bson:"montantCommission"`
	MontantNetConducteur float64            `json:"montant_net_conducteur" bson:"montantNetConducteur"`
	Statut               CommissionStatus   `json:"statut_commission" bson:"statutCommission" default:"calculee"`
	ModePrelevement      CollectionMode     `json:"mode_prelevement" bson:"modePrelevement"`
	DetailsPrelevement   CollectionDetails  `json:"details_prelevement" bson:"detailsPrelevement"`
	DatePrelevement      *time.Time         `json:"date_prelevement" bson:"datePrelevement"`
	Reconcilie           bool               `json:"reconcilie" bson:"reconcilie" default:"false"`
	NumeroLot            string             `json:"numero_lot" bson:"numeroLot"`
	DateReconciliation   *time.Time         `json:"date_reconciliation" bson:"dateReconciliation"`
	Logs                 []EventLog         `json:"logs" bson:"logs"`
	Erreurs              []ErrorLog         `json:"erreurs" bson:"erreurs"`
	CreatedAt            time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updatedAt"`
}

type CollectionDetails struct {
	SoldeAvant            float64 `json:"solde_avant" bson:"soldeAvant"`
	SoldeApres            float64 `json:"solde_apres" bson:"soldeApres"`
	FraisSupplementaires  float64 `json:"frais_supplementaires" bson:"fraisSupplementaires"`
	TentativesPrelevement int     `json:"tentatives_prelevement" bson:"tentativesPrelevement"`
	DerniereErreur        string  `json:"derniere_erreur" bson:"derniereErreur"`
	CodeErreur            string  `json:"code_erreur" bson:"codeErreur"`
}

const (
	maxLogsEntry    = 20
	maxErreursEntry = 10
)

// EstTerminal reports whether the entry can no longer be mutated by the
// collection or retry paths.
func (c *CommissionEntry) EstTerminal() bool {
	return c.Statut == CommissionStatusRemboursee || c.Reconcilie
}

func (c *CommissionEntry) appendLog(message, details string) {
	c.Logs = append(c.Logs, EventLog{Date: time.Now(), Message: message, Details: details})
	if len(c.Logs) > maxLogsEntry {
		c.Logs = c.Logs[len(c.Logs)-maxLogsEntry:]
	}
}

func (c *CommissionEntry) appendError(code, message string) {
	c.Erreurs = append(c.Erreurs, ErrorLog{Date: time.Now(), Code: code, Message: message})
	if len(c.Erreurs) > maxErreursEntry {
		c.Erreurs = c.Erreurs[len(c.Erreurs)-maxErreursEntry:]
	}
}

// MarquerCommePrelevee records a successful collection. It is one of the
// three legal transitions on an entry.
func (c *CommissionEntry) MarquerCommePrelevee(details CollectionDetails, reference string) error {
	if c.EstTerminal() {
		return fmt.Errorf("entree %s terminale (statut=%s reconcilie=%t)", c.ID.Hex(), c.Statut, c.Reconcilie)
	}

	now := time.Now()
	tentatives := c.DetailsPrelevement.TentativesPrelevement
	c.DetailsPrelevement = details
	c.DetailsPrelevement.TentativesPrelevement = tentatives
	c.Statut = CommissionStatusPrelevee
	c.DatePrelevement = &now
	c.UpdatedAt = now
	c.appendLog("commission prelevee", reference)
	return nil
}

// MarquerCommeEchec records a failed collection attempt.
func (c *CommissionEntry) MarquerCommeEchec(erreur, code string) error {
	if c.EstTerminal() {
		return fmt.Errorf("entree %s terminale (statut=%s reconcilie=%t)", c.ID.Hex(), c.Statut, c.Reconcilie)
	}

	c.Statut = CommissionStatusEchec
	c.DetailsPrelevement.DerniereErreur = erreur
	c.DetailsPrelevement.CodeErreur = code
	c.UpdatedAt = time.Now()
	c.appendLog("echec prelevement", erreur)
	c.appendError(code, erreur)
	return nil
}

// Rembourser reverses a collected commission. A reconciled entry can never
// be reversed, only reported.
func (c *CommissionEntry) Rembourser(raison string) error {
	if c.Reconcilie {
		return fmt.Errorf("entree %s deja reconciliee dans le lot %s", c.ID.Hex(), c.NumeroLot)
	}
	if c.Statut != CommissionStatusPrelevee {
		return fmt.Errorf("entree %s non prelevee (statut=%s)", c.ID.Hex(), c.Statut)
	}

	c.Statut = CommissionStatusRemboursee
	c.UpdatedAt = time.Now()
	c.appendLog("commission remboursee", raison)
	return nil
}

// Exonerer forgives an uncollected commission as a commercial waiver. The
// entry is marked collected with no balance movement so it still enters a
// reconciliation lot, financially net-zero.
func (c *CommissionEntry) Exonerer(raison string) error {
	if c.EstTerminal() {
		return fmt.Errorf("entree %s terminale (statut=%s reconcilie=%t)", c.ID.Hex(), c.Statut, c.Reconcilie)
	}
	if c.Statut == CommissionStatusPrelevee {
		return fmt.Errorf("entree %s deja prelevee, utiliser le remboursement", c.ID.Hex())
	}

	now := time.Now()
	c.Statut = CommissionStatusPrelevee
	c.DatePrelevement = &now
	c.UpdatedAt = now
	c.appendLog("commission exoneree", raison)
	return nil
}

// IncrementerTentative counts a collection attempt; it applies regardless of
// the attempt outcome.
func (c *CommissionEntry) IncrementerTentative() {
	c.DetailsPrelevement.TentativesPrelevement++
	c.UpdatedAt = time.Now()
}

// TentativesEpuisees reports whether the automatic retry path must reject
// the entry.
func (c *CommissionEntry) TentativesEpuisees(max int) bool {
	return c.DetailsPrelevement.TentativesPrelevement >= max
}

// ValidateInvariants re-checks the settlement identities at write time.
func (c *CommissionEntry) ValidateInvariants() error {
	attendu := math.Round(c.MontantCourse * c.TauxCommission)
	if math.Abs(c.MontantCommission-attendu) > 0.01 {
		return fmt.Errorf("montantCommission %.2f != round(%.2f x %.4f)", c.MontantCommission, c.MontantCourse, c.TauxCommission)
	}

	if math.Abs(c.MontantCourse-(c.MontantNetConducteur+c.MontantCommission)) > 0.01 {
		return fmt.Errorf("montantCourse %.2f != net %.2f + commission %.2f", c.MontantCourse, c.MontantNetConducteur, c.MontantCommission)
	}

	return nil
}
