package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReservationStatus string

const (
	ReservationStatusConfirmee ReservationStatus = "confirmee"
	ReservationStatusEnCours   ReservationStatus = "en_cours"
	ReservationStatusTerminee  ReservationStatus = "terminee"
	ReservationStatusAnnulee   ReservationStatus = "annulee"
)

// Reservation is the read-only view of the trip collaborator: the settlement
// engine only needs the amount, the parties and the payment method agreed
// for the ride.
type Reservation struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PassagerID      primitive.ObjectID `json:"passager_id" bson:"passagerId"`
	ConducteurID    primitive.ObjectID `json:"conducteur_id" bson:"conducteurId"`
	MontantTotal    float64            `json:"montant_total" bson:"montantTotal"`
	MethodePaiement PaymentMethod      `json:"methode_paiement" bson:"methodePaiement"`
	Statut          ReservationStatus  `json:"statut" bson:"statut"`
	CreatedAt       time.Time          `json:"created_at" bson:"createdAt"`
}
