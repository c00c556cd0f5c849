package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LotReconciliation is the batch record produced when collected commissions
// are closed out for accounting. Member entries carry its NumeroLot.
type LotReconciliation struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	NumeroLot     string             `json:"numero_lot" bson:"numeroLot" validate:"required"`
	DateDebut     time.Time          `json:"date_debut" bson:"dateDebut" validate:"required"`
	DateFin       time.Time          `json:"date_fin" bson:"dateFin" validate:"required"`
	NombreEntrees int64              `json:"nombre_entrees" bson:"nombreEntrees"`
	MontantTotal  float64            `json:"montant_total" bson:"montantTotal"`
	GenereParID   primitive.ObjectID `json:"genere_par_id" bson:"genereParId"`
	CreatedAt     time.Time          `json:"created_at" bson:"createdAt"`
}

// CommissionStats aggregates commission activity over a reporting period.
type CommissionStats struct {
	DateDebut             time.Time      `json:"date_debut" bson:"dateDebut"`
	DateFin               time.Time      `json:"date_fin" bson:"dateFin"`
	NombrePrelevees       int64          `json:"nombre_prelevees" bson:"nombrePrelevees"`
	NombreEchecs          int64          `json:"nombre_echecs" bson:"nombreEchecs"`
	NombreRemboursees     int64          `json:"nombre_remboursees" bson:"nombreRemboursees"`
	MontantTotalPreleve   float64        `json:"montant_total_preleve" bson:"montantTotalPreleve"`
	MontantTotalRembourse float64        `json:"montant_total_rembourse" bson:"montantTotalRembourse"`
	ParMode               []StatsParMode `json:"par_mode" bson:"parMode"`
}

// StatsParMode is the per-collection-mode breakdown inside CommissionStats.
type StatsParMode struct {
	Mode    CollectionMode `json:"mode" bson:"_id"`
	Nombre  int64          `json:"nombre" bson:"nombre"`
	Montant float64        `json:"montant" bson:"montant"`
}

// PaymentStats aggregates payment activity over a reporting period.
type PaymentStats struct {
	DateDebut         time.Time         `json:"date_debut" bson:"dateDebut"`
	DateFin           time.Time         `json:"date_fin" bson:"dateFin"`
	NombreTotal       int64             `json:"nombre_total" bson:"nombreTotal"`
	NombreCompletes   int64             `json:"nombre_completes" bson:"nombreCompletes"`
	NombreEchecs      int64             `json:"nombre_echecs" bson:"nombreEchecs"`
	NombreRembourses  int64             `json:"nombre_rembourses" bson:"nombreRembourses"`
	MontantTotal      float64           `json:"montant_total" bson:"montantTotal"`
	MontantCommission float64           `json:"montant_commission" bson:"montantCommission"`
	ParMethode        []StatsParMethode `json:"par_methode" bson:"parMethode"`
}

// StatsParMethode is the per-payment-method breakdown inside PaymentStats.
type StatsParMethode struct {
	Methode PaymentMethod `json:"methode" bson:"_id"`
	Nombre  int64         `json:"nombre" bson:"nombre"`
	Montant float64       `json:"montant" bson:"montant"`
}
