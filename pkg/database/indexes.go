package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the settlement engine relies on for
// correctness. Uniqueness here is what makes callback replays and duplicate
// ledger entries a database-level impossibility rather than a best effort.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		"payments": {
			{
				Keys:    bson.D{{Key: "reference", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "transactionMobileId", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"transactionMobileId": bson.M{"$gt": ""}}),
			},
			{Keys: bson.D{{Key: "reservationId", Value: 1}}},
			{Keys: bson.D{{Key: "statutPaiement", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"commissions": {
			{
				Keys:    bson.D{{Key: "reservationId", Value: 1}, {Key: "paymentId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "statutCommission", Value: 1}, {Key: "reconcilie", Value: 1}, {Key: "datePrelevement", Value: 1}}},
			{Keys: bson.D{{Key: "numeroLot", Value: 1}}},
			{Keys: bson.D{{Key: "conducteurId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"drivers": {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "compteRecharge.historiqueRecharges.referenceTransaction", Value: 1}},
				Options: options.Index().SetUnique(true).SetSparse(true),
			},
		},
		"lots_reconciliation": {
			{
				Keys:    bson.D{{Key: "numeroLot", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "dateDebut", Value: 1}, {Key: "dateFin", Value: 1}}},
		},
		"audit_logs": {
			{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "resourceId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := m.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
