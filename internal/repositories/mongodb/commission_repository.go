package mongodb

import (
	"context"
	"fmt"
	"time"

	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/services"
	"terangaride/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type commissionRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewCommissionRepository(db *mongo.Database, cache services.CacheService) interfaces.CommissionRepository {
	return &commissionRepository{
		collection: db.Collection("commissions"),
		cache:      cache,
	}
}

func (r *commissionRepository) Create(ctx context.Context, entry *models.CommissionEntry) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("commission entry already exists for reservation %s payment %s: %w",
				entry.ReservationID.Hex(), entry.PaymentID.Hex(), services.ErrDuplicateTransaction)
		}
		return fmt.Errorf("failed to create commission entry: %w", err)
	}

	return nil
}

func (r *commissionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionEntry, error) {
	var entry models.CommissionEntry
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("commission entry %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get commission entry: %w", err)
	}
	return &entry, nil
}

func (r *commissionRepository) GetByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*models.CommissionEntry, error) {
	var entry models.CommissionEntry
	err := r.collection.FindOne(ctx, bson.M{"paymentId": paymentID}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("commission entry for payment %s: %w", paymentID.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get commission entry by payment: %w", err)
	}
	return &entry, nil
}

func (r *commissionRepository) ReplaceDocument(ctx context.Context, entry *models.CommissionEntry) error {
	entry.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry)
	if err != nil {
		return fmt.Errorf("failed to replace commission entry: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("commission entry %s: %w", entry.ID.Hex(), services.ErrNotFound)
	}
	return nil
}

func (r *commissionRepository) GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	return r.list(ctx, bson.M{"conducteurId": conducteurID}, params)
}

func (r *commissionRepository) GetByStatus(ctx context.Context, status models.CommissionStatus, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	return r.list(ctx, bson.M{"statutCommission": status}, params)
}

func (r *commissionRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.CommissionEntry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get commission entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.CommissionEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode commission entries: %w", err)
	}
	return entries, nil
}

func (r *commissionRepository) GetEchecs(ctx context.Context, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	filter := bson.M{
		"statutCommission": models.CommissionStatusEchec,
		"reconcilie":       false,
	}
	return r.list(ctx, filter, params)
}

// AssignerLot stamps every collected, unreconciled entry in the window with
// the lot number. The filter carries reconcilie=false, so a rerun over the
// same window claims nothing and existing lot membership is never rewritten.
func (r *commissionRepository) AssignerLot(ctx context.Context, numeroLot string, dateDebut, dateFin time.Time) (int64, float64, error) {
	filter := bson.M{
		"statutCommission": models.CommissionStatusPrelevee,
		"reconcilie":       false,
		"datePrelevement":  bson.M{"$gte": dateDebut, "$lt": dateFin},
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"reconcilie":         true,
		"numeroLot":          numeroLot,
		"dateReconciliation": now,
		"updatedAt":          now,
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to assign reconciliation lot: %w", err)
	}

	if result.ModifiedCount == 0 {
		return 0, 0, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"numeroLot": numeroLot}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"montant": bson.M{"$sum": "$montantCommission"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return result.ModifiedCount, 0, fmt.Errorf("failed to total reconciliation lot: %w", err)
	}
	defer cursor.Close(ctx)

	var totals []struct {
		Montant float64 `bson:"montant"`
	}
	if err := cursor.All(ctx, &totals); err != nil {
		return result.ModifiedCount, 0, fmt.Errorf("failed to decode lot total: %w", err)
	}

	montantTotal := 0.0
	if len(totals) > 0 {
		montantTotal = totals[0].Montant
	}

	return result.ModifiedCount, montantTotal, nil
}

func (r *commissionRepository) GetByLot(ctx context.Context, numeroLot string) ([]*models.CommissionEntry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"numeroLot": numeroLot})
	if err != nil {
		return nil, fmt.Errorf("failed to get lot entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.CommissionEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode lot entries: %w", err)
	}
	return entries, nil
}

func (r *commissionRepository) GetStats(ctx context.Context, startDate, endDate time.Time) (*models.CommissionStats, error) {
	rangeFilter := bson.M{"createdAt": bson.M{"$gte": startDate, "$lt": endDate}}

	stats := &models.CommissionStats{DateDebut: startDate, DateFin: endDate}

	counts := []struct {
		statut models.CommissionStatus
		dest   *int64
	}{
		{models.CommissionStatusPrelevee, &stats.NombrePrelevees},
		{models.CommissionStatusEchec, &stats.NombreEchecs},
		{models.CommissionStatusRemboursee, &stats.NombreRemboursees},
	}
	var err error
	for _, c := range counts {
		filter := bson.M{"createdAt": rangeFilter["createdAt"], "statutCommission": c.statut}
		if *c.dest, err = r.collection.CountDocuments(ctx, filter); err != nil {
			return nil, fmt.Errorf("failed to count commission entries: %w", err)
		}
	}

	sums := []struct {
		statut models.CommissionStatus
		dest   *float64
	}{
		{models.CommissionStatusPrelevee, &stats.MontantTotalPreleve},
		{models.CommissionStatusRemboursee, &stats.MontantTotalRembourse},
	}
	for _, s := range sums {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"createdAt":        rangeFilter["createdAt"],
				"statutCommission": s.statut,
			}}},
			{{Key: "$group", Value: bson.M{
				"_id":     nil,
				"montant": bson.M{"$sum": "$montantCommission"},
			}}},
		}

		cursor, err := r.collection.Aggregate(ctx, pipeline)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate commission totals: %w", err)
		}

		var totals []struct {
			Montant float64 `bson:"montant"`
		}
		if err := cursor.All(ctx, &totals); err != nil {
			cursor.Close(ctx)
			return nil, fmt.Errorf("failed to decode commission totals: %w", err)
		}
		cursor.Close(ctx)

		if len(totals) > 0 {
			*s.dest = totals[0].Montant
		}
	}

	modePipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"createdAt":        rangeFilter["createdAt"],
			"statutCommission": models.CommissionStatusPrelevee,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$modePrelevement",
			"nombre":  bson.M{"$sum": 1},
			"montant": bson.M{"$sum": "$montantCommission"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, modePipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate commission modes: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &stats.ParMode); err != nil {
		return nil, fmt.Errorf("failed to decode commission modes: %w", err)
	}

	return stats, nil
}

func (r *commissionRepository) list(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count commission entries: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list commission entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.CommissionEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("failed to decode commission entries: %w", err)
	}

	return entries, total, nil
}
