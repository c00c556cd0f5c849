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

type paymentRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewPaymentRepository(db *mongo.Database, cache services.CacheService) interfaces.PaymentRepository {
	return &paymentRepository{
		collection: db.Collection("payments"),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = primitive.NewObjectID()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("payment already exists for reference %s: %w", payment.Reference, services.ErrDuplicateTransaction)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	// Try cache first; terminal payments are the hot read path.
	if r.cache != nil {
		if payment, err := r.cache.GetCachedPayment(ctx, id.Hex()); err == nil {
			return payment, nil
		}
	}

	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payment %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	if r.cache != nil && payment.IsTerminal() {
		_ = r.cache.CachePayment(ctx, &payment, 30*time.Minute)
	}

	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updatedAt"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	r.invalidate(ctx, id)
	return nil
}

// ReplaceDocument persists a fully mutated in-memory payment, history and
// logs included.
func (r *paymentRepository) ReplaceDocument(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = time.Now()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": payment.ID}, payment)
	if err != nil {
		return fmt.Errorf("failed to replace payment: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("payment %s: %w", payment.ID.Hex(), services.ErrNotFound)
	}

	r.invalidate(ctx, payment.ID)
	return nil
}

// Lookup operations
func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"reference": reference}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payment with reference %s: %w", reference, services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment by reference: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) GetByTransactionMobileID(ctx context.Context, transactionID string) (*models.Payment, error) {
	cacheKey := fmt.Sprintf(utils.CacheKeyPaymentTxn, transactionID)
	if r.cache != nil {
		var payment models.Payment
		if err := r.cache.Get(ctx, cacheKey, &payment); err == nil {
			return &payment, nil
		}
	}

	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"transactionMobileId": transactionID}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payment with mobile transaction %s: %w", transactionID, services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment by mobile transaction: %w", err)
	}

	if r.cache != nil && payment.IsTerminal() {
		_ = r.cache.Set(ctx, cacheKey, payment, 30*time.Minute)
	}

	return &payment, nil
}

func (r *paymentRepository) GetByReservationID(ctx context.Context, reservationID primitive.ObjectID) ([]*models.Payment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"reservationId": reservationID})
	if err != nil {
		return nil, fmt.Errorf("failed to get payments by reservation: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

// UpdateStatusGuarded applies a state-machine transition as a single
// conditional write. A false return means the payment was no longer in the
// expected source status.
func (r *paymentRepository) UpdateStatusGuarded(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["statutPaiement"] = to
	updates["updatedAt"] = time.Now()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "statutPaiement": from},
		bson.M{"$set": updates},
	)
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}

	if result.MatchedCount == 0 {
		return false, nil
	}

	r.invalidate(ctx, id)
	return true, nil
}

// Listing
func (r *paymentRepository) GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	return r.list(ctx, bson.M{"conducteurId": conducteurID}, params)
}

func (r *paymentRepository) GetByPayeurID(ctx context.Context, payeurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	return r.list(ctx, bson.M{"payeurId": payeurID}, params)
}

func (r *paymentRepository) GetByStatus(ctx context.Context, status models.PaymentStatus, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	return r.list(ctx, bson.M{"statutPaiement": status}, params)
}

func (r *paymentRepository) list(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, 0, fmt.Errorf("failed to decode payments: %w", err)
	}

	return payments, total, nil
}

// Reporting
func (r *paymentRepository) GetStats(ctx context.Context, startDate, endDate time.Time) (*models.PaymentStats, error) {
	rangeFilter := bson.M{"createdAt": bson.M{"$gte": startDate, "$lt": endDate}}

	stats := &models.PaymentStats{DateDebut: startDate, DateFin: endDate}

	var err error
	if stats.NombreTotal, err = r.collection.CountDocuments(ctx, rangeFilter); err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	counts := []struct {
		statut models.PaymentStatus
		dest   *int64
	}{
		{models.PaymentStatusComplete, &stats.NombreCompletes},
		{models.PaymentStatusEchec, &stats.NombreEchecs},
		{models.PaymentStatusRembourse, &stats.NombreRembourses},
	}
	for _, c := range counts {
		filter := bson.M{"createdAt": rangeFilter["createdAt"], "statutPaiement": c.statut}
		if *c.dest, err = r.collection.CountDocuments(ctx, filter); err != nil {
			return nil, fmt.Errorf("failed to count payments by status: %w", err)
		}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"createdAt":      rangeFilter["createdAt"],
			"statutPaiement": models.PaymentStatusComplete,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$methodePaiement",
			"nombre":  bson.M{"$sum": 1},
			"montant": bson.M{"$sum": "$montantTotal"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payment stats: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &stats.ParMethode); err != nil {
		return nil, fmt.Errorf("failed to decode payment stats: %w", err)
	}

	for _, parMethode := range stats.ParMethode {
		stats.MontantTotal += parMethode.Montant
	}

	commissionPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"createdAt":      rangeFilter["createdAt"],
			"statutPaiement": models.PaymentStatusComplete,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"montant": bson.M{"$sum": "$commission.montant"},
		}}},
	}

	commissionCursor, err := r.collection.Aggregate(ctx, commissionPipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate commission total: %w", err)
	}
	defer commissionCursor.Close(ctx)

	var totals []struct {
		Montant float64 `bson:"montant"`
	}
	if err := commissionCursor.All(ctx, &totals); err != nil {
		return nil, fmt.Errorf("failed to decode commission total: %w", err)
	}
	if len(totals) > 0 {
		stats.MontantCommission = totals[0].Montant
	}

	return stats, nil
}

func (r *paymentRepository) invalidate(ctx context.Context, id primitive.ObjectID) {
	if r.cache != nil {
		_ = r.cache.InvalidatePayment(ctx, id.Hex())
	}
}
