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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type driverRepository struct {
	collection *mongo.Collection
	cache      services.CacheService
}

func NewDriverRepository(db *mongo.Database, cache services.CacheService) interfaces.DriverRepository {
	return &driverRepository{
		collection: db.Collection("drivers"),
		cache:      cache,
	}
}

func (r *driverRepository) Create(ctx context.Context, driver *models.Driver) error {
	driver.ID = primitive.NewObjectID()
	driver.CreatedAt = time.Now()
	driver.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, driver)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("driver already exists for user %s: %w", driver.UserID.Hex(), services.ErrDuplicateTransaction)
		}
		return fmt.Errorf("failed to create driver: %w", err)
	}
	return nil
}

func (r *driverRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	var driver models.Driver
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return &driver, nil
}

func (r *driverRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error) {
	var driver models.Driver
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("driver for user %s: %w", userID.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get driver by user: %w", err)
	}
	return &driver, nil
}

func (r *driverRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updatedAt"] = time.Now()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", err)
	}
	return nil
}

// Crediter adds to the prepaid balance in a single atomic $inc and returns
// the before/after pair derived from the post-image.
func (r *driverRepository) Crediter(ctx context.Context, id primitive.ObjectID, montant float64) (*interfaces.BalanceChange, error) {
	if montant <= 0 {
		return nil, fmt.Errorf("montant de credit invalide %.2f: %w", montant, services.ErrValidation)
	}

	update := bson.M{
		"$inc": bson.M{"compteRecharge.solde": montant},
		"$set": bson.M{"compteRecharge.estRecharge": true, "updatedAt": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var driver models.Driver
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to credit driver balance: %w", err)
	}

	apres := driver.CompteRecharge.Solde
	return &interfaces.BalanceChange{SoldeAvant: apres - montant, SoldeApres: apres}, nil
}

// Debiter removes from the prepaid balance. The filter guards on a
// sufficient balance so two concurrent debits can never overdraw; the loser
// gets ErrSoldeInsuffisant instead.
func (r *driverRepository) Debiter(ctx context.Context, id primitive.ObjectID, montant float64) (*interfaces.BalanceChange, error) {
	if montant <= 0 {
		return nil, fmt.Errorf("montant de debit invalide %.2f: %w", montant, services.ErrValidation)
	}

	filter := bson.M{
		"_id":                  id,
		"compteRecharge.solde": bson.M{"$gte": montant},
	}
	update := bson.M{
		"$inc": bson.M{"compteRecharge.solde": -montant},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var driver models.Driver
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Either the driver is unknown or the balance guard failed.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("debit de %.0f FCFA refuse pour %s: %w", montant, id.Hex(), services.ErrInsufficientBalance)
		}
		return nil, fmt.Errorf("failed to debit driver balance: %w", err)
	}

	apres := driver.CompteRecharge.Solde
	return &interfaces.BalanceChange{SoldeAvant: apres + montant, SoldeApres: apres}, nil
}

func (r *driverRepository) CrediterGains(ctx context.Context, id primitive.ObjectID, montant float64) error {
	update := bson.M{
		"$inc": bson.M{"compteRecharge.totalGagnes": montant},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to credit driver earnings: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}
	return nil
}

func (r *driverRepository) MettreAJourLimites(ctx context.Context, id primitive.ObjectID, limites *models.RetraitLimites) error {
	update := bson.M{
		"$set": bson.M{
			"compteRecharge.limites": limites,
			"updatedAt":              time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal limits: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}
	return nil
}

func (r *driverRepository) EnregistrerCommission(ctx context.Context, id primitive.ObjectID, record *models.CommissionRecord) error {
	update := bson.M{
		"$push": bson.M{"compteRecharge.historiqueCommissions": record},
		"$inc":  bson.M{"compteRecharge.totalCommissionsPayees": record.Montant},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to record paid commission: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}
	return nil
}

func (r *driverRepository) AjouterRecharge(ctx context.Context, id primitive.ObjectID, recharge *models.Recharge) error {
	update := bson.M{
		"$push": bson.M{"compteRecharge.historiqueRecharges": recharge},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("recharge %s deja enregistree: %w", recharge.ReferenceTransaction, services.ErrDuplicateTransaction)
		}
		return fmt.Errorf("failed to add recharge: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("driver %s: %w", id.Hex(), services.ErrNotFound)
	}
	return nil
}

func (r *driverRepository) GetByRechargeReference(ctx context.Context, reference string) (*models.Driver, error) {
	filter := bson.M{"compteRecharge.historiqueRecharges.referenceTransaction": reference}

	var driver models.Driver
	err := r.collection.FindOne(ctx, filter).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("recharge %s: %w", reference, services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get driver by recharge reference: %w", err)
	}
	return &driver, nil
}

func (r *driverRepository) GetByRechargeTransactionID(ctx context.Context, transactionID string) (*models.Driver, error) {
	filter := bson.M{"compteRecharge.historiqueRecharges.transactionMobileId": transactionID}

	var driver models.Driver
	err := r.collection.FindOne(ctx, filter).Decode(&driver)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("recharge transaction %s: %w", transactionID, services.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get driver by recharge transaction: %w", err)
	}
	return &driver, nil
}

// ConfirmerRecharge finalizes a pending recharge. The $elemMatch filter only
// matches statut=en_attente, so replays and double callbacks match nothing
// and report false.
func (r *driverRepository) ConfirmerRecharge(ctx context.Context, id primitive.ObjectID, reference string, statut models.RechargeStatus, transactionID, erreur string) (bool, error) {
	filter := bson.M{
		"_id": id,
		"compteRecharge.historiqueRecharges": bson.M{"$elemMatch": bson.M{
			"referenceTransaction": reference,
			"statut":               models.RechargeStatusEnAttente,
		}},
	}

	now := time.Now()
	set := bson.M{
		"compteRecharge.historiqueRecharges.$.statut":           statut,
		"compteRecharge.historiqueRecharges.$.dateConfirmation": now,
		"updatedAt": now,
	}
	if transactionID != "" {
		set["compteRecharge.historiqueRecharges.$.transactionMobileId"] = transactionID
	}
	if erreur != "" {
		set["compteRecharge.historiqueRecharges.$.erreur"] = erreur
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to confirm recharge: %w", err)
	}

	return result.MatchedCount > 0, nil
}

func (r *driverRepository) GetRechargesEnAttente(ctx context.Context) ([]*models.Driver, error) {
	filter := bson.M{"compteRecharge.historiqueRecharges.statut": models.RechargeStatusEnAttente}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending recharges: %w", err)
	}
	defer cursor.Close(ctx)

	var drivers []*models.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("failed to decode drivers: %w", err)
	}
	return drivers, nil
}

func (r *driverRepository) GetCandidatsAutoRecharge(ctx context.Context) ([]*models.Driver, error) {
	filter := bson.M{
		"compteRecharge.modeAutoRecharge.active": true,
		"statut": models.DriverStatusActif,
		"$expr": bson.M{"$lte": bson.A{
			"$compteRecharge.solde",
			"$compteRecharge.modeAutoRecharge.seuilAutoRecharge",
		}},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get auto recharge candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var drivers []*models.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("failed to decode drivers: %w", err)
	}
	return drivers, nil
}

func (r *driverRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Driver, int64, error) {
	filter := params.GetSearchFilter([]string{"telephone"})

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count drivers: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list drivers: %w", err)
	}
	defer cursor.Close(ctx)

	var drivers []*models.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, 0, fmt.Errorf("failed to decode drivers: %w", err)
	}

	return drivers, total, nil
}
