package interfaces

import (
	"context"

	"terangaride/internal/models"
	"terangaride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BalanceChange is the before/after pair returned by atomic balance updates.
type BalanceChange struct {
	SoldeAvant float64
	SoldeApres float64
}

type DriverRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, driver *models.Driver) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// Atomic balance operations. Debiter fails with
	// services.ErrInsufficientBalance when the guarded update matches no
	// document.
	Crediter(ctx context.Context, id primitive.ObjectID, montant float64) (*BalanceChange, error)
	Debiter(ctx context.Context, id primitive.ObjectID, montant float64) (*BalanceChange, error)
	CrediterGains(ctx context.Context, id primitive.ObjectID, montant float64) error
	// MettreAJourLimites persists the withdrawal counters after a payout
	// or a lazy day/month rollover.
	MettreAJourLimites(ctx context.Context, id primitive.ObjectID, limites *models.RetraitLimites) error
	// EnregistrerCommission appends the collection record and bumps the
	// running total in one write.
	EnregistrerCommission(ctx context.Context, id primitive.ObjectID, record *models.CommissionRecord) error

	// Recharge lifecycle
	AjouterRecharge(ctx context.Context, id primitive.ObjectID, recharge *models.Recharge) error
	GetByRechargeReference(ctx context.Context, reference string) (*models.Driver, error)
	GetByRechargeTransactionID(ctx context.Context, transactionID string) (*models.Driver, error)
	// ConfirmerRecharge flips the referenced pending recharge to its final
	// status. It matches only statut=en_attente, so a second confirmation
	// is a no-op (returns false).
	ConfirmerRecharge(ctx context.Context, id primitive.ObjectID, reference string, statut models.RechargeStatus, transactionID, erreur string) (bool, error)
	GetRechargesEnAttente(ctx context.Context) ([]*models.Driver, error)

	// Auto recharge candidates: drivers with auto mode on and a balance at
	// or under their trigger threshold.
	GetCandidatsAutoRecharge(ctx context.Context) ([]*models.Driver, error)

	// Listing
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Driver, int64, error)
}
