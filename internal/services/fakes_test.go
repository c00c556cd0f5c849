package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"terangaride/internal/config"
	"terangaride/internal/models"
	"terangaride/internal/repositories/interfaces"
	"terangaride/internal/utils"
	"terangaride/pkg/cache"
	"terangaride/pkg/logger"
	"terangaride/pkg/mobilemoney"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestLogger() *logger.Logger {
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return log
}

func testCommissionConfig() *config.CommissionConfig {
	return &config.CommissionConfig{
		TauxCommission:            0.10,
		MaxTentativesPrelevement:  5,
		FenetreAnnulationPaiement: 15 * time.Minute,
		MontantRechargeMinimum:    1000,
		MontantRechargeMaximum:    1000000,
		PlafondRechargeJournalier: 500000,
		MaxRechargesParJour:       5,
		TauxFraisRecharge:         0.02,
		FraisRechargeMinimum:      50,
		FenetreAnnulationRecharge: 30 * time.Minute,
		DelaiExpirationRecharge:   2 * time.Hour,
		SeuilMinimumDefaut:        1000,
	}
}

// fakePaymentRepo is an in-memory PaymentRepository. It stores copies the way
// a real document store would, so guarded updates observe persisted state, not
// the caller's in-flight mutations.
type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[primitive.ObjectID]models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[primitive.ObjectID]models.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	for _, existing := range r.payments {
		if existing.Reference == payment.Reference {
			return ErrDuplicateTransaction
		}
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id.Hex(), ErrNotFound)
	}
	return &payment, nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok {
		return fmt.Errorf("payment %s: %w", id.Hex(), ErrNotFound)
	}
	if txnID, ok := updates["transactionMobileId"].(string); ok {
		payment.TransactionMobileID = txnID
	}
	if statut, ok := updates["commission.statutPrelevement"].(models.CommissionStatus); ok {
		payment.Commission.StatutPrelevement = statut
	}
	if mode, ok := updates["commission.modePrelevement"].(models.CollectionMode); ok {
		payment.Commission.ModePrelevement = mode
	}
	if date, ok := updates["commission.datePrelevement"].(*time.Time); ok {
		payment.Commission.DatePrelevement = date
	}
	if reference, ok := updates["commission.referencePrelevement"].(string); ok {
		payment.Commission.ReferencePrelevement = reference
	}
	r.payments[id] = payment
	return nil
}

func (r *fakePaymentRepo) ReplaceDocument(ctx context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; !ok {
		return fmt.Errorf("payment %s: %w", payment.ID.Hex(), ErrNotFound)
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range r.payments {
		if payment.Reference == reference {
			found := payment
			return &found, nil
		}
	}
	return nil, fmt.Errorf("payment %s: %w", reference, ErrNotFound)
}

func (r *fakePaymentRepo) GetByTransactionMobileID(ctx context.Context, transactionID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range r.payments {
		if payment.TransactionMobileID == transactionID {
			found := payment
			return &found, nil
		}
	}
	return nil, fmt.Errorf("transaction %s: %w", transactionID, ErrNotFound)
}

func (r *fakePaymentRepo) GetByReservationID(ctx context.Context, reservationID primitive.ObjectID) ([]*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.ReservationID == reservationID {
			found := payment
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) UpdateStatusGuarded(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[id]
	if !ok || payment.Statut != from {
		return false, nil
	}
	payment.Statut = to
	if historique, ok := updates["historiqueStatuts"].([]models.StatusChange); ok {
		payment.HistoriqueStatuts = historique
	}
	if logs, ok := updates["logs"].([]models.EventLog); ok {
		payment.Logs = logs
	}
	if erreurs, ok := updates["erreurs"].([]models.ErrorLog); ok {
		payment.Erreurs = erreurs
	}
	if date, ok := updates["dateCompletion"].(*time.Time); ok {
		payment.DateCompletion = date
	}
	if date, ok := updates["dateAnnulation"].(*time.Time); ok {
		payment.DateAnnulation = date
	}
	if date, ok := updates["dateRemboursement"].(*time.Time); ok {
		payment.DateRemboursement = date
	}
	r.payments[id] = payment
	return true, nil
}

func (r *fakePaymentRepo) GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.ConducteurID == conducteurID {
			found := payment
			out = append(out, &found)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) GetByPayeurID(ctx context.Context, payeurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.PayeurID == payeurID {
			found := payment
			out = append(out, &found)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) GetByStatus(ctx context.Context, status models.PaymentStatus, params *utils.PaginationParams) ([]*models.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Payment
	for _, payment := range r.payments {
		if payment.Statut == status {
			found := payment
			out = append(out, &found)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) GetStats(ctx context.Context, startDate, endDate time.Time) (*models.PaymentStats, error) {
	return &models.PaymentStats{DateDebut: startDate, DateFin: endDate}, nil
}

// fakeCommissionRepo is an in-memory CommissionRepository.
type fakeCommissionRepo struct {
	mu      sync.Mutex
	entries map[primitive.ObjectID]*models.CommissionEntry
}

func newFakeCommissionRepo() *fakeCommissionRepo {
	return &fakeCommissionRepo{entries: make(map[primitive.ObjectID]*models.CommissionEntry)}
}

func (r *fakeCommissionRepo) Create(ctx context.Context, entry *models.CommissionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.PaymentID == entry.PaymentID && existing.ReservationID == entry.ReservationID {
			return ErrDuplicateTransaction
		}
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeCommissionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("commission %s: %w", id.Hex(), ErrNotFound)
	}
	return entry, nil
}

func (r *fakeCommissionRepo) GetByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*models.CommissionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if entry.PaymentID == paymentID {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("commission for payment %s: %w", paymentID.Hex(), ErrNotFound)
}

func (r *fakeCommissionRepo) ReplaceDocument(ctx context.Context, entry *models.CommissionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.ID]; !ok {
		return fmt.Errorf("commission %s: %w", entry.ID.Hex(), ErrNotFound)
	}
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeCommissionRepo) GetByConducteurID(ctx context.Context, conducteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CommissionEntry
	for _, entry := range r.entries {
		if entry.ConducteurID == conducteurID {
			out = append(out, entry)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCommissionRepo) GetByStatus(ctx context.Context, status models.CommissionStatus, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CommissionEntry
	for _, entry := range r.entries {
		if entry.Statut == status {
			out = append(out, entry)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCommissionRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.CommissionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CommissionEntry
	for _, id := range ids {
		if entry, ok := r.entries[id]; ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeCommissionRepo) GetEchecs(ctx context.Context, params *utils.PaginationParams) ([]*models.CommissionEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CommissionEntry
	for _, entry := range r.entries {
		if entry.Statut == models.CommissionStatusEchec && !entry.Reconcilie {
			out = append(out, entry)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCommissionRepo) AssignerLot(ctx context.Context, numeroLot string, dateDebut, dateFin time.Time) (int64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var nombre int64
	var montant float64
	now := time.Now()
	for _, entry := range r.entries {
		if entry.Statut != models.CommissionStatusPrelevee || entry.Reconcilie || entry.DatePrelevement == nil {
			continue
		}
		if entry.DatePrelevement.Before(dateDebut) || !entry.DatePrelevement.Before(dateFin) {
			continue
		}
		entry.Reconcilie = true
		entry.NumeroLot = numeroLot
		entry.DateReconciliation = &now
		nombre++
		montant += entry.MontantCommission
	}
	return nombre, montant, nil
}

func (r *fakeCommissionRepo) GetByLot(ctx context.Context, numeroLot string) ([]*models.CommissionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CommissionEntry
	for _, entry := range r.entries {
		if entry.NumeroLot == numeroLot {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeCommissionRepo) GetStats(ctx context.Context, startDate, endDate time.Time) (*models.CommissionStats, error) {
	return &models.CommissionStats{DateDebut: startDate, DateFin: endDate}, nil
}

// fakeDriverRepo is an in-memory DriverRepository.
type fakeDriverRepo struct {
	mu      sync.Mutex
	drivers map[primitive.ObjectID]*models.Driver
}

func newFakeDriverRepo() *fakeDriverRepo {
	return &fakeDriverRepo{drivers: make(map[primitive.ObjectID]*models.Driver)}
}

func (r *fakeDriverRepo) Create(ctx context.Context, driver *models.Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if driver.ID.IsZero() {
		driver.ID = primitive.NewObjectID()
	}
	r.drivers[driver.ID] = driver
	return nil
}

func (r *fakeDriverRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", id.Hex(), ErrNotFound)
	}
	return driver, nil
}

func (r *fakeDriverRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, driver := range r.drivers {
		if driver.UserID == userID {
			return driver, nil
		}
	}
	return nil, fmt.Errorf("driver for user %s: %w", userID.Hex(), ErrNotFound)
}

func (r *fakeDriverRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return fmt.Errorf("driver %s: %w", id.Hex(), ErrNotFound)
	}
	if settings, ok := updates["compteRecharge.modeAutoRecharge"].(models.AutoRecharge); ok {
		driver.CompteRecharge.ModeAutoRecharge = settings
	}
	return nil
}

func (r *fakeDriverRepo) Crediter(ctx context.Context, id primitive.ObjectID, montant float64) (*interfaces.BalanceChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", id.Hex(), ErrNotFound)
	}
	avant := driver.CompteRecharge.Solde
	driver.CompteRecharge.Solde += montant
	driver.CompteRecharge.EstRecharge = true
	return &interfaces.BalanceChange{SoldeAvant: avant, SoldeApres: driver.CompteRecharge.Solde}, nil
}

func (r *fakeDriverRepo) Debiter(ctx context.Context, id primitive.ObjectID, montant float64) (*interfaces.BalanceChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", id.Hex(), ErrNotFound)
	}
	if driver.CompteRecharge.Solde < montant {
		return nil, fmt.Errorf("solde %.0f < %.0f: %w", driver.CompteRecharge.Solde, montant, ErrInsufficientBalance)
	}
	avant := driver.CompteRecharge.Solde
	driver.CompteRecharge.Solde -= montant
	return &interfaces.BalanceChange{SoldeAvant: avant, SoldeApres: driver.CompteRecharge.Solde}, nil
}

func (r *fakeDriverRepo) CrediterGains(ctx context.Context, id primitive.ObjectID, montant float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return fmt.Errorf("driver %s: %w", id.Hex(), ErrNotFound)
	}
	driver.CompteRecharge.TotalGagnes += montant
	return nil
}

func (r *fakeDriverRepo) MettreAJourLimites(ctx context.Context, id primitive.ObjectID, limites *models.RetraitLimites) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return fmt.Errorf("driver %s: %w", id.Hex(), ErrNotFound)
	}
	driver.CompteRecharge.Limites = *limites
	return nil
}

func (r *fakeDriverRepo) EnregistrerCommission(ctx context.Context, id primitive.ObjectID, record *models.CommissionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return fmt.Errorf("driver %s: %w", id.Hex(), ErrNotFound)
	}
	driver.CompteRecharge.HistoriqueCommissions = append(driver.CompteRecharge.HistoriqueCommissions, *record)
	driver.CompteRecharge.TotalCommissionsPayees += record.Montant
	return nil
}

func (r *fakeDriverRepo) AjouterRecharge(ctx context.Context, id primitive.ObjectID, recharge *models.Recharge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return fmt.Errorf("driver %s: %w", id.Hex(), ErrNotFound)
	}
	driver.CompteRecharge.HistoriqueRecharges = append(driver.CompteRecharge.HistoriqueRecharges, *recharge)
	return nil
}

func (r *fakeDriverRepo) GetByRechargeReference(ctx context.Context, reference string) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, driver := range r.drivers {
		if driver.CompteRecharge.RechargeParReference(reference) != nil {
			return driver, nil
		}
	}
	return nil, fmt.Errorf("recharge %s: %w", reference, ErrNotFound)
}

func (r *fakeDriverRepo) GetByRechargeTransactionID(ctx context.Context, transactionID string) (*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, driver := range r.drivers {
		for i := range driver.CompteRecharge.HistoriqueRecharges {
			if driver.CompteRecharge.HistoriqueRecharges[i].TransactionMobileID == transactionID {
				return driver, nil
			}
		}
	}
	return nil, fmt.Errorf("recharge transaction %s: %w", transactionID, ErrNotFound)
}

func (r *fakeDriverRepo) ConfirmerRecharge(ctx context.Context, id primitive.ObjectID, reference string, statut models.RechargeStatus, transactionID, erreur string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	driver, ok := r.drivers[id]
	if !ok {
		return false, fmt.Errorf("driver %s: %w", id.Hex(), ErrNotFound)
	}
	recharge := driver.CompteRecharge.RechargeParReference(reference)
	if recharge == nil || recharge.Statut != models.RechargeStatusEnAttente {
		return false, nil
	}
	now := time.Now()
	recharge.Statut = statut
	recharge.Erreur = erreur
	recharge.DateConfirmation = &now
	if transactionID != "" {
		recharge.TransactionMobileID = transactionID
	}
	return true, nil
}

func (r *fakeDriverRepo) GetRechargesEnAttente(ctx context.Context) ([]*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Driver
	for _, driver := range r.drivers {
		for i := range driver.CompteRecharge.HistoriqueRecharges {
			if driver.CompteRecharge.HistoriqueRecharges[i].Statut == models.RechargeStatusEnAttente {
				out = append(out, driver)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeDriverRepo) GetCandidatsAutoRecharge(ctx context.Context) ([]*models.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Driver
	for _, driver := range r.drivers {
		auto := driver.CompteRecharge.ModeAutoRecharge
		if auto.Active && driver.Statut == models.DriverStatusActif && driver.CompteRecharge.Solde <= auto.SeuilAutoRecharge {
			out = append(out, driver)
		}
	}
	return out, nil
}

func (r *fakeDriverRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Driver, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Driver
	for _, driver := range r.drivers {
		out = append(out, driver)
	}
	return out, int64(len(out)), nil
}

// fakeReservationRepo serves a fixed set of reservations.
type fakeReservationRepo struct {
	reservations map[primitive.ObjectID]*models.Reservation
}

func newFakeReservationRepo(reservations ...*models.Reservation) *fakeReservationRepo {
	repo := &fakeReservationRepo{reservations: make(map[primitive.ObjectID]*models.Reservation)}
	for _, reservation := range reservations {
		repo.reservations[reservation.ID] = reservation
	}
	return repo
}

func (r *fakeReservationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Reservation, error) {
	reservation, ok := r.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %s: %w", id.Hex(), ErrNotFound)
	}
	return reservation, nil
}

// fakeLotRepo is an in-memory LotRepository.
type fakeLotRepo struct {
	mu   sync.Mutex
	lots map[string]*models.LotReconciliation
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[string]*models.LotReconciliation)}
}

func (r *fakeLotRepo) Create(ctx context.Context, lot *models.LotReconciliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[lot.NumeroLot]; ok {
		return ErrDuplicateTransaction
	}
	if lot.ID.IsZero() {
		lot.ID = primitive.NewObjectID()
	}
	r.lots[lot.NumeroLot] = lot
	return nil
}

func (r *fakeLotRepo) GetByNumero(ctx context.Context, numeroLot string) (*models.LotReconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[numeroLot]
	if !ok {
		return nil, fmt.Errorf("lot %s: %w", numeroLot, ErrNotFound)
	}
	return lot, nil
}

func (r *fakeLotRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.LotReconciliation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LotReconciliation
	for _, lot := range r.lots {
		out = append(out, lot)
	}
	return out, int64(len(out)), nil
}

// fakeAuditRepo collects audit logs for assertions.
type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if auditLog.ID.IsZero() {
		auditLog.ID = primitive.NewObjectID()
	}
	auditLog.CreatedAt = time.Now()
	r.logs = append(r.logs, auditLog)
	return nil
}

func (r *fakeAuditRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, log := range r.logs {
		if log.ID == id {
			return log, nil
		}
	}
	return nil, fmt.Errorf("audit log %s: %w", id.Hex(), ErrNotFound)
}

func (r *fakeAuditRepo) GetResourceHistory(ctx context.Context, resource, resourceID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, log := range r.logs {
		if log.Resource == resource && log.ResourceID == resourceID {
			out = append(out, log)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) GetByActeurID(ctx context.Context, acteurID primitive.ObjectID, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, log := range r.logs {
		if log.ActeurID == acteurID {
			out = append(out, log)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) GetByAction(ctx context.Context, action models.AuditAction, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, log := range r.logs {
		if log.Action == action {
			out = append(out, log)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) GetByDateRange(ctx context.Context, startDate, endDate time.Time, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, log := range r.logs {
		if !log.CreatedAt.Before(startDate) && log.CreatedAt.Before(endDate) {
			out = append(out, log)
		}
	}
	return out, int64(len(out)), nil
}

// fakeCache is an in-memory CacheService. It keeps raw values and supports
// the counter and lock semantics the services rely on.
type fakeCache struct {
	mu       sync.Mutex
	values   map[string]interface{}
	counters map[string]int64
	floats   map[string]float64
	getErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		values:   make(map[string]interface{}),
		counters: make(map[string]int64),
		floats:   make(map[string]float64),
	}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return c.getErr
	}
	if count, ok := c.counters[key]; ok {
		if p, ok := dest.(*int64); ok {
			*p = count
			return nil
		}
	}
	if total, ok := c.floats[key]; ok {
		if p, ok := dest.(*float64); ok {
			*p = total
			return nil
		}
	}
	if _, ok := c.values[key]; ok {
		return nil
	}
	return fmt.Errorf("cache key %s: %w", key, cache.ErrCacheMiss)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
		delete(c.counters, key)
		delete(c.floats, key)
	}
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok, nil
}

func (c *fakeCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	return true, nil
}

func (c *fakeCache) Increment(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

func (c *fakeCache) IncrementByFloat(ctx context.Context, key string, value float64, expiration time.Duration) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.floats[key] += value
	return c.floats[key], nil
}

func (c *fakeCache) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return time.Hour, nil
}

func (c *fakeCache) CachePayment(ctx context.Context, payment *models.Payment, expiration time.Duration) error {
	return c.Set(ctx, fmt.Sprintf(utils.CacheKeyPayment, payment.ID.Hex()), payment, expiration)
}

func (c *fakeCache) GetCachedPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[fmt.Sprintf(utils.CacheKeyPayment, paymentID)]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, ErrNotFound)
	}
	return value.(*models.Payment), nil
}

func (c *fakeCache) InvalidatePayment(ctx context.Context, paymentID string) error {
	return c.Delete(ctx, fmt.Sprintf(utils.CacheKeyPayment, paymentID))
}

func (c *fakeCache) AcquireCallbackLock(ctx context.Context, transactionID string, expiration time.Duration) (bool, error) {
	return c.SetNX(ctx, fmt.Sprintf(utils.CacheKeyCallbackLock, transactionID), time.Now().Unix(), expiration)
}

func (c *fakeCache) ReleaseCallbackLock(ctx context.Context, transactionID string) error {
	return c.Delete(ctx, fmt.Sprintf(utils.CacheKeyCallbackLock, transactionID))
}

func (c *fakeCache) Ping(ctx context.Context) error {
	return nil
}

// fakeProvider is a scriptable mobile money rail.
type fakeProvider struct {
	name          string
	atomique      bool
	initErr       error
	initStatut    string
	statutVerif   string
	verifErr      error
	refundErr     error
	transactionID string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) InitierPaiement(ctx context.Context, request *mobilemoney.PaymentRequest) (*mobilemoney.PaymentResponse, error) {
	if p.initErr != nil {
		return nil, p.initErr
	}
	statut := p.initStatut
	if statut == "" {
		statut = mobilemoney.StatutPending
	}
	txnID := p.transactionID
	if txnID == "" {
		txnID = "TXN-" + request.Reference
	}
	return &mobilemoney.PaymentResponse{
		TransactionID: txnID,
		Statut:        statut,
		Montant:       request.Montant,
	}, nil
}

func (p *fakeProvider) VerifierStatut(ctx context.Context, transactionID string) (*mobilemoney.StatusResponse, error) {
	if p.verifErr != nil {
		return nil, p.verifErr
	}
	statut := p.statutVerif
	if statut == "" {
		statut = mobilemoney.StatutPending
	}
	return &mobilemoney.StatusResponse{TransactionID: transactionID, Statut: statut}, nil
}

func (p *fakeProvider) Rembourser(ctx context.Context, request *mobilemoney.RefundRequest) (*mobilemoney.RefundResponse, error) {
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	return &mobilemoney.RefundResponse{RefundID: "RF-" + request.TransactionID, Statut: mobilemoney.StatutSuccess, Montant: request.Montant}, nil
}

func (p *fakeProvider) SupporteSplitAtomique() bool { return p.atomique }

// fakeNotifier counts sent notifications.
type fakeNotifier struct {
	mu                sync.Mutex
	paiementsComplete int
	echecsPrelevement int
	remboursements    int
	rechargesOK       int
	rechargesKO       int
	soldesFaibles     int
}

func (n *fakeNotifier) NotifierPaiementComplete(ctx context.Context, payment *models.Payment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paiementsComplete++
	return nil
}

func (n *fakeNotifier) NotifierEchecPrelevement(ctx context.Context, payment *models.Payment, entry *models.CommissionEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.echecsPrelevement++
	return nil
}

func (n *fakeNotifier) NotifierRemboursement(ctx context.Context, payment *models.Payment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.remboursements++
	return nil
}

func (n *fakeNotifier) NotifierRechargeConfirmee(ctx context.Context, driver *models.Driver, recharge *models.Recharge) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rechargesOK++
	return nil
}

func (n *fakeNotifier) NotifierRechargeEchec(ctx context.Context, driver *models.Driver, recharge *models.Recharge) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rechargesKO++
	return nil
}

func (n *fakeNotifier) NotifierSoldeFaible(ctx context.Context, driver *models.Driver) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.soldesFaibles++
	return nil
}
