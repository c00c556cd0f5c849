package mobilemoney

import (
	"context"
	"errors"
)

// Provider is one mobile money rail (Wave, Orange Money, MTN MoMo, Moov
// Money). All amounts are whole FCFA.
type Provider interface {
	// Name returns the rail identifier, e.g. "WAVE".
	Name() string

	// InitierPaiement starts a wallet charge against the given phone number
	// and returns the provider-side transaction.
	InitierPaiement(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error)

	// VerifierStatut fetches the current provider-side status of a
	// transaction; used by the expiration sweep before failing a pending
	// recharge.
	VerifierStatut(ctx context.Context, transactionID string) (*StatusResponse, error)

	// Rembourser reverses a completed charge.
	Rembourser(ctx context.Context, request *RefundRequest) (*RefundResponse, error)

	// SupporteSplitAtomique reports whether the rail guarantees an atomic
	// commission split at charge time. Rails without the guarantee leave the
	// commission entry pending until verification.
	SupporteSplitAtomique() bool
}

type PaymentRequest struct {
	Reference      string  `json:"reference"`
	Telephone      string  `json:"telephone"`
	Montant        float64 `json:"montant"`
	Description    string  `json:"description"`
	IdempotencyKey string  `json:"idempotency_key"`
	CallbackURL    string  `json:"callback_url"`
}

type PaymentResponse struct {
	TransactionID  string  `json:"transaction_id"`
	Statut         string  `json:"statut"`
	Montant        float64 `json:"montant"`
	FraisOperateur float64 `json:"frais_operateur"`
}

type StatusResponse struct {
	TransactionID string `json:"transaction_id"`
	Statut        string `json:"statut"` // pending, success, failed
	Code          string `json:"code"`
	Message       string `json:"message"`
}

type RefundRequest struct {
	TransactionID string  `json:"transaction_id"`
	Montant       float64 `json:"montant"`
	Raison        string  `json:"raison"`
}

type RefundResponse struct {
	RefundID string  `json:"refund_id"`
	Statut   string  `json:"statut"`
	Montant  float64 `json:"montant"`
}

// Normalized provider statuses.
const (
	StatutPending = "pending"
	StatutSuccess = "success"
	StatutFailed  = "failed"
)

var ErrUnknownProvider = errors.New("unknown mobile money provider")

// Registry holds the configured rails keyed by method name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	registry := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		registry.providers[p.Name()] = p
	}
	return registry
}

func (r *Registry) Get(name string) (Provider, error) {
	provider, ok := r.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return provider, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
