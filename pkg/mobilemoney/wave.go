package mobilemoney

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// WaveProvider talks to the Wave checkout API. Wave guarantees an atomic
// commission split on charge.
type WaveProvider struct {
	http   *httpClient
	apiKey string
}

func NewWaveProvider(baseURL, apiKey string, timeout time.Duration) *WaveProvider {
	return &WaveProvider{
		http:   newHTTPClient(baseURL, timeout),
		apiKey: apiKey,
	}
}

func (w *WaveProvider) Name() string { return "WAVE" }

func (w *WaveProvider) SupporteSplitAtomique() bool { return true }

func (w *WaveProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + w.apiKey}
}

type waveSession struct {
	ID               string `json:"id"`
	CheckoutStatus   string `json:"checkout_status"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	PaymentStatus    string `json:"payment_status"`
	LastPaymentError struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

func (w *WaveProvider) InitierPaiement(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	body := map[string]interface{}{
		"amount":           fmt.Sprintf("%.0f", request.Montant),
		"currency":         "XOF",
		"client_reference": request.Reference,
		"customer_msisdn":  request.Telephone,
		"error_url":        request.CallbackURL,
		"success_url":      request.CallbackURL,
		"idempotency_key":  request.IdempotencyKey,
	}

	var session waveSession
	if err := w.http.doJSON(ctx, http.MethodPost, "/v1/checkout/sessions", w.headers(), body, &session); err != nil {
		return nil, fmt.Errorf("wave: %w", err)
	}

	return &PaymentResponse{
		TransactionID: session.ID,
		Statut:        w.mapStatus(session.PaymentStatus),
		Montant:       request.Montant,
	}, nil
}

func (w *WaveProvider) VerifierStatut(ctx context.Context, transactionID string) (*StatusResponse, error) {
	var session waveSession
	if err := w.http.doJSON(ctx, http.MethodGet, "/v1/checkout/sessions/"+transactionID, w.headers(), nil, &session); err != nil {
		return nil, fmt.Errorf("wave: %w", err)
	}

	return &StatusResponse{
		TransactionID: session.ID,
		Statut:        w.mapStatus(session.PaymentStatus),
		Code:          session.LastPaymentError.Code,
		Message:       session.LastPaymentError.Message,
	}, nil
}

func (w *WaveProvider) Rembourser(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	var result struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := w.http.doJSON(ctx, http.MethodPost, "/v1/checkout/sessions/"+request.TransactionID+"/refund", w.headers(), nil, &result); err != nil {
		return nil, fmt.Errorf("wave: %w", err)
	}

	return &RefundResponse{
		RefundID: result.ID,
		Statut:   w.mapStatus(result.Status),
		Montant:  request.Montant,
	}, nil
}

func (w *WaveProvider) mapStatus(status string) string {
	switch status {
	case "succeeded", "success", "complete":
		return StatutSuccess
	case "cancelled", "failed", "error":
		return StatutFailed
	default:
		return StatutPending
	}
}
