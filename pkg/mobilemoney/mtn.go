package mobilemoney

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// MTNMoneyProvider talks to the MTN MoMo collections API. MTN does not
// guarantee an atomic commission split, collections stay pending until the
// status check confirms them.
type MTNMoneyProvider struct {
	http            *httpClient
	subscriptionKey string
	apiUser         string
	apiKey          string
	environment     string
}

func NewMTNMoneyProvider(baseURL, subscriptionKey, apiUser, apiKey, environment string, timeout time.Duration) *MTNMoneyProvider {
	return &MTNMoneyProvider{
		http:            newHTTPClient(baseURL, timeout),
		subscriptionKey: subscriptionKey,
		apiUser:         apiUser,
		apiKey:          apiKey,
		environment:     environment,
	}
}

func (m *MTNMoneyProvider) Name() string { return "MTN_MONEY" }

func (m *MTNMoneyProvider) SupporteSplitAtomique() bool { return false }

func (m *MTNMoneyProvider) headers(referenceID string) map[string]string {
	headers := map[string]string{
		"Ocp-Apim-Subscription-Key": m.subscriptionKey,
		"X-Target-Environment":      m.environment,
	}
	if referenceID != "" {
		headers["X-Reference-Id"] = referenceID
	}
	return headers
}

func (m *MTNMoneyProvider) InitierPaiement(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	body := map[string]interface{}{
		"amount":     fmt.Sprintf("%.0f", request.Montant),
		"currency":   "XOF",
		"externalId": request.Reference,
		"payer": map[string]string{
			"partyIdType": "MSISDN",
			"partyId":     request.Telephone,
		},
		"payerMessage": request.Description,
		"payeeNote":    request.Reference,
	}

	// MoMo requesttopay is asynchronous: a 202 only acknowledges the
	// request, the X-Reference-Id becomes the transaction id to poll.
	if err := m.http.doJSON(ctx, http.MethodPost, "/collection/v1_0/requesttopay",
		m.headers(request.IdempotencyKey), body, nil); err != nil {
		return nil, fmt.Errorf("mtn money: %w", err)
	}

	return &PaymentResponse{
		TransactionID: request.IdempotencyKey,
		Statut:        StatutPending,
		Montant:       request.Montant,
	}, nil
}

func (m *MTNMoneyProvider) VerifierStatut(ctx context.Context, transactionID string) (*StatusResponse, error) {
	var result struct {
		Status  string `json:"status"`
		Reason  string `json:"reason"`
	}
	if err := m.http.doJSON(ctx, http.MethodGet, "/collection/v1_0/requesttopay/"+transactionID,
		m.headers(""), nil, &result); err != nil {
		return nil, fmt.Errorf("mtn money: %w", err)
	}

	return &StatusResponse{
		TransactionID: transactionID,
		Statut:        m.mapStatus(result.Status),
		Message:       result.Reason,
	}, nil
}

func (m *MTNMoneyProvider) Rembourser(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	body := map[string]interface{}{
		"amount":               fmt.Sprintf("%.0f", request.Montant),
		"currency":             "XOF",
		"referenceIdToRefund":  request.TransactionID,
		"payerMessage":         request.Raison,
	}

	if err := m.http.doJSON(ctx, http.MethodPost, "/disbursement/v1_0/refund",
		m.headers(request.TransactionID), body, nil); err != nil {
		return nil, fmt.Errorf("mtn money: %w", err)
	}

	return &RefundResponse{
		RefundID: request.TransactionID,
		Statut:   StatutPending,
		Montant:  request.Montant,
	}, nil
}

func (m *MTNMoneyProvider) mapStatus(status string) string {
	switch status {
	case "SUCCESSFUL":
		return StatutSuccess
	case "FAILED", "REJECTED", "TIMEOUT":
		return StatutFailed
	default:
		return StatutPending
	}
}
