package mobilemoney

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// MoovMoneyProvider talks to the Moov Money merchant API. Like MTN, Moov
// reports completion asynchronously and offers no atomic split guarantee.
type MoovMoneyProvider struct {
	http      *httpClient
	username  string
	password  string
}

func NewMoovMoneyProvider(baseURL, username, password string, timeout time.Duration) *MoovMoneyProvider {
	return &MoovMoneyProvider{
		http:     newHTTPClient(baseURL, timeout),
		username: username,
		password: password,
	}
}

func (p *MoovMoneyProvider) Name() string { return "MOOV_MONEY" }

func (p *MoovMoneyProvider) SupporteSplitAtomique() bool { return false }

type moovResponse struct {
	ReferenceID string `json:"referenceid"`
	Status      string `json:"status"`
	Code        string `json:"errorcode"`
	Message     string `json:"message"`
}

func (p *MoovMoneyProvider) InitierPaiement(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	body := map[string]interface{}{
		"username":        p.username,
		"password":        p.password,
		"amount":          request.Montant,
		"msisdn":          request.Telephone,
		"externaldata1":   request.Reference,
		"externaldata2":   request.Description,
		"transactiontype": "debit",
	}

	var result moovResponse
	if err := p.http.doJSON(ctx, http.MethodPost, "/api/v1/transactions/push", nil, body, &result); err != nil {
		return nil, fmt.Errorf("moov money: %w", err)
	}

	return &PaymentResponse{
		TransactionID: result.ReferenceID,
		Statut:        p.mapStatus(result.Status),
		Montant:       request.Montant,
	}, nil
}

func (p *MoovMoneyProvider) VerifierStatut(ctx context.Context, transactionID string) (*StatusResponse, error) {
	body := map[string]interface{}{
		"username":    p.username,
		"password":    p.password,
		"referenceid": transactionID,
	}

	var result moovResponse
	if err := p.http.doJSON(ctx, http.MethodPost, "/api/v1/transactions/status", nil, body, &result); err != nil {
		return nil, fmt.Errorf("moov money: %w", err)
	}

	return &StatusResponse{
		TransactionID: transactionID,
		Statut:        p.mapStatus(result.Status),
		Code:          result.Code,
		Message:       result.Message,
	}, nil
}

func (p *MoovMoneyProvider) Rembourser(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	body := map[string]interface{}{
		"username":    p.username,
		"password":    p.password,
		"referenceid": request.TransactionID,
		"amount":      request.Montant,
		"reason":      request.Raison,
	}

	var result moovResponse
	if err := p.http.doJSON(ctx, http.MethodPost, "/api/v1/transactions/refund", nil, body, &result); err != nil {
		return nil, fmt.Errorf("moov money: %w", err)
	}

	return &RefundResponse{
		RefundID: result.ReferenceID,
		Statut:   p.mapStatus(result.Status),
		Montant:  request.Montant,
	}, nil
}

func (p *MoovMoneyProvider) mapStatus(status string) string {
	switch status {
	case "0", "SUCCESS", "COMPLETED":
		return StatutSuccess
	case "FAILED", "CANCELLED":
		return StatutFailed
	default:
		return StatutPending
	}
}
