package mobilemoney

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// OrangeMoneyProvider talks to the Orange Money Web Payment API. The API is
// OAuth2 client-credentials based, the access token is cached until expiry.
type OrangeMoneyProvider struct {
	http         *httpClient
	clientID     string
	clientSecret string
	merchantKey  string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewOrangeMoneyProvider(baseURL, clientID, clientSecret, merchantKey string, timeout time.Duration) *OrangeMoneyProvider {
	return &OrangeMoneyProvider{
		http:         newHTTPClient(baseURL, timeout),
		clientID:     clientID,
		clientSecret: clientSecret,
		merchantKey:  merchantKey,
	}
}

func (o *OrangeMoneyProvider) Name() string { return "ORANGE_MONEY" }

func (o *OrangeMoneyProvider) SupporteSplitAtomique() bool { return true }

func (o *OrangeMoneyProvider) token(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.accessToken != "" && time.Now().Before(o.tokenExpiry) {
		return o.accessToken, nil
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(o.clientID + ":" + o.clientSecret))
	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	err := o.http.doJSON(ctx, http.MethodPost, "/oauth/v3/token",
		map[string]string{"Authorization": "Basic " + credentials},
		map[string]string{"grant_type": "client_credentials"}, &result)
	if err != nil {
		return "", fmt.Errorf("orange money token: %w", err)
	}

	o.accessToken = result.AccessToken
	o.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn-60) * time.Second)
	return o.accessToken, nil
}

type orangePayment struct {
	PayToken string `json:"pay_token"`
	Status   string `json:"status"`
	TxnID    string `json:"txnid"`
	Message  string `json:"message"`
}

func (o *OrangeMoneyProvider) InitierPaiement(ctx context.Context, request *PaymentRequest) (*PaymentResponse, error) {
	token, err := o.token(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"merchant_key": o.merchantKey,
		"currency":     "XOF",
		"order_id":     request.Reference,
		"amount":       request.Montant,
		"reference":    request.Reference,
		"subscriber":   request.Telephone,
		"notif_url":    request.CallbackURL,
		"lang":         "fr",
	}

	var payment orangePayment
	if err := o.http.doJSON(ctx, http.MethodPost, "/orange-money-webpay/v1/webpayment",
		map[string]string{"Authorization": "Bearer " + token}, body, &payment); err != nil {
		return nil, fmt.Errorf("orange money: %w", err)
	}

	return &PaymentResponse{
		TransactionID: payment.PayToken,
		Statut:        o.mapStatus(payment.Status),
		Montant:       request.Montant,
	}, nil
}

func (o *OrangeMoneyProvider) VerifierStatut(ctx context.Context, transactionID string) (*StatusResponse, error) {
	token, err := o.token(ctx)
	if err != nil {
		return nil, err
	}

	var payment orangePayment
	if err := o.http.doJSON(ctx, http.MethodPost, "/orange-money-webpay/v1/transactionstatus",
		map[string]string{"Authorization": "Bearer " + token},
		map[string]string{"pay_token": transactionID}, &payment); err != nil {
		return nil, fmt.Errorf("orange money: %w", err)
	}

	return &StatusResponse{
		TransactionID: transactionID,
		Statut:        o.mapStatus(payment.Status),
		Message:       payment.Message,
	}, nil
}

func (o *OrangeMoneyProvider) Rembourser(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	token, err := o.token(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"pay_token": request.TransactionID,
		"amount":    request.Montant,
		"comment":   request.Raison,
	}

	var payment orangePayment
	if err := o.http.doJSON(ctx, http.MethodPost, "/orange-money-webpay/v1/refund",
		map[string]string{"Authorization": "Bearer " + token}, body, &payment); err != nil {
		return nil, fmt.Errorf("orange money: %w", err)
	}

	return &RefundResponse{
		RefundID: payment.TxnID,
		Statut:   o.mapStatus(payment.Status),
		Montant:  request.Montant,
	}, nil
}

func (o *OrangeMoneyProvider) mapStatus(status string) string {
	switch status {
	case "SUCCESS", "SUCCESSFULL":
		return StatutSuccess
	case "FAILED", "EXPIRED":
		return StatutFailed
	default:
		return StatutPending
	}
}
