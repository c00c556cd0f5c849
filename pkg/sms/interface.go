package sms

import "context"

// Provider delivers the settlement engine's outbound notifications
// ("recharge confirmed", "commission collection failed", "gains credited").
// Delivery is fire-and-forget from the engine's point of view.
type Provider interface {
	SendSMS(ctx context.Context, request *Request) (*Response, error)
}

type Request struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type Response struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}
