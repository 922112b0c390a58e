package lib

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// PaymentIntent is the provider-neutral view of a payment attempt.
type PaymentIntent struct {
	ID            string            `json:"id"`
	ClientSecret  string            `json:"client_secret,omitempty"`
	Status        string            `json:"status"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// WebhookEvent is a signature-verified provider notification. Data holds
// the raw object payload for the caller to decode.
type WebhookEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type CreateIntentParams struct {
	Amount              int64
	Currency            string
	ReceiptEmail        string
	StatementDescriptor string
	Metadata            map[string]string
}

// PaymentProvider is the narrow surface the payment flows depend on.
// Tests substitute it through NewPaymentProvider.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, params *CreateIntentParams) (*PaymentIntent, error)
	RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CreateRefund(ctx context.Context, intentID string, amount int64, reason string) (*Refund, error)
	VerifyWebhookSignature(payload []byte, sigHeader string) (*WebhookEvent, error)
}

var paymentProvider PaymentProvider

// GetPaymentProvider returns the configured provider, building the
// stripe-backed one on first use.
func GetPaymentProvider(secretKey string, webhookSecret string) PaymentProvider {
	if paymentProvider != nil {
		return paymentProvider
	}
	p := &stripeProvider{
		sc:            stripe.NewClient(secretKey),
		webhookSecret: webhookSecret,
	}
	paymentProvider = p
	return p
}

// NewPaymentProvider Replace provider instance with custom implementation
func NewPaymentProvider(p PaymentProvider) PaymentProvider {
	paymentProvider = p
	return paymentProvider
}

type stripeProvider struct {
	sc            *stripe.Client
	webhookSecret string
}

func (p *stripeProvider) CreateIntent(ctx context.Context, params *CreateIntentParams) (*PaymentIntent, error) {
	createParams := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(params.Amount),
		Currency: stripe.String(params.Currency),
		Metadata: params.Metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if params.ReceiptEmail != "" {
		createParams.ReceiptEmail = stripe.String(params.ReceiptEmail)
	}
	if params.StatementDescriptor != "" {
		createParams.StatementDescriptor = stripe.String(params.StatementDescriptor)
	}
	pi, err := p.sc.V1PaymentIntents.Create(ctx, createParams)
	if err != nil {
		return nil, err
	}
	return fromStripeIntent(pi), nil
}

func (p *stripeProvider) RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	pi, err := p.sc.V1PaymentIntents.Retrieve(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return fromStripeIntent(pi), nil
}

func (p *stripeProvider) CreateRefund(ctx context.Context, intentID string, amount int64, reason string) (*Refund, error) {
	createParams := &stripe.RefundCreateParams{
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amount),
	}
	if reason != "" {
		createParams.Reason = stripe.String(reason)
	}
	r, err := p.sc.V1Refunds.Create(ctx, createParams)
	if err != nil {
		return nil, err
	}
	return &Refund{ID: r.ID, Status: string(r.Status), Amount: r.Amount}, nil
}

func (p *stripeProvider) VerifyWebhookSignature(payload []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return nil, err
	}
	return &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
		Data: event.Data.Raw,
	}, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	out := &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
	if pi.PaymentMethod != nil {
		out.PaymentMethod = pi.PaymentMethod.ID
	}
	return out
}
