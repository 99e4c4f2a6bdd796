// Package payment creates payment intents and runs the confirmation flow
// against a hosted payment provider.
package payment

import (
	"context"
	"fmt"
)

// Intent statuses consumed by the confirmation flow.
const (
	StatusSucceeded             = "succeeded"
	StatusProcessing            = "processing"
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresAction        = "requires_action"
)

// Decline kinds that carry a message safe to show the applicant.
const (
	DeclineCard       = "card_error"
	DeclineValidation = "validation_error"
)

// Intent is a created payment intent.
type Intent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
}

type CreateRequest struct {
	AmountCents    int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// UpdateRequest changes the amount of an unconfirmed intent. The intent id
// and client secret stay the same.
type UpdateRequest struct {
	IntentID    string
	AmountCents int64
	Metadata    map[string]string
}

type ConfirmRequest struct {
	ClientSecret  string
	PaymentMethod string
	ReturnURL     string
}

// Status is the provider's view of an intent after confirm or retrieve.
type Status struct {
	IntentID    string
	Status      string
	RedirectURL string
}

// Decline is returned by Confirm when the provider rejected the attempt.
type Decline struct {
	Kind    string
	Message string
}

func (d *Decline) Error() string {
	return fmt.Sprintf("payment declined (%s): %s", d.Kind, d.Message)
}

// Provider is the hosted payment collaborator.
type Provider interface {
	CreateIntent(ctx context.Context, req CreateRequest) (*Intent, error)
	UpdateIntent(ctx context.Context, req UpdateRequest) (*Intent, error)
	Confirm(ctx context.Context, req ConfirmRequest) (*Status, error)
	Retrieve(ctx context.Context, clientSecret string) (*Status, error)
}
