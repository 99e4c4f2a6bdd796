package payment

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// intentAPI is the subset of the Stripe payment intent client used here.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Update(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Confirm(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeProvider implements Provider on the Stripe API.
type StripeProvider struct {
	intents intentAPI
}

func NewStripeProvider(secretKey string) *StripeProvider {
	sc := client.New(secretKey, nil)
	return &StripeProvider{intents: sc.PaymentIntents}
}

func newStripeProviderWithAPI(api intentAPI) *StripeProvider {
	return &StripeProvider{intents: api}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, req CreateRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := p.intents.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

func (p *StripeProvider) UpdateIntent(ctx context.Context, req UpdateRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount: stripe.Int64(req.AmountCents),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.intents.Update(req.IntentID, params)
	if err != nil {
		return nil, err
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// Confirm confirms server side. A redirect is only reported when the
// payment method needs one.
func (p *StripeProvider) Confirm(ctx context.Context, req ConfirmRequest) (*Status, error) {
	id, err := IntentIDFromSecret(req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, &Decline{Kind: DeclineValidation, Message: "Please provide your payment details."}
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(req.PaymentMethod),
	}
	if req.ReturnURL != "" {
		params.ReturnURL = stripe.String(req.ReturnURL)
	}
	params.Context = ctx

	pi, err := p.intents.Confirm(id, params)
	if err != nil {
		return nil, asDecline(err)
	}
	return statusOf(pi), nil
}

func (p *StripeProvider) Retrieve(ctx context.Context, clientSecret string) (*Status, error) {
	id, err := IntentIDFromSecret(clientSecret)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentParams{ClientSecret: stripe.String(clientSecret)}
	params.Context = ctx

	pi, err := p.intents.Get(id, params)
	if err != nil {
		return nil, err
	}
	return statusOf(pi), nil
}

func statusOf(pi *stripe.PaymentIntent) *Status {
	st := &Status{IntentID: pi.ID, Status: string(pi.Status)}
	if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
		st.RedirectURL = pi.NextAction.RedirectToURL.URL
	}
	return st
}

// asDecline turns card and request errors into a Decline. Other failures
// are returned unchanged.
func asDecline(err error) error {
	var se *stripe.Error
	if !stderrors.As(err, &se) {
		return err
	}
	switch se.Type {
	case stripe.ErrorTypeCard:
		return &Decline{Kind: DeclineCard, Message: se.Msg}
	case stripe.ErrorTypeInvalidRequest:
		if se.Param != "" {
			return &Decline{Kind: DeclineValidation, Message: se.Msg}
		}
	}
	return &Decline{Kind: string(se.Type), Message: se.Msg}
}

// IntentIDFromSecret extracts "pi_123" from "pi_123_secret_abc".
func IntentIDFromSecret(clientSecret string) (string, error) {
	id, _, ok := strings.Cut(clientSecret, "_secret_")
	if !ok || id == "" {
		return "", fmt.Errorf("malformed client secret")
	}
	return id, nil
}
