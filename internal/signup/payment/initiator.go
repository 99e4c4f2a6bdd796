package payment

import (
	"context"
	"math"
	"strings"
	"time"

	"membership-signup/internal/common/config"
	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/common/metrics"
)

// Initiator creates payment intents for a dollar amount.
type Initiator struct {
	provider Provider
	currency string
	logger   logger.Logger
}

// NewInitiator returns an initiator. A nil provider means the secret
// credential is missing; every call then fails with a configuration error.
func NewInitiator(provider Provider, cfg config.PaymentConfig, log logger.Logger) *Initiator {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &Initiator{provider: provider, currency: currency, logger: log}
}

// Configured reports whether intents can be created at all.
func (i *Initiator) Configured() bool {
	return i.provider != nil
}

// CreateIntent performs a single provider request for amountDollars.
func (i *Initiator) CreateIntent(ctx context.Context, amountDollars float64, metadata map[string]string, idempotencyKey string) (*Intent, error) {
	if i.provider == nil {
		metrics.PaymentIntents.WithLabelValues("not_configured").Inc()
		return nil, errors.NewConfigurationError("payment provider secret key is not set")
	}
	if amountDollars <= 0 || math.IsNaN(amountDollars) || math.IsInf(amountDollars, 0) {
		metrics.PaymentIntents.WithLabelValues("invalid_amount").Inc()
		return nil, errors.NewInvalidAmountError(amountDollars)
	}

	cents := int64(math.Round(amountDollars * 100))
	start := time.Now()
	intent, err := i.provider.CreateIntent(ctx, CreateRequest{
		AmountCents:    cents,
		Currency:       i.currency,
		Metadata:       metadata,
		IdempotencyKey: idempotencyKey,
	})
	metrics.PaymentIntentDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("provider_error").Inc()
		i.logger.Error("Payment intent creation failed", map[string]interface{}{
			"amountCents": cents,
			"error":       err,
		})
		return nil, errors.NewProviderError("create intent", err)
	}

	metrics.PaymentIntents.WithLabelValues("created").Inc()
	i.logger.Info("Payment intent created", map[string]interface{}{
		"paymentIntentId": intent.ID,
		"amountCents":     cents,
		"currency":        i.currency,
	})
	return intent, nil
}

// UpdateIntent reprices an existing intent, keeping its client secret.
func (i *Initiator) UpdateIntent(ctx context.Context, intentID string, amountDollars float64, metadata map[string]string) (*Intent, error) {
	if i.provider == nil {
		metrics.PaymentIntents.WithLabelValues("not_configured").Inc()
		return nil, errors.NewConfigurationError("payment provider secret key is not set")
	}
	if amountDollars <= 0 || math.IsNaN(amountDollars) || math.IsInf(amountDollars, 0) {
		metrics.PaymentIntents.WithLabelValues("invalid_amount").Inc()
		return nil, errors.NewInvalidAmountError(amountDollars)
	}

	cents := int64(math.Round(amountDollars * 100))
	start := time.Now()
	intent, err := i.provider.UpdateIntent(ctx, UpdateRequest{
		IntentID:    intentID,
		AmountCents: cents,
		Metadata:    metadata,
	})
	metrics.PaymentIntentDuration.WithLabelValues("update").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("provider_error").Inc()
		i.logger.Error("Payment intent update failed", map[string]interface{}{
			"paymentIntentId": intentID,
			"amountCents":     cents,
			"error":           err,
		})
		return nil, errors.NewProviderError("update intent", err)
	}

	metrics.PaymentIntents.WithLabelValues("updated").Inc()
	i.logger.Info("Payment intent amount updated", map[string]interface{}{
		"paymentIntentId": intent.ID,
		"amountCents":     cents,
	})
	return intent, nil
}
