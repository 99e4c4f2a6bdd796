package onboarding

import (
	"context"
	"encoding/json"
	"fmt"

	"membership-signup/internal/common/logger"
	"membership-signup/internal/models"
)

// Publisher is satisfied by aws.TopicPublisher.
type Publisher interface {
	Publish(ctx context.Context, subject, eventType, message string) (string, error)
}

// SupportAlerter publishes persistence failures to the support topic so a
// captured payment without a stored row is followed up by hand.
type SupportAlerter struct {
	publisher Publisher
	logger    logger.Logger
}

func NewSupportAlerter(publisher Publisher, log logger.Logger) *SupportAlerter {
	return &SupportAlerter{publisher: publisher, logger: log}
}

func (a *SupportAlerter) PersistenceFailed(ctx context.Context, alert models.PersistenceAlert) error {
	if a.publisher == nil {
		a.logger.Warn("Support topic not configured, alert only logged", map[string]interface{}{
			"paymentIntentId": alert.PaymentIntentID,
			"email":           alert.Email,
		})
		return nil
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal persistence alert: %w", err)
	}
	id, err := a.publisher.Publish(ctx,
		"Membership payment without stored submission",
		models.EventPersistenceFailed, string(body))
	if err != nil {
		return fmt.Errorf("publish persistence alert: %w", err)
	}
	a.logger.Info("Support alert published", map[string]interface{}{
		"paymentIntentId": alert.PaymentIntentID,
		"messageId":       id,
	})
	return nil
}
