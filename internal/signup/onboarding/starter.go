// Package onboarding hands stored memberships to the onboarding process and
// reports submissions that could not be stored.
package onboarding

import (
	"context"

	"membership-signup/internal/common/logger"
	"membership-signup/internal/models"
)

// DefaultProcessID is the BPMN process started for every stored membership.
const DefaultProcessID = "membership-onboarding"

// ProcessClient is satisfied by camunda.Client.
type ProcessClient interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// ZeebeStarter starts one onboarding instance per membership. A nil client
// makes it a logging no-op, used when Camunda is disabled.
type ZeebeStarter struct {
	client    ProcessClient
	processID string
	logger    logger.Logger
}

func NewZeebeStarter(client ProcessClient, processID string, log logger.Logger) *ZeebeStarter {
	if processID == "" {
		processID = DefaultProcessID
	}
	return &ZeebeStarter{
		client:    client,
		processID: processID,
		logger:    log.WithFields(map[string]interface{}{"processId": processID}),
	}
}

// StartOnboarding returns the process instance key, or 0 when disabled.
func (s *ZeebeStarter) StartOnboarding(ctx context.Context, m *models.Membership) (int64, error) {
	if s.client == nil {
		s.logger.Info("Camunda disabled, onboarding not started", map[string]interface{}{
			"membershipId": m.ID,
		})
		return 0, nil
	}

	key, err := s.client.StartProcess(ctx, s.processID, m.ProcessVariables())
	if err != nil {
		return 0, err
	}
	s.logger.Info("Onboarding process started", map[string]interface{}{
		"membershipId":       m.ID,
		"processInstanceKey": key,
	})
	return key, nil
}
