package onboarding

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"membership-signup/internal/common/logger"
	"membership-signup/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProcessClient struct {
	mock.Mock
}

func (m *MockProcessClient) StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error) {
	args := m.Called(ctx, processID, variables)
	return args.Get(0).(int64), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject, eventType, message string) (string, error) {
	args := m.Called(ctx, subject, eventType, message)
	return args.String(0), args.Error(1)
}

func TestZeebeStarter_StartsProcessWithVariables(t *testing.T) {
	client := &MockProcessClient{}
	client.On("StartProcess", mock.Anything, DefaultProcessID, mock.MatchedBy(func(v interface{}) bool {
		vars, ok := v.(map[string]interface{})
		return ok && vars["membershipId"] == "m-1" && vars["shirtSize"] == "Large"
	})).Return(int64(2251799813685251), nil).Once()

	s := NewZeebeStarter(client, "", logger.NewTestLogger(t))
	key, err := s.StartOnboarding(context.Background(), &models.Membership{ID: "m-1", ShirtSize: "Large"})

	require.NoError(t, err)
	assert.Equal(t, int64(2251799813685251), key)
	client.AssertExpectations(t)
}

func TestZeebeStarter_PropagatesError(t *testing.T) {
	client := &MockProcessClient{}
	client.On("StartProcess", mock.Anything, "custom", mock.Anything).Return(int64(0), stderrors.New("unavailable"))

	s := NewZeebeStarter(client, "custom", logger.NewTestLogger(t))
	_, err := s.StartOnboarding(context.Background(), &models.Membership{ID: "m-1"})
	assert.Error(t, err)
}

func TestZeebeStarter_DisabledIsNoOp(t *testing.T) {
	s := NewZeebeStarter(nil, "", logger.NewTestLogger(t))
	key, err := s.StartOnboarding(context.Background(), &models.Membership{ID: "m-1"})
	assert.NoError(t, err)
	assert.Zero(t, key)
}

func TestSupportAlerter_PublishesAlert(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, models.EventPersistenceFailed, mock.MatchedBy(func(msg string) bool {
		var a models.PersistenceAlert
		return json.Unmarshal([]byte(msg), &a) == nil && a.PaymentIntentID == "pi_9"
	})).Return("msg-1", nil).Once()

	a := NewSupportAlerter(pub, logger.NewTestLogger(t))
	err := a.PersistenceFailed(context.Background(), models.PersistenceAlert{PaymentIntentID: "pi_9"})

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestSupportAlerter_PublishFailure(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled"))

	a := NewSupportAlerter(pub, logger.NewTestLogger(t))
	err := a.PersistenceFailed(context.Background(), models.PersistenceAlert{PaymentIntentID: "pi_9"})
	assert.ErrorContains(t, err, "throttled")
}

func TestSupportAlerter_NoTopicLogsOnly(t *testing.T) {
	a := NewSupportAlerter(nil, logger.NewNoOpLogger())
	assert.NoError(t, a.PersistenceFailed(context.Background(), models.PersistenceAlert{PaymentIntentID: "pi_9"}))
}
