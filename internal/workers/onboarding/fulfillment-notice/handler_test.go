// internal/workers/onboarding/fulfillment-notice/handler_test.go
package fulfillmentnotice

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"
	"membership-signup/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, subject, eventType, message string) (string, error) {
	args := m.Called(ctx, subject, eventType, message)
	return args.String(0), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Enabled: true, Timeout: 5 * time.Second}
}

func createTestInput() *Input {
	return &Input{
		MembershipID:    "m-1",
		Email:           "ana@example.com",
		FirstName:       "Ana",
		LastName:        "Lopez",
		MembershipLevel: "premium",
		ShirtSize:       "Medium",
		JacketSize:      "2X Large",
		Address1:        "12 Main Street",
		Address2:        "Apt 4",
		City:            "Austin",
		State:           "TX",
		ZipCode:         "78701",
	}
}

// ==========================
// Tests
// ==========================

func TestHandler_Execute_Publishes(t *testing.T) {
	var notice models.FulfillmentNotice
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, models.EventFulfillmentRequested, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, json.Unmarshal([]byte(args.String(3)), &notice))
		}).
		Return("sns-1", nil).Once()

	out, err := NewHandler(createTestConfig(), pub, logger.NewTestLogger(t)).Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusRequested, out.FulfillmentStatus)
	assert.Equal(t, "sns-1", out.FulfillmentMessageID)
	assert.Equal(t, "Ana Lopez", notice.Name)
	assert.Equal(t, "2X Large", notice.JacketSize)
	assert.Equal(t, "12 Main Street\nApt 4\nAustin, TX 78701", notice.ShippingAddress)
	pub.AssertExpectations(t)
}

func TestHandler_Execute_MissingSizes(t *testing.T) {
	input := createTestInput()
	input.ShirtSize = ""
	input.JacketSize = ""

	_, err := NewHandler(createTestConfig(), &MockPublisher{}, logger.NewTestLogger(t)).Execute(context.Background(), input)
	require.True(t, stderrors.Is(err, errors.ErrValidation))
	fields := errors.AsStandard(err).Metadata["fields"].(map[string]string)
	assert.Contains(t, fields, "shirtSize")
	assert.Contains(t, fields, "jacketSize")
}

func TestHandler_Execute_Disabled(t *testing.T) {
	pub := &MockPublisher{}
	out, err := NewHandler(&Config{Timeout: time.Second}, pub, logger.NewTestLogger(t)).Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.FulfillmentStatus)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_PublishFailure(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled"))

	_, err := NewHandler(createTestConfig(), pub, logger.NewTestLogger(t)).Execute(context.Background(), createTestInput())
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, errors.CodeOf(err))
}

func TestShippingAddress_NoSecondLine(t *testing.T) {
	input := createTestInput()
	input.Address2 = ""
	assert.Equal(t, "12 Main Street\nAustin, TX 78701", shippingAddress(input))
}
