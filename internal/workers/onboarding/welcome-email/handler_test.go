// internal/workers/onboarding/welcome-email/handler_test.go
package welcomeemail

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"membership-signup/internal/common/errors"
	"membership-signup/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockMailer struct {
	SendFunc func(ctx context.Context, to, subject, text, html string) (string, error)
	calls    int
}

func (m *MockMailer) Send(ctx context.Context, to, subject, text, html string) (string, error) {
	m.calls++
	return m.SendFunc(ctx, to, subject, text, html)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Enabled:        true,
		SupportContact: "membership@fanclub.example",
		Timeout:        5 * time.Second,
	}
}

func createTestInput() *Input {
	return &Input{
		MembershipID:     "m-1",
		Email:            "ana@example.com",
		FirstName:        "Ana",
		Nickname:         "N/A",
		MembershipStatus: "new",
		MembershipLevel:  "plus",
		TotalPrice:       175,
		PaymentIntentID:  "pi_123",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Sent(t *testing.T) {
	var gotTo, gotSubject, gotText, gotHTML string
	mailer := &MockMailer{SendFunc: func(_ context.Context, to, subject, text, html string) (string, error) {
		gotTo, gotSubject, gotText, gotHTML = to, subject, text, html
		return "ses-1", nil
	}}
	h := NewHandler(createTestConfig(), mailer, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.WelcomeStatus)
	assert.Equal(t, "ses-1", out.WelcomeMessageID)
	assert.NotEmpty(t, out.WelcomeSentAt)
	assert.Equal(t, "ana@example.com", gotTo)
	assert.Equal(t, "Welcome to the fan club, Ana!", gotSubject)
	assert.Contains(t, gotText, "Plus membership ($175.00)")
	assert.Contains(t, gotText, "pi_123")
	assert.Contains(t, gotHTML, "<strong>Plus</strong>")
}

func TestHandler_Execute_UsesNickname(t *testing.T) {
	var gotSubject string
	mailer := &MockMailer{SendFunc: func(_ context.Context, _, subject, _, _ string) (string, error) {
		gotSubject = subject
		return "ses-2", nil
	}}
	input := createTestInput()
	input.Nickname = "Annie"

	_, err := NewHandler(createTestConfig(), mailer, logger.NewTestLogger(t)).Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Welcome to the fan club, Annie!", gotSubject)
}

func TestHandler_Execute_HTMLEscaped(t *testing.T) {
	var gotHTML string
	mailer := &MockMailer{SendFunc: func(_ context.Context, _, _, _, html string) (string, error) {
		gotHTML = html
		return "ses-3", nil
	}}
	input := createTestInput()
	input.Nickname = "<b>Ann</b>"

	_, err := NewHandler(createTestConfig(), mailer, logger.NewTestLogger(t)).Execute(context.Background(), input)
	require.NoError(t, err)
	assert.NotContains(t, gotHTML, "<b>Ann</b>")
	assert.Contains(t, gotHTML, "&lt;b&gt;Ann&lt;/b&gt;")
}

// ==========================
// Disabled / Error Tests
// ==========================

func TestHandler_Execute_Disabled(t *testing.T) {
	cfg := createTestConfig()
	cfg.Enabled = false
	mailer := &MockMailer{}

	out, err := NewHandler(cfg, mailer, logger.NewTestLogger(t)).Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, out.WelcomeStatus)
	assert.Zero(t, mailer.calls)
}

func TestHandler_Execute_MissingEmail(t *testing.T) {
	input := createTestInput()
	input.Email = " "

	_, err := NewHandler(createTestConfig(), &MockMailer{}, logger.NewTestLogger(t)).Execute(context.Background(), input)
	assert.True(t, stderrors.Is(err, errors.ErrValidation))
}

func TestHandler_Execute_SendFailureIsRetryable(t *testing.T) {
	mailer := &MockMailer{SendFunc: func(context.Context, string, string, string, string) (string, error) {
		return "", stderrors.New("throttling")
	}}

	_, err := NewHandler(createTestConfig(), mailer, logger.NewTestLogger(t)).Execute(context.Background(), createTestInput())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, errors.CodeOf(err))
	assert.Equal(t, 3, errors.GetRetryCount(errors.CodeOf(err)))
}
