package models

import (
	"testing"
	"time"

	"membership-signup/internal/signup/form"

	"github.com/stretchr/testify/assert"
)

func TestNewMembership(t *testing.T) {
	bd := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	r := form.Record{
		FirstName:       "Ana",
		LastName:        "Lopez",
		Email:           "ana@example.com",
		BirthDate:       &bd,
		MembershipLevel: form.LevelPremium,
		ShirtSize:       "Medium",
		TermsAccepted:   true,
	}

	m := NewMembership(r, form.PriceCents(form.LevelPremium), "pi_123")

	assert.Equal(t, "1990-06-15", m.BirthDate)
	assert.Equal(t, 225.0, m.TotalPrice)
	assert.Equal(t, "pi_123", m.PaymentIntentID)
	assert.Equal(t, "Ana Lopez", m.FullName())
	assert.True(t, m.TermsAccepted)

	vars := m.ProcessVariables()
	assert.Equal(t, "ana@example.com", vars["email"])
	assert.Equal(t, "Medium", vars["shirtSize"])
}

func TestAdminSession_IsExpired(t *testing.T) {
	s := &AdminSession{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, s.IsExpired())

	s.ExpiresAt = time.Now().Add(time.Hour)
	assert.False(t, s.IsExpired())
}
