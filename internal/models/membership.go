// internal/models/membership.go
package models

import (
	"context"
	"time"

	"membership-signup/internal/signup/form"
)

// Membership is one stored submission, shaped like the memberships table.
type Membership struct {
	ID               string    `json:"id" db:"id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	FirstName        string    `json:"first_name" db:"first_name"`
	MiddleName       string    `json:"middle_name,omitempty" db:"middle_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	Nickname         string    `json:"nickname" db:"nickname"`
	Email            string    `json:"email" db:"email"`
	Phone            string    `json:"phone" db:"phone"`
	BirthDate        string    `json:"birth_date" db:"birth_date"`
	Address1         string    `json:"address1" db:"address1"`
	Address2         string    `json:"address2,omitempty" db:"address2"`
	City             string    `json:"city" db:"city"`
	State            string    `json:"state" db:"state"`
	ZipCode          string    `json:"zip_code" db:"zip_code"`
	ReferralSource   string    `json:"referral_source" db:"referral_source"`
	ReferrerName     string    `json:"referrer_name,omitempty" db:"referrer_name"`
	IsDbnMember      string    `json:"is_dbn_member" db:"is_dbn_member"`
	BirthCityState   string    `json:"birth_city_state" db:"birth_city_state"`
	MembershipStatus string    `json:"membership_status" db:"membership_status"`
	MembershipLevel  string    `json:"membership_level" db:"membership_level"`
	ShirtSize        string    `json:"shirt_size" db:"shirt_size"`
	JacketSize       string    `json:"jacket_size" db:"jacket_size"`
	CouponCode       string    `json:"coupon_code,omitempty" db:"coupon_code"`
	TermsAccepted    bool      `json:"terms_accepted" db:"terms_accepted"`
	TotalPrice       float64   `json:"total_price" db:"total_price"`
	PaymentIntentID  string    `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
}

// NewMembership flattens a completed application into a row. ID and
// CreatedAt are assigned by the store.
func NewMembership(r form.Record, priceCents int64, paymentIntentID string) *Membership {
	return &Membership{
		FirstName:        r.FirstName,
		MiddleName:       r.MiddleName,
		LastName:         r.LastName,
		Nickname:         r.Nickname,
		Email:            r.Email,
		Phone:            r.Phone,
		BirthDate:        r.BirthDateString(),
		Address1:         r.Address1,
		Address2:         r.Address2,
		City:             r.City,
		State:            r.State,
		ZipCode:          r.ZipCode,
		ReferralSource:   r.ReferralSource,
		ReferrerName:     r.ReferrerName,
		IsDbnMember:      r.IsDbnMember,
		BirthCityState:   r.BirthCityState,
		MembershipStatus: r.MembershipStatus,
		MembershipLevel:  r.MembershipLevel,
		ShirtSize:        r.ShirtSize,
		JacketSize:       r.JacketSize,
		CouponCode:       r.CouponCode,
		TermsAccepted:    r.TermsAccepted,
		TotalPrice:       form.DollarsFromCents(priceCents),
		PaymentIntentID:  paymentIntentID,
	}
}

// FullName joins first and last name.
func (m *Membership) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// ProcessVariables is the variable set handed to the onboarding process.
func (m *Membership) ProcessVariables() map[string]interface{} {
	return map[string]interface{}{
		"membershipId":     m.ID,
		"email":            m.Email,
		"firstName":        m.FirstName,
		"lastName":         m.LastName,
		"nickname":         m.Nickname,
		"membershipStatus": m.MembershipStatus,
		"membershipLevel":  m.MembershipLevel,
		"shirtSize":        m.ShirtSize,
		"jacketSize":       m.JacketSize,
		"address1":         m.Address1,
		"address2":         m.Address2,
		"city":             m.City,
		"state":            m.State,
		"zipCode":          m.ZipCode,
		"totalPrice":       m.TotalPrice,
		"paymentIntentId":  m.PaymentIntentID,
	}
}

// MembershipRepository defines submission data access.
type MembershipRepository interface {
	InsertMembership(ctx context.Context, m *Membership) (*Membership, error)
	ListMemberships(ctx context.Context) ([]*Membership, error)
}
