// Package form holds the membership application record, its field rules and
// the price table. Everything here is pure: no I/O and no clocks other than
// the one passed in.
package form

import (
	"fmt"
	"strings"
	"time"

	apperrors "membership-signup/internal/common/errors"
)

// Field names match the JSON keys used by the API.
type Field string

const (
	FieldFirstName        Field = "firstName"
	FieldMiddleName       Field = "middleName"
	FieldLastName         Field = "lastName"
	FieldNickname         Field = "nickname"
	FieldEmail            Field = "email"
	FieldPhone            Field = "phone"
	FieldBirthDate        Field = "birthDate"
	FieldAddress1         Field = "address1"
	FieldAddress2         Field = "address2"
	FieldCity             Field = "city"
	FieldState            Field = "state"
	FieldZipCode          Field = "zipCode"
	FieldBirthCityState   Field = "birthCityState"
	FieldReferralSource   Field = "referralSource"
	FieldReferrerName     Field = "referrerName"
	FieldIsDbnMember      Field = "isDbnMember"
	FieldMembershipStatus Field = "membershipStatus"
	FieldMembershipLevel  Field = "membershipLevel"
	FieldShirtSize        Field = "shirtSize"
	FieldJacketSize       Field = "jacketSize"
	FieldCouponCode       Field = "couponCode"
	FieldTermsAccepted    Field = "termsAccepted"
)

// DateLayout is the wire format for birth dates.
const DateLayout = "2006-01-02"

// Record is one membership application as entered by the applicant.
type Record struct {
	FirstName        string     `json:"firstName"`
	MiddleName       string     `json:"middleName"`
	LastName         string     `json:"lastName"`
	Nickname         string     `json:"nickname"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	BirthDate        *time.Time `json:"birthDate"`
	Address1         string     `json:"address1"`
	Address2         string     `json:"address2"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	ZipCode          string     `json:"zipCode"`
	BirthCityState   string     `json:"birthCityState"`
	ReferralSource   string     `json:"referralSource"`
	ReferrerName     string     `json:"referrerName"`
	IsDbnMember      string     `json:"isDbnMember"`
	MembershipStatus string     `json:"membershipStatus"`
	MembershipLevel  string     `json:"membershipLevel"`
	ShirtSize        string     `json:"shirtSize"`
	JacketSize       string     `json:"jacketSize"`
	CouponCode       string     `json:"couponCode"`
	TermsAccepted    bool       `json:"termsAccepted"`
}

// BirthDateString returns the birth date as YYYY-MM-DD or "".
func (r Record) BirthDateString() string {
	if r.BirthDate == nil {
		return ""
	}
	return r.BirthDate.Format(DateLayout)
}

type setter func(r *Record, v interface{}) error

func stringField(dst func(r *Record) *string) setter {
	return func(r *Record, v interface{}) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", v)
		}
		*dst(r) = s
		return nil
	}
}

var setters = map[Field]setter{
	FieldFirstName:        stringField(func(r *Record) *string { return &r.FirstName }),
	FieldMiddleName:       stringField(func(r *Record) *string { return &r.MiddleName }),
	FieldLastName:         stringField(func(r *Record) *string { return &r.LastName }),
	FieldNickname:         stringField(func(r *Record) *string { return &r.Nickname }),
	FieldEmail:            stringField(func(r *Record) *string { return &r.Email }),
	FieldAddress1:         stringField(func(r *Record) *string { return &r.Address1 }),
	FieldAddress2:         stringField(func(r *Record) *string { return &r.Address2 }),
	FieldCity:             stringField(func(r *Record) *string { return &r.City }),
	FieldState:            stringField(func(r *Record) *string { return &r.State }),
	FieldZipCode:          stringField(func(r *Record) *string { return &r.ZipCode }),
	FieldBirthCityState:   stringField(func(r *Record) *string { return &r.BirthCityState }),
	FieldReferralSource:   stringField(func(r *Record) *string { return &r.ReferralSource }),
	FieldReferrerName:     stringField(func(r *Record) *string { return &r.ReferrerName }),
	FieldIsDbnMember:      stringField(func(r *Record) *string { return &r.IsDbnMember }),
	FieldMembershipStatus: stringField(func(r *Record) *string { return &r.MembershipStatus }),
	FieldMembershipLevel:  stringField(func(r *Record) *string { return &r.MembershipLevel }),
	FieldShirtSize:        stringField(func(r *Record) *string { return &r.ShirtSize }),
	FieldJacketSize:       stringField(func(r *Record) *string { return &r.JacketSize }),
	FieldCouponCode:       stringField(func(r *Record) *string { return &r.CouponCode }),
	FieldPhone: func(r *Record, v interface{}) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected a string, got %T", v)
		}
		r.Phone = NormalizePhone(s)
		return nil
	},
	FieldTermsAccepted: func(r *Record, v interface{}) error {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected a boolean, got %T", v)
		}
		r.TermsAccepted = b
		return nil
	},
	FieldBirthDate: func(r *Record, v interface{}) error {
		switch val := v.(type) {
		case nil:
			r.BirthDate = nil
		case string:
			if strings.TrimSpace(val) == "" {
				r.BirthDate = nil
				return nil
			}
			d, err := time.Parse(DateLayout, val)
			if err != nil {
				return fmt.Errorf("expected YYYY-MM-DD")
			}
			r.BirthDate = &d
		case time.Time:
			r.BirthDate = &val
		default:
			return fmt.Errorf("expected a date string, got %T", v)
		}
		return nil
	},
}

// KnownField reports whether name is a settable record field.
func KnownField(name string) bool {
	_, ok := setters[Field(name)]
	return ok
}

// Set assigns one field. Unknown fields and wrongly typed values are
// reported as validation errors keyed by the field name.
func (r *Record) Set(field Field, value interface{}) error {
	set, ok := setters[field]
	if !ok {
		return apperrors.NewValidationError(map[string]string{string(field): "Unknown field"})
	}
	if err := set(r, value); err != nil {
		return apperrors.NewValidationError(map[string]string{string(field): err.Error()})
	}
	return nil
}
