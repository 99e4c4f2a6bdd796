package wizard

import "membership-signup/internal/signup/form"

// Step is one wizard page. Fields are validated before advancing; Optional
// fields are shown on the page but carry no rule.
type Step struct {
	Number   int          `json:"number"`
	Title    string       `json:"title"`
	Fields   []form.Field `json:"fields"`
	Optional []form.Field `json:"optional,omitempty"`
}

const (
	StepPersonal = iota + 1
	StepAddress
	StepMembership
	StepTerms
	StepPayment
)

// Steps in wizard order.
var Steps = []Step{
	{Number: StepPersonal, Title: "Personal Info", Fields: []form.Field{
		form.FieldFirstName, form.FieldLastName, form.FieldNickname,
		form.FieldEmail, form.FieldPhone, form.FieldBirthDate,
	}, Optional: []form.Field{form.FieldMiddleName}},
	{Number: StepAddress, Title: "Address & Origin", Fields: []form.Field{
		form.FieldAddress1, form.FieldCity, form.FieldState, form.FieldZipCode,
		form.FieldReferralSource, form.FieldBirthCityState, form.FieldReferrerName,
	}, Optional: []form.Field{form.FieldAddress2}},
	{Number: StepMembership, Title: "Membership", Fields: []form.Field{
		form.FieldMembershipStatus, form.FieldMembershipLevel,
		form.FieldShirtSize, form.FieldJacketSize, form.FieldIsDbnMember,
	}},
	{Number: StepTerms, Title: "Review & Terms", Fields: []form.Field{
		form.FieldTermsAccepted,
	}, Optional: []form.Field{form.FieldCouponCode}},
	{Number: StepPayment, Title: "Payment"},
}

// LastStep is the highest step number.
var LastStep = len(Steps)

// StepAt returns the step with number n, clamped to the valid range.
func StepAt(n int) Step {
	return Steps[clamp(n)-1]
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > LastStep {
		return LastStep
	}
	return n
}

// StepOf returns the step number that shows field, or 0.
func StepOf(field form.Field) int {
	for _, s := range Steps {
		for _, f := range s.Fields {
			if f == field {
				return s.Number
			}
		}
		for _, f := range s.Optional {
			if f == field {
				return s.Number
			}
		}
	}
	return 0
}
