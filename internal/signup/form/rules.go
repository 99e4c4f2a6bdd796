package form

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	phonePattern = regexp.MustCompile(`^([+]?[\s0-9]+)?(\d{3}|[(]?[0-9]+[)])?([-]?[\s]?[0-9])+$`)
	emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9_'+\-.]*[A-Z0-9_+\-]@([A-Z0-9][A-Z0-9\-]*\.)+[A-Z]{2,}$`)
)

var (
	ReferralSources    = []string{"returning", "social", "website", "referral", "other"}
	DbnMemberAnswers   = []string{"yes", "no"}
	MembershipStatuses = []string{StatusNew, StatusCurrent, StatusPast}
	Sizes              = []string{"Small", "Medium", "Large", "XL", "2X", "3X"}
)

const (
	minAge = 18
	maxAge = 120
)

// Result is the outcome of validating a set of fields.
type Result struct {
	Valid  bool             `json:"valid"`
	Errors map[Field]string `json:"errors,omitempty"`
}

// Messages returns the errors keyed by plain string field names.
func (r Result) Messages() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for f, msg := range r.Errors {
		out[string(f)] = msg
	}
	return out
}

// Failed lists the failing fields in a stable order.
func (r Result) Failed() []Field {
	out := make([]Field, 0, len(r.Errors))
	for f := range r.Errors {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type rule func(r Record, now time.Time) (string, bool)

func minLen(get func(Record) string, n int, msg string) rule {
	return func(r Record, _ time.Time) (string, bool) {
		return msg, utf8.RuneCountInString(get(r)) >= n
	}
}

func oneOf(get func(Record) string, allowed []string, msg string) rule {
	return func(r Record, _ time.Time) (string, bool) {
		v := get(r)
		for _, a := range allowed {
			if v == a {
				return msg, true
			}
		}
		return msg, false
	}
}

var rules = map[Field][]rule{
	FieldFirstName: {minLen(func(r Record) string { return r.FirstName }, 2, "First name is required")},
	FieldLastName:  {minLen(func(r Record) string { return r.LastName }, 2, "Last name is required")},
	FieldNickname:  {minLen(func(r Record) string { return r.Nickname }, 1, "Nickname is required (or N/A)")},
	FieldEmail: {func(r Record, _ time.Time) (string, bool) {
		return "Invalid email address", IsEmail(r.Email)
	}},
	FieldPhone: {func(r Record, _ time.Time) (string, bool) {
		return "Invalid phone number", phonePattern.MatchString(r.Phone)
	}},
	FieldBirthDate: {
		func(r Record, _ time.Time) (string, bool) {
			return "Date of birth is required", r.BirthDate != nil
		},
		func(r Record, now time.Time) (string, bool) {
			// year difference only, month and day are ignored
			age := now.Year() - r.BirthDate.Year()
			return "You must be at least 18 years old", age >= minAge && age <= maxAge
		},
	},
	FieldAddress1:       {minLen(func(r Record) string { return r.Address1 }, 5, "Address is required")},
	FieldCity:           {minLen(func(r Record) string { return r.City }, 2, "City is required")},
	FieldState:          {minLen(func(r Record) string { return r.State }, 2, "State is required")},
	FieldZipCode:        {minLen(func(r Record) string { return r.ZipCode }, 5, "Zip code is required")},
	FieldBirthCityState: {minLen(func(r Record) string { return r.BirthCityState }, 2, "Birth city and state is required")},
	FieldReferralSource: {minLen(func(r Record) string { return r.ReferralSource }, 1, "Please select how you heard about us")},
	FieldReferrerName: {func(r Record, _ time.Time) (string, bool) {
		return "Referrer name is required", r.ReferralSource != "referral" || r.ReferrerName != ""
	}},
	FieldIsDbnMember:      {oneOf(func(r Record) string { return r.IsDbnMember }, DbnMemberAnswers, "Please select if you are a DBN member")},
	FieldMembershipStatus: {oneOf(func(r Record) string { return r.MembershipStatus }, MembershipStatuses, "Please select your membership status")},
	FieldMembershipLevel: {func(r Record, _ time.Time) (string, bool) {
		return "Please select a membership level", LevelOffered(r.MembershipStatus, r.MembershipLevel)
	}},
	FieldShirtSize:     {oneOf(func(r Record) string { return r.ShirtSize }, Sizes, "Shirt size is required")},
	FieldJacketSize:    {oneOf(func(r Record) string { return r.JacketSize }, Sizes, "Jacket size is required")},
	FieldTermsAccepted: {func(r Record, _ time.Time) (string, bool) { return "You must accept the terms and conditions", r.TermsAccepted }},
}

// AllFields lists every field that carries a rule.
func AllFields() []Field {
	out := make([]Field, 0, len(rules))
	for f := range rules {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks only the given fields against the record. Each field
// reports its first failing rule.
func Validate(r Record, fields ...Field) Result {
	return ValidateAt(r, time.Now(), fields...)
}

// ValidateAt is Validate with an explicit clock for the age rule.
func ValidateAt(r Record, now time.Time, fields ...Field) Result {
	res := Result{Valid: true}
	for _, f := range fields {
		for _, check := range rules[f] {
			if msg, ok := check(r, now); !ok {
				if res.Errors == nil {
					res.Errors = map[Field]string{}
				}
				res.Errors[f] = msg
				res.Valid = false
				break
			}
		}
	}
	return res
}

// IsEmail applies the address shape accepted by the signup form: no leading
// dot, no consecutive dots and a dotted domain with an alphabetic TLD.
func IsEmail(s string) bool {
	if strings.HasPrefix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	return emailPattern.MatchString(s)
}
