// internal/workers/onboarding/welcome-email/models.go
package welcomeemail

// Input is the subset of the onboarding process variables this worker reads.
type Input struct {
	MembershipID     string  `json:"membershipId"`
	Email            string  `json:"email"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Nickname         string  `json:"nickname"`
	MembershipStatus string  `json:"membershipStatus"`
	MembershipLevel  string  `json:"membershipLevel"`
	TotalPrice       float64 `json:"totalPrice"`
	PaymentIntentID  string  `json:"paymentIntentId"`
}

type Output struct {
	WelcomeMessageID string `json:"welcomeMessageId,omitempty"`
	WelcomeStatus    string `json:"welcomeStatus"` // "sent", "disabled"
	WelcomeSentAt    string `json:"welcomeSentAt,omitempty"`
}

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)
