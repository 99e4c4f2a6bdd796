// internal/workers/onboarding/fulfillment-notice/models.go
package fulfillmentnotice

type Input struct {
	MembershipID    string `json:"membershipId"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	MembershipLevel string `json:"membershipLevel"`
	ShirtSize       string `json:"shirtSize"`
	JacketSize      string `json:"jacketSize"`
	Address1        string `json:"address1"`
	Address2        string `json:"address2"`
	City            string `json:"city"`
	State           string `json:"state"`
	ZipCode         string `json:"zipCode"`
}

type Output struct {
	FulfillmentMessageID string `json:"fulfillmentMessageId,omitempty"`
	FulfillmentStatus    string `json:"fulfillmentStatus"` // "requested", "disabled"
}

const (
	StatusRequested = "requested"
	StatusDisabled  = "disabled"
)
