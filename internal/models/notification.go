// internal/models/notification.go
package models

// Notification event types published on SNS topics.
const (
	EventFulfillmentRequested = "membership.fulfillment_requested"
	EventPersistenceFailed    = "membership.persistence_failed"
)

// FulfillmentNotice asks the merchandise team to ship the member's apparel.
type FulfillmentNotice struct {
	MembershipID    string `json:"membershipId"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	MembershipLevel string `json:"membershipLevel"`
	ShirtSize       string `json:"shirtSize"`
	JacketSize      string `json:"jacketSize"`
	ShippingAddress string `json:"shippingAddress"`
}

// PersistenceAlert reports a captured payment whose submission was not stored.
type PersistenceAlert struct {
	PaymentIntentID string  `json:"paymentIntentId"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	MembershipLevel string  `json:"membershipLevel"`
	TotalPrice      float64 `json:"totalPrice"`
	Error           string  `json:"error"`
	OccurredAt      string  `json:"occurredAt"`
}
