package subscription

import (
	"time"

	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// Subscription is a snapshot of a subscription as returned by the
// billing backend. It is immutable until refetched: mutating actions
// never patch it locally, they re-read it after the backend confirms.
type Subscription struct {
	// ID is the identifier issued by the billing backend
	ID string `json:"id"`

	// Plan is the billing plan attached to the subscription
	Plan types.PlanType `json:"plan"`

	// Status is the raw billing status. Entitlement is tracked by
	// IsActive independently of this field.
	Status types.SubscriptionStatus `json:"status"`

	// IsActive is whether premium entitlement is currently granted
	IsActive bool `json:"isActive"`

	// StartDate is the start of the subscription, immutable once set
	StartDate time.Time `json:"startDate"`

	// EndDate is when entitlement will cease, set on cancellation or
	// plan expiry
	EndDate *time.Time `json:"endDate,omitempty"`

	// CancellationType is present only while a cancellation has been
	// requested
	CancellationType *types.CancellationType `json:"cancelationType,omitempty"`

	// RefundStatus is non-empty once a refund has been processed
	RefundStatus string `json:"refundStatus,omitempty"`

	// DaysRemaining is the server-supplied count of days until EndDate
	DaysRemaining *int `json:"daysRemaining,omitempty"`

	// PaymentMethod is an opaque display string
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

// IsRefunded reports whether a refund has been processed for this
// subscription. The backend writes "none" as a placeholder, so only a
// non-empty value other than "none" counts.
func (s *Subscription) IsRefunded() bool {
	return s.RefundStatus != "" && s.RefundStatus != "none"
}

// HasCancellationPending reports whether a cancellation request is in
// flight. A second cancel request while one is pending must be
// rejected, not queued.
func (s *Subscription) HasCancellationPending() bool {
	return s.CancellationType != nil
}

// CancellationTypeIs reports whether a pending cancellation matches t
func (s *Subscription) CancellationTypeIs(t types.CancellationType) bool {
	return s.CancellationType != nil && *s.CancellationType == t
}
