package billing

import (
	"context"
	"time"

	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	"github.com/wayfarer-travel/wayfarer/internal/types"

	"github.com/shopspring/decimal"
)

// RefundReceipt is the billing backend's acknowledgement of a refund
type RefundReceipt struct {
	Amount decimal.Decimal `json:"amount"`
	// ProcessingTime is a display string like "3-5 business days"
	ProcessingTime string `json:"processingTime"`
}

// Payment is a single entry of the user's payment history
type Payment struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
}

// Client is the contract the core consumes from the billing backend.
// All calls require an authenticated context; a missing token is a
// precondition failure surfaced before any network call.
type Client interface {
	// GetCurrentSubscription returns the user's subscription snapshot,
	// or nil when the backend reports none exists
	GetCurrentSubscription(ctx context.Context) (*subscription.Subscription, error)

	// Cancel requests a cancellation. immediate=false schedules an
	// end-of-period cancellation that keeps entitlement until end date.
	Cancel(ctx context.Context, immediate bool) (*subscription.Subscription, error)

	// Reactivate undoes a pending end-of-period cancellation
	Reactivate(ctx context.Context) (*subscription.Subscription, error)

	// ChangePlan switches the subscription between user-selectable plans
	ChangePlan(ctx context.Context, plan types.PlanType) (*subscription.Subscription, error)

	// RequestRefund requests a full refund with immediate cancellation
	RequestRefund(ctx context.Context, reason string) (*RefundReceipt, error)

	// CheckRefundEligibility returns the backend's verdict on the
	// refund window
	CheckRefundEligibility(ctx context.Context) (*subscription.RefundEligibility, error)

	// StartCheckout opens a checkout session for the plan and returns
	// the redirect URL
	StartCheckout(ctx context.Context, plan types.PlanType) (string, error)

	// ListPayments returns the user's payment history
	ListPayments(ctx context.Context) ([]Payment, error)
}
