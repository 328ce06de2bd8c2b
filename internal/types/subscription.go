package types

import (
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"

	"github.com/samber/lo"
)

// SubscriptionStatus is the raw status of a subscription as reported by
// the billing backend. Entitlement is tracked separately via the
// is_active flag, so status alone never decides premium access.
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusSuspended  SubscriptionStatus = "suspended"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusCanceled,
		SubscriptionStatusSuspended,
		SubscriptionStatusTrialing,
		SubscriptionStatusIncomplete,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CancellationType records how a pending cancellation takes effect.
// It is only present on a record while a cancellation is in flight.
type CancellationType string

const (
	// CancellationTypeImmediate revokes access now, typically paired
	// with a refund
	CancellationTypeImmediate CancellationType = "immediate"
	// CancellationTypeEndOfPeriod keeps entitlement until end_date
	CancellationTypeEndOfPeriod CancellationType = "end_of_period"
)

func (c CancellationType) String() string {
	return string(c)
}

func (c CancellationType) Validate() error {
	allowed := []CancellationType{
		CancellationTypeImmediate,
		CancellationTypeEndOfPeriod,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid cancellation type").
			WithHint("Invalid cancellation type").
			WithReportableDetails(map[string]any{
				"cancellation_type": c,
				"allowed_values":    allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LifecycleState is the six-way canonical classification of a
// subscription. It is always derived, never stored, and drives every
// UI and action-gating decision.
type LifecycleState string

const (
	// LifecycleStateNoSubscription means no record exists for the user
	LifecycleStateNoSubscription LifecycleState = "no_subscription"

	// LifecycleStateFullyActive is an active, entitled subscription
	// with no cancellation in flight
	LifecycleStateFullyActive LifecycleState = "fully_active"

	// LifecycleStateCanceledEndOfPeriod is canceled but keeps
	// entitlement until end_date
	LifecycleStateCanceledEndOfPeriod LifecycleState = "canceled_end_of_period"

	// LifecycleStateCanceledImmediateRefunded is canceled with an
	// immediate cancellation and a processed refund; access is revoked
	// even if the raw status still reads active
	LifecycleStateCanceledImmediateRefunded LifecycleState = "canceled_immediate_refunded"

	// LifecycleStateExpired is canceled with entitlement already lapsed
	LifecycleStateExpired LifecycleState = "expired"

	// LifecycleStateUnexpected is the catch-all for combinations not
	// modeled above. It renders a diagnostic view, never a crash.
	LifecycleStateUnexpected LifecycleState = "unexpected"
)

func (s LifecycleState) String() string {
	return string(s)
}

// Terminal reports whether the state admits no further user-initiated
// mutation besides resubscribing
func (s LifecycleState) Terminal() bool {
	return s == LifecycleStateCanceledImmediateRefunded || s == LifecycleStateExpired
}
