package subscription

import (
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// Classify maps a subscription snapshot to exactly one lifecycle
// state. It is pure and total: every input, including nil and
// combinations the billing backend should never emit, maps to a state.
// The unexpected bucket exists precisely so this function never fails
// and callers always have something safe to render.
func Classify(sub *Subscription) types.LifecycleState {
	if sub == nil {
		return types.LifecycleStateNoSubscription
	}

	switch sub.Status {
	case types.SubscriptionStatusActive:
		if sub.IsActive && !sub.HasCancellationPending() {
			return types.LifecycleStateFullyActive
		}
		// The billing backend has been observed to leave status=active
		// on a refunded immediate cancellation. Access is revoked
		// regardless of the raw status.
		if sub.CancellationTypeIs(types.CancellationTypeImmediate) && sub.IsRefunded() {
			return types.LifecycleStateCanceledImmediateRefunded
		}
		return types.LifecycleStateUnexpected

	case types.SubscriptionStatusCanceled:
		if !sub.IsActive {
			return types.LifecycleStateExpired
		}
		if sub.CancellationTypeIs(types.CancellationTypeEndOfPeriod) {
			return types.LifecycleStateCanceledEndOfPeriod
		}
		if sub.CancellationTypeIs(types.CancellationTypeImmediate) {
			return types.LifecycleStateCanceledImmediateRefunded
		}
		return types.LifecycleStateUnexpected

	case types.SubscriptionStatusSuspended,
		types.SubscriptionStatusTrialing,
		types.SubscriptionStatusIncomplete:
		return types.LifecycleStateUnexpected

	default:
		return types.LifecycleStateUnexpected
	}
}

// EntitlementGranted reports whether the classified state grants
// premium access. isActive=false always revokes entitlement, and a
// refunded immediate cancellation revokes it even while the raw
// status still reads active.
func EntitlementGranted(sub *Subscription) bool {
	if sub == nil || !sub.IsActive {
		return false
	}

	switch Classify(sub) {
	case types.LifecycleStateFullyActive, types.LifecycleStateCanceledEndOfPeriod:
		return true
	default:
		return false
	}
}
