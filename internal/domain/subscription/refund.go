package subscription

import (
	"time"

	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// RefundEligibility is the verdict of the refund window check. It is
// always derived, never user-writable, and recomputed on every load of
// the subscription panel and after every mutating action.
type RefundEligibility struct {
	Eligible               bool   `json:"eligible"`
	DaysSinceStart         int    `json:"daysSinceStart"`
	DaysRemainingForRefund int    `json:"daysRemainingForRefund"`
	MaxRefundDays          int    `json:"maxRefundDays"`
	Reason                 string `json:"reason,omitempty"`
}

const (
	ReasonNoSubscription     = "no subscription found"
	ReasonStateNotRefundable = "subscription state does not allow a refund"
	ReasonWindowElapsed      = "the refund window has elapsed"
	ReasonVerificationFailed = "verification failed"
)

// CheckEligibility computes the refund verdict for a subscription at
// the given instant. Days are counted in whole elapsed days since the
// start date; eligibility is monotonic in now.
func CheckEligibility(sub *Subscription, now time.Time, maxRefundDays int) RefundEligibility {
	if sub == nil {
		return RefundEligibility{
			Eligible:      false,
			MaxRefundDays: maxRefundDays,
			Reason:        ReasonNoSubscription,
		}
	}

	// Refunds are only meaningful while entitlement is still granted
	switch Classify(sub) {
	case types.LifecycleStateFullyActive, types.LifecycleStateCanceledEndOfPeriod:
	default:
		return RefundEligibility{
			Eligible:      false,
			MaxRefundDays: maxRefundDays,
			Reason:        ReasonStateNotRefundable,
		}
	}

	daysSinceStart := int(now.Sub(sub.StartDate).Hours() / 24)
	if daysSinceStart < 0 {
		daysSinceStart = 0
	}

	remaining := maxRefundDays - daysSinceStart
	if remaining < 0 {
		remaining = 0
	}

	eligibility := RefundEligibility{
		Eligible:               daysSinceStart <= maxRefundDays,
		DaysSinceStart:         daysSinceStart,
		DaysRemainingForRefund: remaining,
		MaxRefundDays:          maxRefundDays,
	}
	if !eligibility.Eligible {
		eligibility.Reason = ReasonWindowElapsed
	}

	return eligibility
}

// FailClosed is the eligibility verdict used when the billing backend
// cannot be reached: never default to eligible.
func FailClosed(maxRefundDays int) RefundEligibility {
	return RefundEligibility{
		Eligible:      false,
		MaxRefundDays: maxRefundDays,
		Reason:        ReasonVerificationFailed,
	}
}
