package dto

import (
	"fmt"

	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// PanelAction is an action the management screen may offer
type PanelAction string

const (
	PanelActionCancel        PanelAction = "cancel"
	PanelActionReactivate    PanelAction = "reactivate"
	PanelActionChangePlan    PanelAction = "change_plan"
	PanelActionRequestRefund PanelAction = "request_refund"
	PanelActionResubscribe   PanelAction = "resubscribe"
	PanelActionViewPayments  PanelAction = "view_payments"
	PanelActionRefresh       PanelAction = "refresh"
)

// PanelResponse is the full state of the premium-access management
// screen: the view descriptor plus the data it renders from
type PanelResponse struct {
	View         PanelView                       `json:"view"`
	Subscription *SubscriptionResponse           `json:"subscription,omitempty"`
	Eligibility  *subscription.RefundEligibility `json:"refundEligibility,omitempty"`
}

// PanelView describes which block the screen renders and which actions
// are enabled. It owns no business logic: everything here is derived
// from the lifecycle state and the refund verdict.
type PanelView struct {
	State       types.LifecycleState `json:"state"`
	Title       string               `json:"title"`
	Badge       string               `json:"badge,omitempty"`
	Description string               `json:"description"`
	Actions     []PanelAction        `json:"actions"`
	// Diagnostic carries the raw fields for the unexpected state so
	// the screen can render a debug block instead of crashing
	Diagnostic map[string]any `json:"diagnostic,omitempty"`
}

// FormatStatusLine renders the one-line subscription summary shown in
// the profile sidebar
func FormatStatusLine(sub *subscription.Subscription) string {
	if sub == nil {
		return "No subscription"
	}

	switch subscription.Classify(sub) {
	case types.LifecycleStateFullyActive:
		return "Active"
	case types.LifecycleStateCanceledEndOfPeriod:
		if sub.DaysRemaining != nil && *sub.DaysRemaining > 0 {
			if *sub.DaysRemaining == 1 {
				return "Canceled (expires in 1 day)"
			}
			return fmt.Sprintf("Canceled (expires in %d days)", *sub.DaysRemaining)
		}
		return "Canceled (expires soon)"
	case types.LifecycleStateCanceledImmediateRefunded:
		return "Refunded"
	case types.LifecycleStateExpired:
		return "Expired"
	case types.LifecycleStateNoSubscription:
		return "No subscription"
	default:
		return sub.Status.String()
	}
}
