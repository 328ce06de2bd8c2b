package service

import (
	"github.com/wayfarer-travel/wayfarer/internal/api/dto"
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// BuildPanel maps a lifecycle state to the view descriptor the
// management screen renders. It is a pure selection: which block shows
// and which actions are enabled comes entirely from the classifier and
// the refund verdict, never from ad hoc branching in the view layer.
func BuildPanel(sub *subscription.Subscription, eligibility *subscription.RefundEligibility) *dto.PanelResponse {
	state := subscription.Classify(sub)

	resp := &dto.PanelResponse{
		Eligibility: eligibility,
	}
	if sub != nil {
		resp.Subscription = dto.NewSubscriptionResponse(sub)
	}

	refundable := eligibility != nil && eligibility.Eligible

	switch state {
	case types.LifecycleStateNoSubscription:
		resp.View = dto.PanelView{
			State:       state,
			Title:       "No active subscription",
			Description: "Discover our premium plans to unlock every feature.",
			Actions:     []dto.PanelAction{dto.PanelActionResubscribe},
		}

	case types.LifecycleStateFullyActive:
		actions := []dto.PanelAction{dto.PanelActionChangePlan, dto.PanelActionCancel}
		if refundable {
			actions = append(actions, dto.PanelActionRequestRefund)
		}
		actions = append(actions, dto.PanelActionViewPayments)
		resp.View = dto.PanelView{
			State:       state,
			Title:       "My premium subscription",
			Badge:       "Active",
			Description: "Manage your subscription, change plan or cancel at any time.",
			Actions:     actions,
		}

	case types.LifecycleStateCanceledEndOfPeriod:
		actions := []dto.PanelAction{dto.PanelActionReactivate}
		if refundable {
			actions = append(actions, dto.PanelActionRequestRefund)
		}
		resp.View = dto.PanelView{
			State:       state,
			Title:       "Subscription canceled",
			Badge:       "Expires soon",
			Description: "Your subscription has been canceled but stays active until it expires.",
			Actions:     actions,
		}

	case types.LifecycleStateCanceledImmediateRefunded:
		resp.View = dto.PanelView{
			State:       state,
			Title:       "Refund processed",
			Badge:       "Refunded",
			Description: "Your refund request has been processed. Premium access has been suspended.",
			Actions:     []dto.PanelAction{dto.PanelActionResubscribe, dto.PanelActionViewPayments},
		}

	case types.LifecycleStateExpired:
		resp.View = dto.PanelView{
			State:       state,
			Title:       "Subscription expired",
			Description: "Your premium subscription has expired. Renew it to regain access to every feature.",
			Actions:     []dto.PanelAction{dto.PanelActionResubscribe},
		}

	default:
		// safe diagnostic rendering for unmodeled combinations
		resp.View = dto.PanelView{
			State:       types.LifecycleStateUnexpected,
			Title:       "Unexpected subscription state",
			Description: "The subscription is in an unrecognized state.",
			Actions:     []dto.PanelAction{dto.PanelActionRefresh},
			Diagnostic:  diagnosticFields(sub),
		}
	}

	return resp
}

func diagnosticFields(sub *subscription.Subscription) map[string]any {
	if sub == nil {
		return nil
	}

	fields := map[string]any{
		"status":   sub.Status,
		"isActive": sub.IsActive,
		"plan":     sub.Plan,
	}
	if sub.CancellationType != nil {
		fields["cancelationType"] = *sub.CancellationType
	}
	if sub.RefundStatus != "" {
		fields["refundStatus"] = sub.RefundStatus
	}
	if sub.EndDate != nil {
		fields["endDate"] = sub.EndDate
	}
	return fields
}
