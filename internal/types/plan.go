package types

import (
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"

	"github.com/samber/lo"
)

// PlanType is the billing plan attached to a subscription
type PlanType string

const (
	PlanTypeFree    PlanType = "free"
	PlanTypeMonthly PlanType = "monthly"
	PlanTypeAnnual  PlanType = "annual"
	PlanTypePremium PlanType = "premium"
)

func (p PlanType) String() string {
	return string(p)
}

func (p PlanType) Validate() error {
	allowed := []PlanType{
		PlanTypeFree,
		PlanTypeMonthly,
		PlanTypeAnnual,
		PlanTypePremium,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid plan type").
			WithHint("Invalid plan type").
			WithReportableDetails(map[string]any{
				"plan":          p,
				"allowed_plans": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsPaid reports whether the plan grants premium entitlement when active
func (p PlanType) IsPaid() bool {
	return p == PlanTypeMonthly || p == PlanTypeAnnual || p == PlanTypePremium
}

// UserSelectable reports whether the plan is a valid target of a
// user-initiated plan change. Only the monthly <-> annual switch is
// exposed to users; free and premium are assigned server side.
func (p PlanType) UserSelectable() bool {
	return p == PlanTypeMonthly || p == PlanTypeAnnual
}

// DisplayName returns the user-facing plan label
func (p PlanType) DisplayName() string {
	switch p {
	case PlanTypeFree:
		return "Free"
	case PlanTypeMonthly:
		return "Monthly"
	case PlanTypeAnnual:
		return "Annual"
	case PlanTypePremium:
		return "Premium"
	default:
		return string(p)
	}
}
