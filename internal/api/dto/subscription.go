package dto

import (
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"
	"github.com/wayfarer-travel/wayfarer/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// SubscriptionResponse wraps the raw subscription snapshot with its
// derived lifecycle state and display fields
type SubscriptionResponse struct {
	*subscription.Subscription
	State       types.LifecycleState `json:"state"`
	PlanDisplay string               `json:"planDisplay,omitempty"`
	StatusLine  string               `json:"statusLine"`
}

func NewSubscriptionResponse(sub *subscription.Subscription) *SubscriptionResponse {
	resp := &SubscriptionResponse{
		Subscription: sub,
		State:        subscription.Classify(sub),
		StatusLine:   FormatStatusLine(sub),
	}
	if sub != nil {
		resp.PlanDisplay = sub.Plan.DisplayName()
	}
	return resp
}

type CancelSubscriptionRequest struct {
	Immediate bool `json:"immediate"`
}

type ChangePlanRequest struct {
	NewPlan types.PlanType `json:"newPlan" validate:"required"`
}

func (r *ChangePlanRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return ierr.WithError(err).
			WithHint("Request validation failed").
			Mark(ierr.ErrValidation)
	}
	if err := r.NewPlan.Validate(); err != nil {
		return err
	}
	if !r.NewPlan.UserSelectable() {
		return ierr.NewError("plan is not user selectable").
			WithHint("Only the monthly and annual plans can be selected").
			WithReportableDetails(map[string]any{
				"plan": r.NewPlan,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"max=500"`
	// Confirmed must be set by the caller after an explicit user
	// confirmation step: a refund is irreversible
	Confirmed bool `json:"confirmed"`
}

func (r *RefundRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return ierr.WithError(err).
			WithHint("The refund reason must be at most 500 characters").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type RefundResponse struct {
	Amount         decimal.Decimal       `json:"amount"`
	ProcessingTime string                `json:"processingTime"`
	Subscription   *SubscriptionResponse `json:"subscription"`
	Role           types.UserRole        `json:"role"`
}

type RefundEligibilityResponse struct {
	subscription.RefundEligibility
}

type CheckoutRequest struct {
	Plan types.PlanType `json:"plan" validate:"required"`
}

func (r *CheckoutRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return ierr.WithError(err).
			WithHint("Request validation failed").
			Mark(ierr.ErrValidation)
	}
	if err := r.Plan.Validate(); err != nil {
		return err
	}
	if !r.Plan.UserSelectable() {
		return ierr.NewError("plan is not user selectable").
			WithHint("Only the monthly and annual plans can be purchased").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// ActionResponse is the common result of a mutating subscription
// action: the refreshed snapshot and the re-derived role, fetched
// after the billing backend confirmed the mutation
type ActionResponse struct {
	Message      string                `json:"message"`
	Subscription *SubscriptionResponse `json:"subscription"`
	Role         types.UserRole        `json:"role"`
}

// AccountResponse is the profile sidebar summary: who the user is and
// a one-line subscription status
type AccountResponse struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	FirstName  string         `json:"firstName,omitempty"`
	LastName   string         `json:"lastName,omitempty"`
	Role       types.UserRole `json:"role"`
	StatusLine string         `json:"subscriptionStatus"`
}

type ListPaymentsResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Total    int               `json:"total"`
}

type PaymentResponse struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
}
