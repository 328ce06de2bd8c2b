package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

func TestFormatStatusLine(t *testing.T) {
	start := time.Now().UTC().AddDate(0, 0, -10)
	ctEnd := types.CancellationTypeEndOfPeriod
	ctNow := types.CancellationTypeImmediate

	days := func(n int) *int { return &n }

	tests := []struct {
		name string
		sub  *subscription.Subscription
		want string
	}{
		{"nil", nil, "No subscription"},
		{
			"active",
			&subscription.Subscription{
				Status:    types.SubscriptionStatusActive,
				IsActive:  true,
				StartDate: start,
			},
			"Active",
		},
		{
			"canceled with days remaining",
			&subscription.Subscription{
				Status:           types.SubscriptionStatusCanceled,
				IsActive:         true,
				StartDate:        start,
				CancellationType: &ctEnd,
				DaysRemaining:    days(12),
			},
			"Canceled (expires in 12 days)",
		},
		{
			"canceled with one day remaining",
			&subscription.Subscription{
				Status:           types.SubscriptionStatusCanceled,
				IsActive:         true,
				StartDate:        start,
				CancellationType: &ctEnd,
				DaysRemaining:    days(1),
			},
			"Canceled (expires in 1 day)",
		},
		{
			"canceled without server day count",
			&subscription.Subscription{
				Status:           types.SubscriptionStatusCanceled,
				IsActive:         true,
				StartDate:        start,
				CancellationType: &ctEnd,
			},
			"Canceled (expires soon)",
		},
		{
			"refunded",
			&subscription.Subscription{
				Status:           types.SubscriptionStatusCanceled,
				IsActive:         true,
				StartDate:        start,
				CancellationType: &ctNow,
				RefundStatus:     "processed",
			},
			"Refunded",
		},
		{
			"expired",
			&subscription.Subscription{
				Status:    types.SubscriptionStatusCanceled,
				IsActive:  false,
				StartDate: start,
			},
			"Expired",
		},
		{
			"unexpected falls back to the raw status",
			&subscription.Subscription{
				Status:    types.SubscriptionStatusSuspended,
				IsActive:  true,
				StartDate: start,
			},
			"suspended",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatStatusLine(tt.sub))
		})
	}
}

func TestChangePlanRequestValidate(t *testing.T) {
	assert.NoError(t, (&ChangePlanRequest{NewPlan: types.PlanTypeMonthly}).Validate())
	assert.NoError(t, (&ChangePlanRequest{NewPlan: types.PlanTypeAnnual}).Validate())
	assert.Error(t, (&ChangePlanRequest{}).Validate())
	assert.Error(t, (&ChangePlanRequest{NewPlan: types.PlanTypeFree}).Validate())
	assert.Error(t, (&ChangePlanRequest{NewPlan: types.PlanType("lifetime")}).Validate())
}

func TestRefundRequestValidate(t *testing.T) {
	assert.NoError(t, (&RefundRequest{Reason: "too expensive", Confirmed: true}).Validate())
	assert.NoError(t, (&RefundRequest{}).Validate())

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, (&RefundRequest{Reason: string(long)}).Validate())
}
