package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wayfarer-travel/wayfarer/internal/billing"
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// InMemoryBillingClient is an instrumented fake of the billing backend.
// Every method counts its invocations so tests can assert which network
// calls an operation did, or did not, make.
type InMemoryBillingClient struct {
	mu sync.Mutex

	// Subscription is the snapshot the fake backend holds; mutations
	// update it the way the real backend would
	Subscription *subscription.Subscription

	// Eligibility is returned by CheckRefundEligibility when set
	Eligibility *subscription.RefundEligibility

	// Receipt is returned by RequestRefund when set
	Receipt *billing.RefundReceipt

	Payments    []billing.Payment
	CheckoutURL string

	errors map[string]error
	calls  map[string]int
}

func NewInMemoryBillingClient() *InMemoryBillingClient {
	return &InMemoryBillingClient{
		errors: make(map[string]error),
		calls:  make(map[string]int),
	}
}

// ScriptError makes the named method fail with err until cleared
func (c *InMemoryBillingClient) ScriptError(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.errors, method)
		return
	}
	c.errors[method] = err
}

// CallCount returns how many times the named method was invoked
func (c *InMemoryBillingClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// TotalCalls returns the number of invocations across all methods
func (c *InMemoryBillingClient) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *InMemoryBillingClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Subscription = nil
	c.Eligibility = nil
	c.Receipt = nil
	c.Payments = nil
	c.CheckoutURL = ""
	c.errors = make(map[string]error)
	c.calls = make(map[string]int)
}

func (c *InMemoryBillingClient) record(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method]++
	return c.errors[method]
}

func (c *InMemoryBillingClient) GetCurrentSubscription(_ context.Context) (*subscription.Subscription, error) {
	if err := c.record("GetCurrentSubscription"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Subscription, nil
}

func (c *InMemoryBillingClient) Cancel(_ context.Context, immediate bool) (*subscription.Subscription, error) {
	if err := c.record("Cancel"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Subscription != nil {
		ct := types.CancellationTypeEndOfPeriod
		if immediate {
			ct = types.CancellationTypeImmediate
			c.Subscription.Status = types.SubscriptionStatusCanceled
			c.Subscription.IsActive = false
		} else {
			c.Subscription.Status = types.SubscriptionStatusCanceled
		}
		c.Subscription.CancellationType = &ct
	}
	return c.Subscription, nil
}

func (c *InMemoryBillingClient) Reactivate(_ context.Context) (*subscription.Subscription, error) {
	if err := c.record("Reactivate"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Subscription != nil {
		c.Subscription.Status = types.SubscriptionStatusActive
		c.Subscription.IsActive = true
		c.Subscription.CancellationType = nil
	}
	return c.Subscription, nil
}

func (c *InMemoryBillingClient) ChangePlan(_ context.Context, plan types.PlanType) (*subscription.Subscription, error) {
	if err := c.record("ChangePlan"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Subscription != nil {
		c.Subscription.Plan = plan
	}
	return c.Subscription, nil
}

func (c *InMemoryBillingClient) RequestRefund(_ context.Context, _ string) (*billing.RefundReceipt, error) {
	if err := c.record("RequestRefund"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Subscription != nil {
		ct := types.CancellationTypeImmediate
		c.Subscription.Status = types.SubscriptionStatusCanceled
		c.Subscription.IsActive = false
		c.Subscription.CancellationType = &ct
		c.Subscription.RefundStatus = "processing"
	}
	if c.Receipt != nil {
		return c.Receipt, nil
	}
	return &billing.RefundReceipt{
		Amount:         decimal.NewFromInt(999).Div(decimal.NewFromInt(100)),
		ProcessingTime: "3-5 business days",
	}, nil
}

func (c *InMemoryBillingClient) CheckRefundEligibility(_ context.Context) (*subscription.RefundEligibility, error) {
	if err := c.record("CheckRefundEligibility"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Eligibility != nil {
		return c.Eligibility, nil
	}
	return &subscription.RefundEligibility{Eligible: true, MaxRefundDays: 14}, nil
}

func (c *InMemoryBillingClient) StartCheckout(_ context.Context, _ types.PlanType) (string, error) {
	if err := c.record("StartCheckout"); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CheckoutURL != "" {
		return c.CheckoutURL, nil
	}
	return "https://checkout.example.com/session/test", nil
}

func (c *InMemoryBillingClient) ListPayments(_ context.Context) ([]billing.Payment, error) {
	if err := c.record("ListPayments"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Payments, nil
}

// ActiveSubscription returns a fully active monthly subscription that
// started the given number of days ago
func ActiveSubscription(startedDaysAgo int) *subscription.Subscription {
	return &subscription.Subscription{
		ID:        "sub_test_00000001",
		Plan:      types.PlanTypeMonthly,
		Status:    types.SubscriptionStatusActive,
		IsActive:  true,
		StartDate: time.Now().UTC().AddDate(0, 0, -startedDaysAgo),
	}
}

// CanceledEndOfPeriodSubscription returns a subscription with a pending
// end-of-period cancellation and the given days of entitlement left
func CanceledEndOfPeriodSubscription(startedDaysAgo, daysRemaining int) *subscription.Subscription {
	ct := types.CancellationTypeEndOfPeriod
	end := time.Now().UTC().AddDate(0, 0, daysRemaining)
	return &subscription.Subscription{
		ID:               "sub_test_00000001",
		Plan:             types.PlanTypeMonthly,
		Status:           types.SubscriptionStatusCanceled,
		IsActive:         true,
		StartDate:        time.Now().UTC().AddDate(0, 0, -startedDaysAgo),
		EndDate:          &end,
		CancellationType: &ct,
		DaysRemaining:    &daysRemaining,
	}
}
