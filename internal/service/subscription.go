package service

import (
	"context"
	"time"

	"github.com/wayfarer-travel/wayfarer/internal/api/dto"
	"github.com/wayfarer-travel/wayfarer/internal/auth"
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"
	"github.com/wayfarer-travel/wayfarer/internal/types"

	"github.com/cockroachdb/errors"
)

// SubscriptionService is the action gateway for the premium-access
// management screen. Every mutating action validates its precondition
// against the classified lifecycle state before any network call,
// invokes the billing backend, and on success synchronizes the
// entitlement role before reporting back, so displayed role and
// available actions are never stale even for one render.
type SubscriptionService interface {
	GetCurrentSubscription(ctx context.Context) (*dto.SubscriptionResponse, error)
	GetPanel(ctx context.Context) (*dto.PanelResponse, error)
	GetAccount(ctx context.Context) (*dto.AccountResponse, error)
	Cancel(ctx context.Context, req *dto.CancelSubscriptionRequest) (*dto.ActionResponse, error)
	Reactivate(ctx context.Context) (*dto.ActionResponse, error)
	ChangePlan(ctx context.Context, req *dto.ChangePlanRequest) (*dto.ActionResponse, error)
	RequestRefund(ctx context.Context, req *dto.RefundRequest) (*dto.RefundResponse, error)
	CheckRefundEligibility(ctx context.Context) (*dto.RefundEligibilityResponse, error)
	StartCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	HandlePaymentSuccess(ctx context.Context) (*dto.ActionResponse, error)
	ListPayments(ctx context.Context) (*dto.ListPaymentsResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) GetCurrentSubscription(ctx context.Context) (*dto.SubscriptionResponse, error) {
	sub, err := s.refetchRecord(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) GetPanel(ctx context.Context) (*dto.PanelResponse, error) {
	sub, err := s.refetchRecord(ctx)
	if err != nil {
		return nil, err
	}

	var eligibility *subscription.RefundEligibility
	switch subscription.Classify(sub) {
	case types.LifecycleStateFullyActive, types.LifecycleStateCanceledEndOfPeriod:
		verdict := s.refundVerdict(ctx, sub)
		eligibility = &verdict
	}

	return BuildPanel(sub, eligibility), nil
}

// GetAccount returns the profile sidebar summary. The subscription
// status line is rendered from the stored snapshot when present to
// keep this endpoint cheap; the panel is the authoritative view.
func (s *subscriptionService) GetAccount(ctx context.Context) (*dto.AccountResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.AuthClient.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.loadRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.AccountResponse{
		ID:         profile.ID,
		Email:      profile.Email,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		Role:       profile.Role,
		StatusLine: dto.FormatStatusLine(sub),
	}, nil
}

// Cancel requests a cancellation. Legal only while the subscription is
// fully active: a second cancel while one is pending is rejected by
// the precondition gate, and a backend "already scheduled" rejection
// is treated as benign.
func (s *subscriptionService) Cancel(ctx context.Context, req *dto.CancelSubscriptionRequest) (*dto.ActionResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if !s.ActionLock.TryAcquire(userID) {
		return nil, errActionInFlight()
	}
	defer s.ActionLock.Release(userID)

	sub, err := s.loadRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	state := subscription.Classify(sub)
	if state != types.LifecycleStateFullyActive {
		return nil, ierr.NewError("subscription cannot be cancelled in its current state").
			WithHint("This subscription cannot be cancelled").
			WithReportableDetails(map[string]any{
				"state": state,
			}).
			Mark(ierr.ErrPreconditionFailed)
	}

	if _, err := s.BillingClient.Cancel(ctx, req.Immediate); err != nil {
		if ierr.IsAlreadyExists(err) {
			// a cancellation is already scheduled server side: refresh
			// and surface the backend's message instead of a failure
			return s.benignOutcome(ctx, userID, err)
		}
		return nil, err
	}

	result, fresh, err := s.sync(ctx, userID)
	if err != nil {
		return nil, err
	}

	message := "Your subscription has been cancelled."
	if fresh != nil && fresh.EndDate != nil {
		message = "Your subscription has been cancelled. You keep your benefits until " +
			fresh.EndDate.Format("January 2, 2006") + "."
	}

	return &dto.ActionResponse{
		Message:      message,
		Subscription: dto.NewSubscriptionResponse(fresh),
		Role:         result.Role,
	}, nil
}

// Reactivate undoes a pending end-of-period cancellation. Any other
// state is rejected locally, without a network call, to avoid a wasted
// round trip and an ambiguous backend error.
func (s *subscriptionService) Reactivate(ctx context.Context) (*dto.ActionResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if !s.ActionLock.TryAcquire(userID) {
		return nil, errActionInFlight()
	}
	defer s.ActionLock.Release(userID)

	sub, err := s.loadRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	if subscription.Classify(sub) != types.LifecycleStateCanceledEndOfPeriod {
		return nil, ierr.NewError("subscription cannot be reactivated in its current state").
			WithHint("This subscription cannot be reactivated").
			WithReportableDetails(map[string]any{
				"state": subscription.Classify(sub),
			}).
			Mark(ierr.ErrPreconditionFailed)
	}

	if _, err := s.BillingClient.Reactivate(ctx); err != nil {
		return nil, err
	}

	result, fresh, err := s.sync(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.ActionResponse{
		Message:      "Your subscription has been reactivated. Automatic payments have resumed.",
		Subscription: dto.NewSubscriptionResponse(fresh),
		Role:         result.Role,
	}, nil
}

// ChangePlan switches between the monthly and annual plans. Legal only
// from a fully active subscription, and a no-op change is rejected.
func (s *subscriptionService) ChangePlan(ctx context.Context, req *dto.ChangePlanRequest) (*dto.ActionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if !s.ActionLock.TryAcquire(userID) {
		return nil, errActionInFlight()
	}
	defer s.ActionLock.Release(userID)

	sub, err := s.loadRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	if subscription.Classify(sub) != types.LifecycleStateFullyActive {
		return nil, ierr.NewError("plan can only be changed on an active subscription").
			WithHint("Only active subscriptions can change plan").
			Mark(ierr.ErrPreconditionFailed)
	}

	if sub.Plan == req.NewPlan {
		return nil, ierr.NewError("subscription is already on the requested plan").
			WithHintf("You are already on the %s plan", req.NewPlan.DisplayName()).
			Mark(ierr.ErrPreconditionFailed)
	}

	if _, err := s.BillingClient.ChangePlan(ctx, req.NewPlan); err != nil {
		return nil, err
	}

	result, fresh, err := s.sync(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.ActionResponse{
		Message:      "Plan changed to " + req.NewPlan.DisplayName() + ".",
		Subscription: dto.NewSubscriptionResponse(fresh),
		Role:         result.Role,
	}, nil
}

// RequestRefund requests a full refund with immediate cancellation.
// It is irreversible: the caller must set Confirmed after an explicit
// user confirmation step, and the refund window must still be open.
func (s *subscriptionService) RequestRefund(ctx context.Context, req *dto.RefundRequest) (*dto.RefundResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !req.Confirmed {
		return nil, ierr.NewError("refund request not confirmed").
			WithHint("A refund permanently cancels the subscription and must be confirmed").
			Mark(ierr.ErrPreconditionFailed)
	}

	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if !s.ActionLock.TryAcquire(userID) {
		return nil, errActionInFlight()
	}
	defer s.ActionLock.Release(userID)

	sub, err := s.loadRecord(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch subscription.Classify(sub) {
	case types.LifecycleStateFullyActive, types.LifecycleStateCanceledEndOfPeriod:
	default:
		return nil, ierr.NewError("subscription cannot be refunded in its current state").
			WithHint("This subscription is not refundable").
			Mark(ierr.ErrPreconditionFailed)
	}

	verdict := s.refundVerdict(ctx, sub)
	if !verdict.Eligible {
		return nil, ierr.NewError("refund window closed").
			WithHint(verdict.Reason).
			WithReportableDetails(map[string]any{
				"daysSinceStart": verdict.DaysSinceStart,
				"maxRefundDays":  verdict.MaxRefundDays,
			}).
			Mark(ierr.ErrPreconditionFailed)
	}

	receipt, err := s.BillingClient.RequestRefund(ctx, req.Reason)
	if err != nil {
		return nil, err
	}

	result, fresh, err := s.sync(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.RefundResponse{
		Amount:         receipt.Amount,
		ProcessingTime: receipt.ProcessingTime,
		Subscription:   dto.NewSubscriptionResponse(fresh),
		Role:           result.Role,
	}, nil
}

func (s *subscriptionService) CheckRefundEligibility(ctx context.Context) (*dto.RefundEligibilityResponse, error) {
	sub, err := s.refetchRecord(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.RefundEligibilityResponse{
		RefundEligibility: s.refundVerdict(ctx, sub),
	}, nil
}

func (s *subscriptionService) StartCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	url, err := s.BillingClient.StartCheckout(ctx, req.Plan)
	if err != nil {
		return nil, err
	}

	return &dto.CheckoutResponse{URL: url}, nil
}

// HandlePaymentSuccess forces an entitlement sync after the payment
// processor redirects back. The billing backend may settle the role a
// moment after the redirect, so the sync is re-polled a bounded number
// of times.
func (s *subscriptionService) HandlePaymentSuccess(ctx context.Context) (*dto.ActionResponse, error) {
	userID, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	var result *auth.RefreshResult
	var fresh *subscription.Subscription

	for attempt := 0; attempt < 3; attempt++ {
		result, fresh, err = s.sync(ctx, userID)
		if err != nil {
			return nil, err
		}
		if result.Role.HasPremiumAccess() {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ierr.WithError(ctx.Err()).
				WithHint("The request was cancelled").
				Mark(ierr.ErrSystem)
		case <-time.After(2 * time.Second):
		}
	}

	return &dto.ActionResponse{
		Message:      "Payment confirmed, premium access is active.",
		Subscription: dto.NewSubscriptionResponse(fresh),
		Role:         result.Role,
	}, nil
}

func (s *subscriptionService) ListPayments(ctx context.Context) (*dto.ListPaymentsResponse, error) {
	payments, err := s.BillingClient.ListPayments(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListPaymentsResponse{
		Payments: make([]dto.PaymentResponse, 0, len(payments)),
		Total:    len(payments),
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, dto.PaymentResponse{
			ID:          p.ID,
			Amount:      p.Amount,
			Currency:    p.Currency,
			Date:        p.Date.Format(time.RFC3339),
			Description: p.Description,
			Status:      p.Status,
		})
	}
	return resp, nil
}

// sync is the entitlement synchronizer: it invalidates the cached role,
// awaits a fresh token from the auth backend, then refetches the
// subscription snapshot, so callers re-render from ground truth. A
// rejected refresh is escalated; the mutation is never assumed to have
// succeeded on stale data.
func (s *subscriptionService) sync(ctx context.Context, userID string) (*auth.RefreshResult, *subscription.Subscription, error) {
	result, err := s.AuthContext.Refresh(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	// subsequent reads must use the freshly issued token
	ctx = types.SetJWT(ctx, result.Tokens.AccessToken)

	sub, err := s.BillingClient.GetCurrentSubscription(ctx)
	if err != nil {
		return nil, nil, err
	}

	s.RecordStore.Set(ctx, userID, sub)

	return result, sub, nil
}

// refetchRecord reads a fresh snapshot from the billing backend and
// replaces the stored record
func (s *subscriptionService) refetchRecord(ctx context.Context) (*subscription.Subscription, error) {
	sub, err := s.BillingClient.GetCurrentSubscription(ctx)
	if err != nil {
		return nil, err
	}
	if userID := types.GetUserID(ctx); userID != "" {
		s.RecordStore.Set(ctx, userID, sub)
	}
	return sub, nil
}

// loadRecord returns the stored snapshot, fetching it once when the
// panel has not been loaded yet. Preconditions gate on this snapshot
// so an illegal action is rejected without a network round trip.
func (s *subscriptionService) loadRecord(ctx context.Context, userID string) (*subscription.Subscription, error) {
	if sub, ok := s.RecordStore.Get(ctx, userID); ok {
		return sub, nil
	}
	return s.refetchRecord(ctx)
}

// refundVerdict reconciles the backend's eligibility verdict with the
// local window calculation. A backend failure fails closed, and the
// stricter verdict wins.
func (s *subscriptionService) refundVerdict(ctx context.Context, sub *subscription.Subscription) subscription.RefundEligibility {
	maxDays := s.Config.Billing.MaxRefundDays

	local := subscription.CheckEligibility(sub, time.Now().UTC(), maxDays)

	remote, err := s.BillingClient.CheckRefundEligibility(ctx)
	if err != nil {
		s.Logger.Warnw("refund eligibility verification failed", "error", err)
		return subscription.FailClosed(maxDays)
	}

	if !remote.Eligible {
		return *remote
	}
	return local
}

func (s *subscriptionService) benignOutcome(ctx context.Context, userID string, cause error) (*dto.ActionResponse, error) {
	fresh, err := s.refetchRecord(ctx)
	if err != nil {
		return nil, err
	}

	message := "A cancellation is already scheduled for this subscription."
	if hints := errors.GetAllHints(cause); len(hints) > 0 && hints[0] != "" {
		message = hints[0]
	}

	role, _ := s.AuthContext.Role(ctx, userID)

	return &dto.ActionResponse{
		Message:      message,
		Subscription: dto.NewSubscriptionResponse(fresh),
		Role:         role,
	}, nil
}

func (s *subscriptionService) requireUser(ctx context.Context) (string, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return "", ierr.NewError("missing authenticated user").
			WithHint("Please sign in again").
			Mark(ierr.ErrReconnectRequired)
	}
	return userID, nil
}

func errActionInFlight() error {
	return ierr.NewError("another subscription action is in flight").
		WithHint("Another action is already in progress, please wait for it to finish").
		Mark(ierr.ErrActionInFlight)
}
