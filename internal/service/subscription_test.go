package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/wayfarer-travel/wayfarer/internal/api/dto"
	"github.com/wayfarer-travel/wayfarer/internal/auth"
	"github.com/wayfarer-travel/wayfarer/internal/billing"
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"
	"github.com/wayfarer-travel/wayfarer/internal/testutil"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	collab := s.GetCollaborators()
	authContext := auth.NewAuthorizationContext(s.GetConfig(), collab.Auth, s.GetCache(), s.GetLogger())

	s.service = NewSubscriptionService(ServiceParams{
		Logger:        s.GetLogger(),
		Config:        s.GetConfig(),
		BillingClient: collab.Billing,
		AuthClient:    collab.Auth,
		AuthContext:   authContext,
		ActionLock:    s.GetActionLock(),
		RecordStore:   s.GetRecordStore(),
	})
}

func (s *SubscriptionServiceSuite) TestGetCurrentSubscription() {
	s.GetCollaborators().Billing.Subscription = testutil.ActiveSubscription(3)

	resp, err := s.service.GetCurrentSubscription(s.GetContext())
	s.NoError(err)
	s.Equal(types.LifecycleStateFullyActive, resp.State)
	s.Equal("Active", resp.StatusLine)
}

func (s *SubscriptionServiceSuite) TestGetCurrentSubscriptionNone() {
	resp, err := s.service.GetCurrentSubscription(s.GetContext())
	s.NoError(err)
	s.Nil(resp.Subscription)
	s.Equal(types.LifecycleStateNoSubscription, resp.State)
}

func (s *SubscriptionServiceSuite) TestGetPanelFullyActive() {
	s.GetCollaborators().Billing.Subscription = testutil.ActiveSubscription(3)

	resp, err := s.service.GetPanel(s.GetContext())
	s.NoError(err)
	s.Equal(types.LifecycleStateFullyActive, resp.View.State)
	s.Contains(resp.View.Actions, dto.PanelActionCancel)
	s.Contains(resp.View.Actions, dto.PanelActionChangePlan)
	s.Contains(resp.View.Actions, dto.PanelActionRequestRefund)
	s.NotNil(resp.Eligibility)
	s.True(resp.Eligibility.Eligible)
}

func (s *SubscriptionServiceSuite) TestGetPanelRefundWindowClosed() {
	s.GetCollaborators().Billing.Subscription = testutil.ActiveSubscription(20)

	resp, err := s.service.GetPanel(s.GetContext())
	s.NoError(err)
	s.NotContains(resp.View.Actions, dto.PanelActionRequestRefund)
	s.NotNil(resp.Eligibility)
	s.False(resp.Eligibility.Eligible)
}

func (s *SubscriptionServiceSuite) TestGetPanelNoSubscription() {
	resp, err := s.service.GetPanel(s.GetContext())
	s.NoError(err)
	s.Equal(types.LifecycleStateNoSubscription, resp.View.State)
	s.Equal([]dto.PanelAction{dto.PanelActionResubscribe}, resp.View.Actions)
	s.Nil(resp.Eligibility)
}

func (s *SubscriptionServiceSuite) TestGetPanelUnexpectedStateDiagnostic() {
	sub := testutil.ActiveSubscription(3)
	sub.IsActive = false
	s.GetCollaborators().Billing.Subscription = sub

	resp, err := s.service.GetPanel(s.GetContext())
	s.NoError(err)
	s.Equal(types.LifecycleStateUnexpected, resp.View.State)
	s.Equal([]dto.PanelAction{dto.PanelActionRefresh}, resp.View.Actions)
	s.NotEmpty(resp.View.Diagnostic)
}

func (s *SubscriptionServiceSuite) TestCancelEndOfPeriod() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)

	resp, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{})
	s.NoError(err)
	s.Equal(1, billing.CallCount("Cancel"))
	s.NotNil(resp.Subscription)
	s.Equal(types.LifecycleStateCanceledEndOfPeriod, resp.Subscription.State)
	// role was re-derived from a freshly issued token
	s.Equal(1, s.GetCollaborators().Auth.CallCount("RefreshToken"))
}

func (s *SubscriptionServiceSuite) TestCancelRejectedWithoutNetworkCall() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.CanceledEndOfPeriodSubscription(3, 27)

	// panel load primes the stored snapshot
	_, err := s.service.GetPanel(s.GetContext())
	s.NoError(err)
	before := billing.TotalCalls()

	_, err = s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{})
	s.Error(err)
	s.True(ierr.IsPreconditionFailed(err))

	// the rejection was decided on the stored snapshot alone
	s.Equal(before, billing.TotalCalls())
}

func (s *SubscriptionServiceSuite) TestCancelAlreadyScheduledIsBenign() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)
	billing.ScriptError("Cancel", ierr.NewError("cancellation already scheduled").
		WithHint("A cancellation is already scheduled for this subscription").
		Mark(ierr.ErrAlreadyExists))

	resp, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{})
	s.NoError(err)
	s.Contains(resp.Message, "already scheduled")
}

func (s *SubscriptionServiceSuite) TestReactivate() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.CanceledEndOfPeriodSubscription(3, 27)

	resp, err := s.service.Reactivate(s.GetContext())
	s.NoError(err)
	s.Equal(1, billing.CallCount("Reactivate"))
	s.Equal(types.LifecycleStateFullyActive, resp.Subscription.State)
}

func (s *SubscriptionServiceSuite) TestReactivateRejectedWithoutNetworkCall() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)

	_, err := s.service.GetPanel(s.GetContext())
	s.NoError(err)
	before := billing.TotalCalls()

	_, err = s.service.Reactivate(s.GetContext())
	s.Error(err)
	s.True(ierr.IsPreconditionFailed(err))
	s.Equal(before, billing.TotalCalls())
	s.Equal(0, billing.CallCount("Reactivate"))
}

func (s *SubscriptionServiceSuite) TestChangePlan() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)

	resp, err := s.service.ChangePlan(s.GetContext(), &dto.ChangePlanRequest{NewPlan: types.PlanTypeAnnual})
	s.NoError(err)
	s.Equal(1, billing.CallCount("ChangePlan"))
	s.Equal(types.PlanTypeAnnual, resp.Subscription.Plan)
}

func (s *SubscriptionServiceSuite) TestChangePlanToSamePlanRejected() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)

	_, err := s.service.GetPanel(s.GetContext())
	s.NoError(err)

	_, err = s.service.ChangePlan(s.GetContext(), &dto.ChangePlanRequest{NewPlan: types.PlanTypeMonthly})
	s.Error(err)
	s.True(ierr.IsPreconditionFailed(err))
	s.Equal(0, billing.CallCount("ChangePlan"))
}

func (s *SubscriptionServiceSuite) TestChangePlanRejectedWhileCancellationPending() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.CanceledEndOfPeriodSubscription(3, 10)

	_, err := s.service.GetPanel(s.GetContext())
	s.NoError(err)
	before := billing.TotalCalls()

	_, err = s.service.ChangePlan(s.GetContext(), &dto.ChangePlanRequest{NewPlan: types.PlanTypeAnnual})
	s.Error(err)
	s.True(ierr.IsPreconditionFailed(err))
	s.Equal(before, billing.TotalCalls())
}

func (s *SubscriptionServiceSuite) TestExpiredSubscriptionRejectsAllActions() {
	billing := s.GetCollaborators().Billing
	sub := testutil.ActiveSubscription(60)
	sub.Status = types.SubscriptionStatusCanceled
	sub.IsActive = false
	billing.Subscription = sub

	panel, err := s.service.GetPanel(s.GetContext())
	s.NoError(err)
	s.Equal(types.LifecycleStateExpired, panel.View.State)
	s.Equal([]dto.PanelAction{dto.PanelActionResubscribe}, panel.View.Actions)
	before := billing.TotalCalls()

	_, err = s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{})
	s.True(ierr.IsPreconditionFailed(err))

	_, err = s.service.Reactivate(s.GetContext())
	s.True(ierr.IsPreconditionFailed(err))

	s.Equal(before, billing.TotalCalls())
}

func (s *SubscriptionServiceSuite) TestChangePlanValidation() {
	_, err := s.service.ChangePlan(s.GetContext(), &dto.ChangePlanRequest{NewPlan: types.PlanTypeFree})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestRequestRefund() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)

	resp, err := s.service.RequestRefund(s.GetContext(), &dto.RefundRequest{
		Reason:    "not what I expected",
		Confirmed: true,
	})
	s.NoError(err)
	s.Equal(1, billing.CallCount("RequestRefund"))
	s.Equal("3-5 business days", resp.ProcessingTime)
	s.Equal(types.LifecycleStateCanceledImmediateRefunded, resp.Subscription.State)
}

func (s *SubscriptionServiceSuite) TestRequestRefundUnconfirmedRejected() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)

	_, err := s.service.RequestRefund(s.GetContext(), &dto.RefundRequest{Confirmed: false})
	s.Error(err)
	s.True(ierr.IsPreconditionFailed(err))
	s.Equal(0, billing.CallCount("RequestRefund"))
}

func (s *SubscriptionServiceSuite) TestRequestRefundWindowClosed() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(20)

	_, err := s.service.RequestRefund(s.GetContext(), &dto.RefundRequest{Confirmed: true})
	s.Error(err)
	s.True(ierr.IsPreconditionFailed(err))
	s.Equal(0, billing.CallCount("RequestRefund"))
}

func (s *SubscriptionServiceSuite) TestRequestRefundFailsClosedOnVerificationError() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)
	billing.ScriptError("CheckRefundEligibility", ierr.NewError("backend unreachable").
		Mark(ierr.ErrHTTPClient))

	_, err := s.service.RequestRefund(s.GetContext(), &dto.RefundRequest{Confirmed: true})
	s.Error(err)
	s.True(ierr.IsPreconditionFailed(err))
	s.Equal(0, billing.CallCount("RequestRefund"))
}

func (s *SubscriptionServiceSuite) TestRequestRefundStricterRemoteVerdictWins() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)
	billing.Eligibility = &subscription.RefundEligibility{
		Eligible:      false,
		MaxRefundDays: 14,
		Reason:        subscription.ReasonWindowElapsed,
	}

	_, err := s.service.RequestRefund(s.GetContext(), &dto.RefundRequest{Confirmed: true})
	s.Error(err)
	s.True(ierr.IsPreconditionFailed(err))
	s.Equal(0, billing.CallCount("RequestRefund"))
}

func (s *SubscriptionServiceSuite) TestActionLockRejectsConcurrentAction() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)

	s.True(s.GetActionLock().TryAcquire(testutil.DefaultUserID))
	defer s.GetActionLock().Release(testutil.DefaultUserID)

	_, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{})
	s.Error(err)
	s.True(ierr.IsActionInFlight(err))
	s.Equal(0, billing.CallCount("Cancel"))
}

func (s *SubscriptionServiceSuite) TestLockReleasedAfterAction() {
	billing := s.GetCollaborators().Billing
	billing.Subscription = testutil.ActiveSubscription(3)

	_, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{})
	s.NoError(err)
	s.False(s.GetActionLock().Locked(testutil.DefaultUserID))
}

func (s *SubscriptionServiceSuite) TestLockReleasedAfterRejectedAction() {
	_, err := s.service.Reactivate(s.GetContext())
	s.Error(err)
	s.False(s.GetActionLock().Locked(testutil.DefaultUserID))
}

func (s *SubscriptionServiceSuite) TestRefreshRejectionEscalates() {
	collab := s.GetCollaborators()
	collab.Billing.Subscription = testutil.ActiveSubscription(3)
	collab.Auth.RefreshErr = ierr.NewError("refresh rejected").
		WithHint("Your session has expired, please reconnect").
		Mark(ierr.ErrReconnectRequired)

	_, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{})
	s.Error(err)
	s.True(ierr.IsReconnectRequired(err))
}

func (s *SubscriptionServiceSuite) TestRoleCacheClearedBeforeRefetch() {
	collab := s.GetCollaborators()
	collab.Billing.Subscription = testutil.ActiveSubscription(3)

	// prime the cached role hint, then downgrade the backend role
	authContext := auth.NewAuthorizationContext(s.GetConfig(), collab.Auth, s.GetCache(), s.GetLogger())
	_, err := authContext.Refresh(s.GetContext(), testutil.DefaultUserID)
	s.NoError(err)
	collab.Auth.SetRole(types.UserRoleUser)

	resp, err := s.service.RequestRefund(s.GetContext(), &dto.RefundRequest{Confirmed: true})
	s.NoError(err)

	// the reported role reflects the fresh token, not the stale cache
	s.Equal(types.UserRoleUser, resp.Role)
	role, found := authContext.Role(s.GetContext(), testutil.DefaultUserID)
	s.True(found)
	s.Equal(types.UserRoleUser, role)
}

func (s *SubscriptionServiceSuite) TestHandlePaymentSuccess() {
	collab := s.GetCollaborators()
	collab.Billing.Subscription = testutil.ActiveSubscription(0)

	resp, err := s.service.HandlePaymentSuccess(s.GetContext())
	s.NoError(err)
	s.Equal(types.UserRolePremium, resp.Role)
	s.Equal(1, collab.Auth.CallCount("RefreshToken"))
}

func (s *SubscriptionServiceSuite) TestStartCheckout() {
	collab := s.GetCollaborators()
	collab.Billing.CheckoutURL = "https://checkout.example.com/session/abc"

	resp, err := s.service.StartCheckout(s.GetContext(), &dto.CheckoutRequest{Plan: types.PlanTypeAnnual})
	s.NoError(err)
	s.Equal("https://checkout.example.com/session/abc", resp.URL)
}

func (s *SubscriptionServiceSuite) TestStartCheckoutRejectsNonSelectablePlan() {
	_, err := s.service.StartCheckout(s.GetContext(), &dto.CheckoutRequest{Plan: types.PlanTypeFree})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestListPayments() {
	collab := s.GetCollaborators()
	collab.Billing.Payments = []billing.Payment{
		{
			ID:       "pay_001",
			Amount:   decimal.NewFromFloat(9.99),
			Currency: "EUR",
			Date:     s.GetNow().AddDate(0, -1, 0),
			Status:   "succeeded",
		},
	}

	resp, err := s.service.ListPayments(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.Total)
	s.Equal("pay_001", resp.Payments[0].ID)
}

func (s *SubscriptionServiceSuite) TestGetAccount() {
	collab := s.GetCollaborators()
	collab.Billing.Subscription = testutil.ActiveSubscription(3)

	resp, err := s.service.GetAccount(s.GetContext())
	s.NoError(err)
	s.Equal(testutil.DefaultUserID, resp.ID)
	s.Equal("traveler@example.com", resp.Email)
	s.Equal(types.UserRolePremium, resp.Role)
	s.Equal("Active", resp.StatusLine)
	s.Equal(1, collab.Auth.CallCount("GetProfile"))
}

func (s *SubscriptionServiceSuite) TestMissingUserRequiresReconnect() {
	ctx := testutil.SetupContext("", "")

	_, err := s.service.Cancel(ctx, &dto.CancelSubscriptionRequest{})
	s.Error(err)
	s.True(ierr.IsReconnectRequired(err))
}
