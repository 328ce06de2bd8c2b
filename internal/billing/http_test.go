package billing_test

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wayfarer-travel/wayfarer/internal/billing"
	"github.com/wayfarer-travel/wayfarer/internal/config"
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"
	"github.com/wayfarer-travel/wayfarer/internal/logger"
	"github.com/wayfarer-travel/wayfarer/internal/testutil"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

func newTestClient(t *testing.T, mock *testutil.MockHTTPClient) billing.Client {
	t.Helper()

	cfg := config.GetDefaultConfig()
	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	return billing.NewClient(billing.ClientParams{
		Config:      cfg,
		ReadClient:  mock,
		WriteClient: mock,
		Logger:      log,
	})
}

func TestGetCurrentSubscription(t *testing.T) {
	mock := testutil.NewMockHTTPClient()
	mock.RegisterResponse("/subscription/current", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body: []byte(`{
			"id": "sub_123",
			"plan": "monthly",
			"status": "active",
			"isActive": true,
			"startDate": "2026-08-01T00:00:00Z"
		}`),
	})

	client := newTestClient(t, mock)
	ctx := testutil.SetupContext(testutil.DefaultUserID, "test-token")

	sub, err := client.GetCurrentSubscription(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sub_123", sub.ID)
	assert.Equal(t, types.PlanTypeMonthly, sub.Plan)
	assert.True(t, sub.IsActive)
}

func TestGetCurrentSubscriptionNotFound(t *testing.T) {
	mock := testutil.NewMockHTTPClient()
	mock.RegisterResponse("/subscription/current", testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       []byte(`{"message":"no subscription"}`),
	})

	client := newTestClient(t, mock)
	ctx := testutil.SetupContext(testutil.DefaultUserID, "test-token")

	sub, err := client.GetCurrentSubscription(ctx)
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestMissingTokenShortCircuits(t *testing.T) {
	mock := testutil.NewMockHTTPClient()
	client := newTestClient(t, mock)
	ctx := testutil.SetupContext(testutil.DefaultUserID, "")

	_, err := client.GetCurrentSubscription(ctx)
	assert.Error(t, err)
	assert.True(t, ierr.IsReconnectRequired(err))
	assert.Equal(t, 0, mock.CallCount("/subscription/current"))
}

func TestCancelSurfacesBackendMessage(t *testing.T) {
	mock := testutil.NewMockHTTPClient()
	mock.RegisterResponse("/subscription/cancel", testutil.MockResponse{
		StatusCode: http.StatusBadRequest,
		Body:       []byte(`{"message":"Subscription is in a trial period and cannot be cancelled"}`),
	})

	client := newTestClient(t, mock)
	ctx := testutil.SetupContext(testutil.DefaultUserID, "test-token")

	_, err := client.Cancel(ctx, false)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))

	hints := errors.GetAllHints(err)
	require.NotEmpty(t, hints)
	assert.Equal(t, "Subscription is in a trial period and cannot be cancelled", hints[0])
}

func TestCancelAlreadyScheduledIsMarkedBenign(t *testing.T) {
	mock := testutil.NewMockHTTPClient()
	mock.RegisterResponse("/subscription/cancel", testutil.MockResponse{
		StatusCode: http.StatusConflict,
		Body:       []byte(`{"message":"A cancellation is already scheduled for this subscription"}`),
	})

	client := newTestClient(t, mock)
	ctx := testutil.SetupContext(testutil.DefaultUserID, "test-token")

	_, err := client.Cancel(ctx, false)
	require.Error(t, err)
	assert.True(t, ierr.IsAlreadyExists(err))
}

func TestCancelServerErrorGetsGenericHint(t *testing.T) {
	mock := testutil.NewMockHTTPClient()
	mock.RegisterResponse("/subscription/cancel", testutil.MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       []byte(`{"message":"panic: nil pointer dereference in billing worker"}`),
	})

	client := newTestClient(t, mock)
	ctx := testutil.SetupContext(testutil.DefaultUserID, "test-token")

	_, err := client.Cancel(ctx, false)
	require.Error(t, err)

	// internals must not leak to the user
	hints := errors.GetAllHints(err)
	require.NotEmpty(t, hints)
	assert.Equal(t, "The subscription could not be cancelled", hints[0])
}

func TestCancelParsesEnvelope(t *testing.T) {
	mock := testutil.NewMockHTTPClient()
	mock.RegisterResponse("/subscription/cancel", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body: []byte(`{
			"subscription": {
				"id": "sub_123",
				"plan": "monthly",
				"status": "canceled",
				"isActive": true,
				"startDate": "2026-08-01T00:00:00Z",
				"cancelationType": "end_of_period"
			}
		}`),
	})

	client := newTestClient(t, mock)
	ctx := testutil.SetupContext(testutil.DefaultUserID, "test-token")

	sub, err := client.Cancel(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStatusCanceled, sub.Status)
	require.NotNil(t, sub.CancellationType)
	assert.Equal(t, types.CancellationTypeEndOfPeriod, *sub.CancellationType)
}

func TestRequestRefundParsesReceipt(t *testing.T) {
	mock := testutil.NewMockHTTPClient()
	mock.RegisterResponse("/subscription/refund", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"refund":{"amount":"9.99","processingTime":"3-5 business days"}}`),
	})

	client := newTestClient(t, mock)
	ctx := testutil.SetupContext(testutil.DefaultUserID, "test-token")

	receipt, err := client.RequestRefund(ctx, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, "9.99", receipt.Amount.String())
	assert.Equal(t, "3-5 business days", receipt.ProcessingTime)
}

func TestStartCheckoutRequiresRedirectURL(t *testing.T) {
	mock := testutil.NewMockHTTPClient()
	mock.RegisterResponse("/subscription/checkout", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{}`),
	})

	client := newTestClient(t, mock)
	ctx := testutil.SetupContext(testutil.DefaultUserID, "test-token")

	_, err := client.StartCheckout(ctx, types.PlanTypeMonthly)
	assert.Error(t, err)
}
