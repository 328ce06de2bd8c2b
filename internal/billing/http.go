package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wayfarer-travel/wayfarer/internal/config"
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"
	"github.com/wayfarer-travel/wayfarer/internal/httpclient"
	"github.com/wayfarer-travel/wayfarer/internal/logger"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

type restClient struct {
	baseURL string
	// reads may retry transient failures; mutations never do, a failed
	// cancel or refund is surfaced to the user for a manual re-invoke
	readClient  httpclient.Client
	writeClient httpclient.Client
	log         *logger.Logger
}

// ClientParams groups the dependencies of the HTTP billing client
type ClientParams struct {
	Config      *config.Configuration
	ReadClient  httpclient.Client
	WriteClient httpclient.Client
	Logger      *logger.Logger
}

// NewClient creates an HTTP billing client against the configured backend
func NewClient(params ClientParams) Client {
	return &restClient{
		baseURL:     params.Config.Billing.BaseURL,
		readClient:  params.ReadClient,
		writeClient: params.WriteClient,
		log:         params.Logger,
	}
}

func (c *restClient) GetCurrentSubscription(ctx context.Context) (*subscription.Subscription, error) {
	resp, err := c.send(ctx, c.readClient, http.MethodGet, "/subscription/current", nil)
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode == http.StatusNotFound {
			// no subscription is a valid state, not an error
			return nil, nil
		}
		return nil, err
	}

	var sub subscription.Subscription
	if err := json.Unmarshal(resp.Body, &sub); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The subscription response could not be parsed").
			Mark(ierr.ErrHTTPClient)
	}

	return &sub, nil
}

func (c *restClient) Cancel(ctx context.Context, immediate bool) (*subscription.Subscription, error) {
	body, _ := json.Marshal(map[string]bool{"immediate": immediate})

	resp, err := c.send(ctx, c.writeClient, http.MethodDelete, "/subscription/cancel", body)
	if err != nil {
		return nil, c.mapRejection(err, "The subscription could not be cancelled")
	}

	return parseSubscriptionEnvelope(resp.Body)
}

func (c *restClient) Reactivate(ctx context.Context) (*subscription.Subscription, error) {
	resp, err := c.send(ctx, c.writeClient, http.MethodPost, "/subscription/reactivate", nil)
	if err != nil {
		return nil, c.mapRejection(err, "The subscription could not be reactivated")
	}

	return parseSubscriptionEnvelope(resp.Body)
}

func (c *restClient) ChangePlan(ctx context.Context, plan types.PlanType) (*subscription.Subscription, error) {
	body, _ := json.Marshal(map[string]string{"newPlan": plan.String()})

	resp, err := c.send(ctx, c.writeClient, http.MethodPut, "/subscription/change-plan", body)
	if err != nil {
		return nil, c.mapRejection(err, "The plan could not be changed")
	}

	return parseSubscriptionEnvelope(resp.Body)
}

func (c *restClient) RequestRefund(ctx context.Context, reason string) (*RefundReceipt, error) {
	body, _ := json.Marshal(map[string]string{"reason": reason})

	resp, err := c.send(ctx, c.writeClient, http.MethodPost, "/subscription/refund", body)
	if err != nil {
		return nil, c.mapRejection(err, "The refund request was not accepted")
	}

	var payload struct {
		Refund *RefundReceipt `json:"refund"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil || payload.Refund == nil {
		// some backend versions return the receipt unwrapped
		var receipt RefundReceipt
		if err := json.Unmarshal(resp.Body, &receipt); err != nil {
			return nil, ierr.WithError(err).
				WithHint("The refund response could not be parsed").
				Mark(ierr.ErrHTTPClient)
		}
		return &receipt, nil
	}

	return payload.Refund, nil
}

func (c *restClient) CheckRefundEligibility(ctx context.Context) (*subscription.RefundEligibility, error) {
	resp, err := c.send(ctx, c.readClient, http.MethodGet, "/subscription/refund/eligibility", nil)
	if err != nil {
		return nil, err
	}

	var eligibility subscription.RefundEligibility
	if err := json.Unmarshal(resp.Body, &eligibility); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The eligibility response could not be parsed").
			Mark(ierr.ErrHTTPClient)
	}

	return &eligibility, nil
}

func (c *restClient) StartCheckout(ctx context.Context, plan types.PlanType) (string, error) {
	body, _ := json.Marshal(map[string]string{"plan": plan.String()})

	resp, err := c.send(ctx, c.writeClient, http.MethodPost, "/subscription/checkout", body)
	if err != nil {
		return "", c.mapRejection(err, "The checkout session could not be started")
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil || payload.URL == "" {
		return "", ierr.NewError("checkout returned no redirect url").
			WithHint("The checkout session could not be started").
			Mark(ierr.ErrHTTPClient)
	}

	return payload.URL, nil
}

func (c *restClient) ListPayments(ctx context.Context) ([]Payment, error) {
	resp, err := c.send(ctx, c.readClient, http.MethodGet, "/subscription/payments", nil)
	if err != nil {
		return nil, err
	}

	var payments []Payment
	if err := json.Unmarshal(resp.Body, &payments); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The payment history could not be parsed").
			Mark(ierr.ErrHTTPClient)
	}

	return payments, nil
}

func (c *restClient) send(ctx context.Context, client httpclient.Client, method, path string, body []byte) (*httpclient.Response, error) {
	token := types.GetJWT(ctx)
	if token == "" {
		return nil, ierr.NewError("missing access token").
			WithHint("Please sign in again").
			Mark(ierr.ErrReconnectRequired)
	}

	return client.Send(ctx, &httpclient.Request{
		Method: method,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			types.HeaderAuthorization: "Bearer " + token,
		},
		Body: body,
	})
}

// mapRejection turns a collaborator rejection into a user-facing
// error. Informative 4xx messages are surfaced verbatim; everything
// else gets the generic hint. A "cancellation already scheduled"
// rejection is marked as already-exists so callers can treat it as
// benign.
func (c *restClient) mapRejection(err error, genericHint string) error {
	httpErr, ok := httpclient.IsHTTPError(err)
	if !ok {
		return err
	}

	if httpErr.StatusCode >= http.StatusInternalServerError {
		return ierr.WithError(err).
			WithHint(genericHint).
			Mark(ierr.ErrHTTPClient)
	}

	message := extractMessage(httpErr.Response)

	if isAlreadyScheduled(message) {
		return ierr.WithError(err).
			WithHint(message).
			Mark(ierr.ErrAlreadyExists)
	}

	if message != "" {
		return ierr.WithError(err).
			WithHint(message).
			Mark(ierr.ErrInvalidOperation)
	}

	return ierr.WithError(err).
		WithHint(genericHint).
		Mark(ierr.ErrInvalidOperation)
}

func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	text := strings.TrimSpace(string(body))
	// raw text bodies are surfaced as-is when they look like a sentence
	if text != "" && !strings.HasPrefix(text, "{") && len(text) < 300 {
		return text
	}
	return ""
}

func isAlreadyScheduled(message string) bool {
	lowered := strings.ToLower(message)
	return strings.Contains(lowered, "already scheduled") ||
		strings.Contains(lowered, "already canceled") ||
		strings.Contains(lowered, "already cancelled")
}

func parseSubscriptionEnvelope(body []byte) (*subscription.Subscription, error) {
	var payload struct {
		Subscription *subscription.Subscription `json:"subscription"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Subscription != nil {
		return payload.Subscription, nil
	}

	var sub subscription.Subscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The subscription response could not be parsed").
			Mark(ierr.ErrHTTPClient)
	}
	return &sub, nil
}
