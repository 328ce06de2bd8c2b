package httpclient

import (
	"context"
	"time"

	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"

	"github.com/hashicorp/go-retryablehttp"
)

// RetryableClient implements the Client interface with bounded retries
// on transient failures. Only idempotent reads (current subscription,
// refund eligibility, profile) may use it.
type RetryableClient struct {
	client *retryablehttp.Client
}

// NewRetryableClient creates a client that retries transient failures
func NewRetryableClient() Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = nil

	return &RetryableClient{client: rc}
}

// Send makes an HTTP request, retrying on 5xx and connection errors
func (c *RetryableClient) Send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	retryReq, err := retryablehttp.FromRequest(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrHTTPClient)
	}

	resp, err := c.client.Do(retryReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("The service could not be reached").
			Mark(ierr.ErrHTTPClient)
	}

	return readResponse(resp)
}
