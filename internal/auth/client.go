package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wayfarer-travel/wayfarer/internal/config"
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"
	"github.com/wayfarer-travel/wayfarer/internal/httpclient"
	"github.com/wayfarer-travel/wayfarer/internal/logger"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// Profile is the user profile as returned by the auth backend
type Profile struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"firstName,omitempty"`
	LastName  string         `json:"lastName,omitempty"`
	Role      types.UserRole `json:"role"`
	CreatedAt time.Time      `json:"createdAt"`
}

// TokenPair is a freshly issued access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Client is the contract the core consumes from the auth backend.
// The role returned by GetProfile is authoritative only immediately
// after RefreshToken has been awaited.
type Client interface {
	// GetProfile fetches the user profile for the token in ctx
	GetProfile(ctx context.Context) (*Profile, error)

	// RefreshToken forces the auth backend to issue a fresh token pair
	// reflecting the user's current role. Returns nil when the refresh
	// is rejected.
	RefreshToken(ctx context.Context) (*TokenPair, error)
}

type restClient struct {
	baseURL string
	client  httpclient.Client
	log     *logger.Logger
}

// NewClient creates an HTTP auth client against the configured backend
func NewClient(cfg *config.Configuration, client httpclient.Client, log *logger.Logger) Client {
	return &restClient{
		baseURL: cfg.Auth.BaseURL,
		client:  client,
		log:     log,
	}
}

func (c *restClient) GetProfile(ctx context.Context) (*Profile, error) {
	token := types.GetJWT(ctx)
	if token == "" {
		return nil, ierr.NewError("missing access token").
			WithHint("Please sign in again").
			Mark(ierr.ErrReconnectRequired)
	}

	resp, err := c.client.Send(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + "/api/auth/profile",
		Headers: map[string]string{
			types.HeaderAuthorization: "Bearer " + token,
		},
	})
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := json.Unmarshal(resp.Body, &profile); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The profile response could not be parsed").
			Mark(ierr.ErrHTTPClient)
	}

	return &profile, nil
}

func (c *restClient) RefreshToken(ctx context.Context) (*TokenPair, error) {
	token := types.GetJWT(ctx)
	if token == "" {
		return nil, ierr.NewError("missing access token").
			WithHint("Please sign in again").
			Mark(ierr.ErrReconnectRequired)
	}

	resp, err := c.client.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/api/auth/refresh-user-data",
		Headers: map[string]string{
			types.HeaderAuthorization: "Bearer " + token,
		},
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode < http.StatusInternalServerError {
			// A rejected refresh means the session can no longer be
			// trusted; stale entitlement must not be kept silently.
			return nil, ierr.WithError(err).
				WithHint("Your session has expired, please reconnect").
				Mark(ierr.ErrReconnectRequired)
		}
		return nil, err
	}

	var payload struct {
		Tokens *TokenPair `json:"tokens"`
		User   *Profile   `json:"user"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The refresh response could not be parsed").
			Mark(ierr.ErrHTTPClient)
	}

	if payload.Tokens == nil || payload.Tokens.AccessToken == "" {
		return nil, ierr.NewError("refresh returned no tokens").
			WithHint("Your session has expired, please reconnect").
			Mark(ierr.ErrReconnectRequired)
	}

	return payload.Tokens, nil
}
