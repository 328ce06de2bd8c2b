package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wayfarer-travel/wayfarer/internal/auth"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// InMemoryAuthClient is an instrumented fake of the auth backend. Its
// refresh endpoint issues real signed tokens so the token parsing path
// is exercised the same way it is in production.
type InMemoryAuthClient struct {
	mu sync.Mutex

	// UserID and Role are the claims embedded in issued tokens
	UserID string
	Role   types.UserRole

	// RefreshErr makes RefreshToken fail when set
	RefreshErr error

	Profile *auth.Profile

	calls map[string]int
}

func NewInMemoryAuthClient(userID string, role types.UserRole) *InMemoryAuthClient {
	return &InMemoryAuthClient{
		UserID: userID,
		Role:   role,
		calls:  make(map[string]int),
	}
}

// SetRole changes the role embedded in subsequently issued tokens,
// simulating an entitlement change settled on the billing side
func (c *InMemoryAuthClient) SetRole(role types.UserRole) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Role = role
}

// CallCount returns how many times the named method was invoked
func (c *InMemoryAuthClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *InMemoryAuthClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RefreshErr = nil
	c.Profile = nil
	c.calls = make(map[string]int)
}

func (c *InMemoryAuthClient) GetProfile(_ context.Context) (*auth.Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["GetProfile"]++

	if c.Profile != nil {
		return c.Profile, nil
	}
	return &auth.Profile{
		ID:    c.UserID,
		Email: "traveler@example.com",
		Role:  c.Role,
	}, nil
}

func (c *InMemoryAuthClient) RefreshToken(_ context.Context) (*auth.TokenPair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["RefreshToken"]++

	if c.RefreshErr != nil {
		return nil, c.RefreshErr
	}

	return &auth.TokenPair{
		AccessToken:  SignTestToken(c.UserID, c.Role),
		RefreshToken: "refresh-" + c.UserID,
	}, nil
}

// SignTestToken issues an access token signed with TestSigningSecret
func SignTestToken(userID string, role types.UserRole) string {
	claims := auth.TokenClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(TestSigningSecret))
	if err != nil {
		panic(err)
	}
	return signed
}
