package auth

import (
	"context"

	"github.com/wayfarer-travel/wayfarer/internal/cache"
	"github.com/wayfarer-travel/wayfarer/internal/config"
	ierr "github.com/wayfarer-travel/wayfarer/internal/errors"
	"github.com/wayfarer-travel/wayfarer/internal/logger"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// AuthorizationContext owns the cached role hint for a user. The cache
// is a hint for gating UI affordances instantly, never a source of
// truth: any entitlement-affecting mutation must go through
// Invalidate-then-Refresh so the displayed role can never lag billing
// truth. The ordering is enforced by this API shape, not by
// convention - Refresh always clears the cache before reading.
type AuthorizationContext struct {
	cache  cache.Cache
	client Client
	cfg    *config.Configuration
	log    *logger.Logger
}

// RefreshResult carries the outcome of a forced entitlement refresh
type RefreshResult struct {
	Role types.UserRole
	// Tokens is the freshly issued pair the caller must hand back to
	// the user agent
	Tokens *TokenPair
}

func NewAuthorizationContext(cfg *config.Configuration, client Client, c cache.Cache, log *logger.Logger) *AuthorizationContext {
	return &AuthorizationContext{
		cache:  c,
		client: client,
		cfg:    cfg,
		log:    log,
	}
}

// Role returns the cached role hint for the user, if any
func (a *AuthorizationContext) Role(ctx context.Context, userID string) (types.UserRole, bool) {
	key := cache.GenerateKey(cache.PrefixRole, userID)
	if value, found := a.cache.Get(ctx, key); found {
		if role, ok := value.(types.UserRole); ok {
			return role, true
		}
	}
	return "", false
}

// Invalidate clears the cached role hint for the user, forcing the
// next read to re-derive it from a freshly issued token
func (a *AuthorizationContext) Invalidate(ctx context.Context, userID string) {
	key := cache.GenerateKey(cache.PrefixRole, userID)
	a.cache.Delete(ctx, key)
	a.log.Debugw("authorization role cache invalidated", "user_id", userID)
}

// Refresh invalidates the cached role, awaits a fresh token pair from
// the auth backend, re-derives the role claim from the new token, and
// caches it. A rejected refresh is escalated as a reconnect-required
// error; stale entitlement is never kept silently.
func (a *AuthorizationContext) Refresh(ctx context.Context, userID string) (*RefreshResult, error) {
	a.Invalidate(ctx, userID)

	tokens, err := a.client.RefreshToken(ctx)
	if err != nil {
		a.log.Errorw("token refresh failed after mutation", "user_id", userID, "error", err)
		return nil, err
	}

	claims, err := ParseToken(a.cfg.Auth.Secret, tokens.AccessToken)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Your session has expired, please reconnect").
			Mark(ierr.ErrReconnectRequired)
	}

	role := RoleFromClaims(claims)
	key := cache.GenerateKey(cache.PrefixRole, userID)
	a.cache.Set(ctx, key, role, a.cfg.Auth.RoleCacheTTL)

	a.log.Infow("authorization role refreshed", "user_id", userID, "role", role)

	return &RefreshResult{Role: role, Tokens: tokens}, nil
}
