package service

import (
	"github.com/wayfarer-travel/wayfarer/internal/auth"
	"github.com/wayfarer-travel/wayfarer/internal/billing"
	"github.com/wayfarer-travel/wayfarer/internal/config"
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	"github.com/wayfarer-travel/wayfarer/internal/logger"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Collaborators
	BillingClient billing.Client
	AuthClient    auth.Client

	// AuthContext owns the cached role hint and its refresh lifecycle
	AuthContext *auth.AuthorizationContext

	// ActionLock serializes mutating subscription actions per user
	ActionLock *subscription.ActionLock

	// RecordStore holds the last-fetched subscription snapshot that
	// action preconditions classify against
	RecordStore subscription.RecordStore
}

func NewServiceParams(
	logger *logger.Logger,
	cfg *config.Configuration,
	billingClient billing.Client,
	authClient auth.Client,
	authContext *auth.AuthorizationContext,
	actionLock *subscription.ActionLock,
	recordStore subscription.RecordStore,
) ServiceParams {
	return ServiceParams{
		Logger:        logger,
		Config:        cfg,
		BillingClient: billingClient,
		AuthClient:    authClient,
		AuthContext:   authContext,
		ActionLock:    actionLock,
		RecordStore:   recordStore,
	}
}
