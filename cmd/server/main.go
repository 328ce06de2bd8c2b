package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wayfarer-travel/wayfarer/internal/api"
	v1 "github.com/wayfarer-travel/wayfarer/internal/api/v1"
	"github.com/wayfarer-travel/wayfarer/internal/auth"
	"github.com/wayfarer-travel/wayfarer/internal/billing"
	"github.com/wayfarer-travel/wayfarer/internal/cache"
	"github.com/wayfarer-travel/wayfarer/internal/config"
	"github.com/wayfarer-travel/wayfarer/internal/domain/subscription"
	"github.com/wayfarer-travel/wayfarer/internal/httpclient"
	"github.com/wayfarer-travel/wayfarer/internal/logger"
	"github.com/wayfarer-travel/wayfarer/internal/service"
	"github.com/wayfarer-travel/wayfarer/internal/types"
	"github.com/wayfarer-travel/wayfarer/internal/validator"
	"go.uber.org/fx"
)

// recordTTL bounds how long a subscription snapshot may gate action
// preconditions before the next read refetches it
const recordTTL = 5 * time.Minute

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			provideCache,

			// Collaborator clients
			provideBillingClient,
			provideAuthClient,

			// Entitlement and action state
			auth.NewAuthorizationContext,
			subscription.NewActionLock,
			provideRecordStore,
		),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewSubscriptionService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideCache(log *logger.Logger) cache.Cache {
	return cache.Initialize(log)
}

func provideBillingClient(cfg *config.Configuration, log *logger.Logger) billing.Client {
	return billing.NewClient(billing.ClientParams{
		Config: cfg,
		// reads retry transient failures, mutations are sent exactly once
		ReadClient:  httpclient.NewRetryableClient(),
		WriteClient: httpclient.NewDefaultClient(),
		Logger:      log,
	})
}

func provideAuthClient(cfg *config.Configuration, log *logger.Logger) auth.Client {
	return auth.NewClient(cfg, httpclient.NewDefaultClient(), log)
}

func provideRecordStore(c cache.Cache) subscription.RecordStore {
	return subscription.NewCachedRecordStore(c, recordTTL)
}

func provideHandlers(
	logger *logger.Logger,
	subscriptionService service.SubscriptionService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeAPI
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
