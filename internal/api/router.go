package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/wayfarer-travel/wayfarer/internal/api/v1"
	"github.com/wayfarer-travel/wayfarer/internal/config"
	"github.com/wayfarer-travel/wayfarer/internal/logger"
	"github.com/wayfarer-travel/wayfarer/internal/rest/middleware"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Subscription *v1.SubscriptionHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	// v1 routes require an authenticated user
	v1Group := router.Group("/v1", middleware.AuthenticateMiddleware(cfg, logger))
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	router.GET("/account", handlers.Subscription.GetAccount)

	subscription := router.Group("/subscription")
	{
		subscription.GET("/current", handlers.Subscription.GetCurrentSubscription)
		subscription.GET("/panel", handlers.Subscription.GetPanel)
		subscription.POST("/cancel", handlers.Subscription.CancelSubscription)
		subscription.POST("/reactivate", handlers.Subscription.ReactivateSubscription)
		subscription.PUT("/change-plan", handlers.Subscription.ChangePlan)
		subscription.POST("/refund", handlers.Subscription.RequestRefund)
		subscription.GET("/refund/eligibility", handlers.Subscription.CheckRefundEligibility)
		subscription.POST("/checkout", handlers.Subscription.StartCheckout)
		subscription.POST("/payment-success", handlers.Subscription.PaymentSuccess)
		subscription.GET("/payments", handlers.Subscription.ListPayments)
	}
}
