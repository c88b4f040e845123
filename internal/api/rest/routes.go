package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/1code1day/platform-service/config"
	"github.com/1code1day/platform-service/internal/api/rest/handlers"
	"github.com/1code1day/platform-service/internal/api/rest/middleware"
	"github.com/1code1day/platform-service/internal/email"
	"github.com/1code1day/platform-service/internal/service"
	"github.com/1code1day/platform-service/pkg/logger"
)

// Deps зависимости HTTP слоя
type Deps struct {
	Subscriptions service.SubscriptionService
	Challenges    service.ChallengeService
	SiteConfig    service.SiteConfigService
	Security      service.SecurityService
	EmailSender   email.Sender
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(deps Deps, cfg *config.Config, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())
	r.Use(middleware.IPBlockMiddleware(deps.Security, log))

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	auth := middleware.NewJWTMiddleware(cfg.Auth.JWTSecret, deps.Security, log)

	billingHandler := handlers.NewBillingHandler(deps.Subscriptions, log)
	challengeHandler := handlers.NewChallengeHandler(deps.Challenges, log)
	adminHandler := handlers.NewAdminHandler(deps.SiteConfig, deps.Security, log)
	webhookHandler := handlers.NewWebhookHandler(deps.Subscriptions, deps.Security, cfg.Stripe.WebhookSecret, log)
	emailHandler := handlers.NewEmailWebhookHandler(deps.EmailSender, deps.Security, cfg.Email.WebhookSecret, log)

	v1 := r.Group("/api/v1")
	{
		billing := v1.Group("/billing")
		{
			billing.POST("/checkout", billingHandler.CreateCheckout)
			billing.GET("/verify", billingHandler.VerifyCheckout)
			billing.GET("/status/:userId", billingHandler.Status)
			billing.POST("/cancel", auth.RequireAuth(), billingHandler.Cancel)
			billing.POST("/resume", auth.RequireAuth(), billingHandler.Resume)
			billing.POST("/sync", auth.RequireAdmin(), billingHandler.Sync)
		}

		challenges := v1.Group("/challenges")
		{
			challenges.GET("/today", challengeHandler.Today)
			challenges.GET("", challengeHandler.List)
			challenges.POST("/generate", auth.RequireAdmin(), challengeHandler.Generate)
		}

		admin := v1.Group("/admin", auth.RequireAdmin())
		{
			admin.GET("/config", adminHandler.GetConfig)
			admin.PATCH("/config", adminHandler.PatchConfig)
			admin.GET("/blocked-ips", adminHandler.ListBlockedIPs)
			admin.POST("/blocked-ips", adminHandler.BlockIP)
			admin.DELETE("/blocked-ips/:ip", adminHandler.UnblockIP)
			admin.GET("/security-logs", adminHandler.SecurityLogs)
		}
	}

	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/stripe", webhookHandler.HandleStripeWebhook)
		webhooks.POST("/email", emailHandler.HandleEmailTrigger)
	}

	return r
}
