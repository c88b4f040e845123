package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/internal/service"
	"github.com/1code1day/platform-service/pkg/logger"
	"github.com/1code1day/platform-service/pkg/res"
)

// Ограничение на размер тела вебхука (Stripe рекомендует ~65kb)
const maxWebhookBodySize = int64(65536)

// WebhookHandler обрабатывает входящие вебхуки от Stripe
type WebhookHandler struct {
	subscriptions service.SubscriptionService
	security      service.SecurityService
	webhookSecret string
	log           *logger.Logger
}

// NewWebhookHandler создает обработчик вебхуков Stripe
func NewWebhookHandler(subscriptions service.SubscriptionService, security service.SecurityService, webhookSecret string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		subscriptions: subscriptions,
		security:      security,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// HandleStripeWebhook принимает вебхук Stripe.
// Ошибки обработки события отвечают 200: Stripe повторяет доставку
// только при не-2xx ответах, а повторная доставка события, которое
// падает детерминированно, лишь создает шторм ретраев. 400 отдается
// только при невалидной подписи или нечитаемом теле.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodySize)
	payload, err := io.ReadAll(c.Request.Body)
	defer c.Request.Body.Close()
	if err != nil {
		h.log.Errorw("Failed to read webhook request body", "error", err)
		res.JsonResponse(c.Writer, res.Err("Cannot read request body"), http.StatusBadRequest)
		c.Abort()
		return
	}

	// Версия API аккаунта может отличаться от закрепленной в stripe-go,
	// подпись при этом остается валидной
	sigHeader := c.GetHeader("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		h.log.Errorw("Webhook signature verification failed", "error", err)
		h.security.Record(ctx, domain.SecurityLog{
			EventType: domain.SecurityEventWebhookSigFailed,
			IP:        c.ClientIP(),
		})
		res.JsonResponse(c.Writer, res.Err("Webhook signature verification failed"), http.StatusBadRequest)
		c.Abort()
		return
	}

	if err := h.subscriptions.HandleWebhookEvent(ctx, event); err != nil {
		h.log.Errorw("Webhook event processing failed", "type", event.Type, "eventID", event.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
