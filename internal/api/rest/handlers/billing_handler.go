package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/internal/repository"
	"github.com/1code1day/platform-service/internal/service"
	"github.com/1code1day/platform-service/pkg/logger"
	"github.com/1code1day/platform-service/pkg/req"
	"github.com/1code1day/platform-service/pkg/res"
)

// BillingHandler операции биллинга: checkout, проверка сессии,
// отмена и синхронизация подписки
type BillingHandler struct {
	subscriptions service.SubscriptionService
	log           *logger.Logger
}

// NewBillingHandler создает обработчик биллинга
func NewBillingHandler(subscriptions service.SubscriptionService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{subscriptions: subscriptions, log: log}
}

// CreateCheckout создает checkout-сессию Stripe
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	body, err := req.HandleBody[domain.CheckoutRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	sessionID, url, err := h.subscriptions.CreateCheckoutSession(c.Request.Context(), *body)
	if err != nil {
		if errors.Is(err, domain.ErrPriceNotConfigured) {
			res.JsonResponse(c.Writer, res.Err("Price is not configured for this plan"), http.StatusBadRequest)
			return
		}
		h.log.Errorw("Failed to create checkout session", "userID", body.UserID, "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to create checkout session"), http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "url": url})
}

// VerifyCheckout сверяет подписку по завершенной checkout-сессии.
// Ожидание привязки подписки выполняется на сервере, клиенту
// достаточно одного запроса после возврата со страницы оплаты.
func (h *BillingHandler) VerifyCheckout(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		res.JsonResponse(c.Writer, res.Err("session_id is required"), http.StatusBadRequest)
		return
	}

	sub, err := h.subscriptions.VerifyCheckoutSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrCheckoutPending) {
			res.JsonResponse(c.Writer, res.Err("Checkout is not completed yet"), http.StatusConflict)
			return
		}
		h.log.Errorw("Failed to verify checkout session", "sessionID", sessionID, "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to verify checkout session"), http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// Cancel помечает подписку к отмене в конце оплаченного периода
func (h *BillingHandler) Cancel(c *gin.Context) {
	h.withUser(c, h.subscriptions.Cancel)
}

// Resume снимает отметку об отмене
func (h *BillingHandler) Resume(c *gin.Context) {
	h.withUser(c, h.subscriptions.Resume)
}

// Sync перечитывает состояние подписки из Stripe
func (h *BillingHandler) Sync(c *gin.Context) {
	body, err := req.HandleBody[domain.SyncRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}
	h.respondSubscription(c, uuid.MustParse(body.UserID), h.subscriptions.SyncByUser)
}

// Status возвращает локальную запись подписки пользователя
func (h *BillingHandler) Status(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		res.JsonResponse(c.Writer, res.Err("Invalid user id"), http.StatusBadRequest)
		return
	}

	sub, err := h.subscriptions.GetStatus(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorw("Failed to get subscription status", "userID", userID, "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to get subscription status"), http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, sub)
}

type subscriptionOp func(ctx context.Context, userID uuid.UUID) (domain.Subscription, error)

func (h *BillingHandler) withUser(c *gin.Context, op subscriptionOp) {
	body, err := req.HandleBody[domain.CancelRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}
	h.respondSubscription(c, uuid.MustParse(body.UserID), op)
}

func (h *BillingHandler) respondSubscription(c *gin.Context, userID uuid.UUID, op subscriptionOp) {
	sub, err := op(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			res.JsonResponse(c.Writer, res.Err("Subscription not found"), http.StatusNotFound)
		case errors.Is(err, domain.ErrNoSubscriptionMapping), errors.Is(err, domain.ErrNoBillingIdentity):
			res.JsonResponse(c.Writer, res.Err(err.Error()), http.StatusConflict)
		default:
			h.log.Errorw("Subscription operation failed", "userID", userID, "error", err)
			res.JsonResponse(c.Writer, res.Err("Subscription operation failed"), http.StatusBadGateway)
		}
		return
	}

	c.JSON(http.StatusOK, sub)
}
