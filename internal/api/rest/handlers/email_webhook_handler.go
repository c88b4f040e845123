package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/internal/email"
	"github.com/1code1day/platform-service/internal/service"
	"github.com/1code1day/platform-service/pkg/logger"
	"github.com/1code1day/platform-service/pkg/req"
	"github.com/1code1day/platform-service/pkg/res"
)

const webhookSecretHeader = "X-Webhook-Secret"

// EmailTriggerRequest запрос на отправку транзакционного письма
type EmailTriggerRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	HTML    string `json:"html" validate:"required"`
}

// EmailWebhookHandler принимает внутренние триггеры отправки писем.
// Доступ защищен общим секретом в заголовке X-Webhook-Secret.
type EmailWebhookHandler struct {
	sender   email.Sender
	security service.SecurityService
	secret   string
	log      *logger.Logger
}

// NewEmailWebhookHandler создает обработчик триггеров писем
func NewEmailWebhookHandler(sender email.Sender, security service.SecurityService, secret string, log *logger.Logger) *EmailWebhookHandler {
	return &EmailWebhookHandler{sender: sender, security: security, secret: secret, log: log}
}

// HandleEmailTrigger проверяет секрет и отправляет письмо
func (h *EmailWebhookHandler) HandleEmailTrigger(c *gin.Context) {
	provided := c.GetHeader(webhookSecretHeader)
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		h.log.Warnw("Email trigger rejected: bad webhook secret", "ip", c.ClientIP())
		h.security.Record(c.Request.Context(), domain.SecurityLog{
			EventType: domain.SecurityEventWebhookSigFailed,
			IP:        c.ClientIP(),
			Detail:    "email trigger",
		})
		res.JsonResponse(c.Writer, res.Err("Unauthorized"), http.StatusUnauthorized)
		return
	}

	body, err := req.HandleBody[EmailTriggerRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	if err := h.sender.Send(c.Request.Context(), body.To, body.Subject, body.HTML); err != nil {
		res.JsonResponse(c.Writer, res.Err("Failed to send email"), http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": true})
}
