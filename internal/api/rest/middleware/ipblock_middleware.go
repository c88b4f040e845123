package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/internal/service"
	"github.com/1code1day/platform-service/pkg/logger"
	"github.com/1code1day/platform-service/pkg/res"
)

// IPBlockMiddleware отклоняет запросы с заблокированных IP адресов
func IPBlockMiddleware(security service.SecurityService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if security.IsBlocked(c.Request.Context(), ip) {
			log.Warnw("Request from blocked IP rejected", "ip", ip, "path", c.Request.URL.Path)
			security.Record(c.Request.Context(), domain.SecurityLog{
				EventType: domain.SecurityEventBlockedIPHit,
				IP:        ip,
				Detail:    c.Request.URL.Path,
			})
			res.JsonResponse(c.Writer, res.Err("Forbidden"), http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
