package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/internal/repository"
	"github.com/1code1day/platform-service/internal/service"
	"github.com/1code1day/platform-service/pkg/logger"
	"github.com/1code1day/platform-service/pkg/req"
	"github.com/1code1day/platform-service/pkg/res"
)

// AdminHandler административные операции: конфигурация сайта,
// блокировки IP и журнал безопасности
type AdminHandler struct {
	config   service.SiteConfigService
	security service.SecurityService
	log      *logger.Logger
}

// NewAdminHandler создает обработчик административных операций
func NewAdminHandler(config service.SiteConfigService, security service.SecurityService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{config: config, security: security, log: log}
}

// GetConfig возвращает конфигурацию сайта
func (h *AdminHandler) GetConfig(c *gin.Context) {
	cfg, err := h.config.Get(c.Request.Context())
	if err != nil {
		h.log.Errorw("Failed to get site config", "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to get site config"), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// PatchConfig частично обновляет конфигурацию сайта
func (h *AdminHandler) PatchConfig(c *gin.Context) {
	body, err := req.HandleBody[domain.SiteConfigPatch](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	cfg, err := h.config.Patch(c.Request.Context(), *body)
	if err != nil {
		h.log.Errorw("Failed to patch site config", "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to update site config"), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// BlockIP блокирует IP адрес
func (h *AdminHandler) BlockIP(c *gin.Context) {
	body, err := req.HandleBody[domain.BlockIPRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	if err := h.security.BlockIP(c.Request.Context(), *body); err != nil {
		h.log.Errorw("Failed to block ip", "ip", body.IP, "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to block ip"), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": body.IP})
}

// UnblockIP снимает блокировку IP адреса
func (h *AdminHandler) UnblockIP(c *gin.Context) {
	ip := c.Param("ip")

	if err := h.security.UnblockIP(c.Request.Context(), ip); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			res.JsonResponse(c.Writer, res.Err("IP is not blocked"), http.StatusNotFound)
			return
		}
		h.log.Errorw("Failed to unblock ip", "ip", ip, "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to unblock ip"), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unblocked": ip})
}

// ListBlockedIPs возвращает заблокированные IP
func (h *AdminHandler) ListBlockedIPs(c *gin.Context) {
	ips, err := h.security.ListBlockedIPs(c.Request.Context())
	if err != nil {
		h.log.Errorw("Failed to list blocked ips", "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to list blocked ips"), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, ips)
}

// SecurityLogs возвращает страницу журнала безопасности
func (h *AdminHandler) SecurityLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	logs, err := h.security.ListLogs(c.Request.Context(), domain.SecurityLogFilter{
		Limit:     limit,
		Page:      page,
		EventType: c.Query("event_type"),
	})
	if err != nil {
		h.log.Errorw("Failed to list security logs", "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to list security logs"), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, logs)
}
